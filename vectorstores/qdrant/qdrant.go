// Package qdrant stores documents in a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sevigo/docchain/schema"
	"github.com/sevigo/docchain/vectorstores"
)

var (
	ErrMissingCollectionName = errors.New("qdrant: collection name is required")
	ErrPartialBatchFailure   = errors.New("qdrant: some batches failed to process")
)

const (
	DefaultBatchSize      = 100
	MaxBatchSize          = 1000
	DefaultMaxConcurrency = 8
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = time.Second
	DefaultMaxRetryDelay  = 30 * time.Second
)

type Store struct {
	client  *qdrant.Client
	options options
	logger  *slog.Logger
}

var (
	_ vectorstores.VectorStore       = (*Store)(nil)
	_ vectorstores.CollectionManager = (*Store)(nil)
)

func New(opts ...Option) (*Store, error) {
	o, err := parseOptions(opts...)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("component", "qdrant_store", "collection", o.collectionName)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   o.host,
		Port:   o.port,
		APIKey: o.apiKey,
		UseTLS: o.useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	logger.Info("Qdrant store initialized", "config", o.String())
	return &Store{client: client, options: o, logger: logger}, nil
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// AddDocuments embeds docs and upserts them in concurrent batches, creating
// the collection on first use. When some batches fail the ids of the stored
// points are returned together with ErrPartialBatchFailure.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	opts := vectorstores.ParseOptions(options...)
	embedder, err := opts.ResolveEmbedder(s.options.embedder)
	if err != nil {
		return nil, err
	}
	collectionName := s.collectionName(opts)

	start := time.Now()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("document embedding stage failed: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	if err := s.ensureCollection(ctx, collectionName, len(vectors[0])); err != nil {
		return nil, fmt.Errorf("collection preparation failed: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(documentID(doc)),
			Vectors: qdrant.NewVectorsDense(vectors[i]),
			Payload: documentToPayload(doc, s.options.contentKey),
		}
	}

	ids, err := s.upsertInBatches(ctx, collectionName, points)
	if err != nil {
		if len(ids) > 0 {
			s.logger.WarnContext(ctx, "Partial success in document addition", "processed", len(ids), "total", len(points))
		}
		return ids, err
	}

	s.logger.InfoContext(ctx, "Documents added", "collection", collectionName, "count", len(ids), "duration", time.Since(start))
	return ids, nil
}

func (s *Store) upsertInBatches(ctx context.Context, collectionName string, points []*qdrant.PointStruct) ([]string, error) {
	batchSize := s.options.batchSize
	semaphore := make(chan struct{}, s.options.maxConcurrency)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ids    = make([]string, 0, len(points))
		failed []error
	)
	for startIdx := 0; startIdx < len(points); startIdx += batchSize {
		batch := points[startIdx:min(startIdx+batchSize, len(points))]

		wg.Add(1)
		go func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			err := s.upsertWithRetry(ctx, collectionName, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, err)
				return
			}
			for _, p := range batch {
				ids = append(ids, p.GetId().GetUuid())
			}
		}()
	}
	wg.Wait()

	switch {
	case len(failed) == 0:
		return ids, nil
	case len(ids) == 0:
		return nil, fmt.Errorf("all upsert batches failed: %w", errors.Join(failed...))
	default:
		return ids, fmt.Errorf("%w: %w", ErrPartialBatchFailure, errors.Join(failed...))
	}
}

func (s *Store) upsertWithRetry(ctx context.Context, collectionName string, points []*qdrant.PointStruct) error {
	var lastErr error
	delay := s.options.retryDelay

	for attempt := 0; attempt <= s.options.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = min(time.Duration(float64(delay)*1.5), DefaultMaxRetryDelay)
		}

		wait := true
		_, err := s.client.GetPointsClient().Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName,
			Wait:           &wait,
			Points:         points,
		})
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.WarnContext(ctx, "Upsert attempt failed", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("upsert failed after %d attempts: %w", s.options.retryAttempts+1, lastErr)
}

func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	scored, err := s.SimilaritySearchWithScores(ctx, query, numDocuments, options...)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
	}
	return docs, nil
}

func (s *Store) SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if strings.TrimSpace(query) == "" {
		s.logger.WarnContext(ctx, "Empty query provided")
		return []vectorstores.DocumentWithScore{}, nil
	}
	if numDocuments <= 0 {
		return nil, vectorstores.ErrInvalidNumDocuments
	}

	opts := vectorstores.ParseOptions(options...)
	embedder, err := opts.ResolveEmbedder(s.options.embedder)
	if err != nil {
		return nil, err
	}
	collectionName := s.collectionName(opts)

	queryVector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	start := time.Now()
	req := &qdrant.SearchPoints{
		CollectionName: collectionName,
		Vector:         queryVector,
		Limit:          uint64(numDocuments),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(opts.Filters),
	}
	if opts.ScoreThreshold > 0 {
		req.ScoreThreshold = &opts.ScoreThreshold
	}
	resp, err := s.client.GetPointsClient().Search(ctx, req)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", vectorstores.ErrCollectionNotFound, collectionName)
		}
		s.logger.ErrorContext(ctx, "Search failed", "error", err, "collection", collectionName)
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := resp.GetResult()
	out := make([]vectorstores.DocumentWithScore, len(results))
	for i, point := range results {
		out[i] = vectorstores.DocumentWithScore{
			Document: payloadToDocument(point.GetPayload(), s.options.contentKey),
			Score:    point.GetScore(),
		}
	}

	s.logger.DebugContext(ctx, "Similarity search completed",
		"collection", collectionName, "results", len(out), "duration", time.Since(start))
	return out, nil
}

// DeleteDocuments removes points by id.
func (s *Store) DeleteDocuments(ctx context.Context, ids []string, options ...vectorstores.Option) error {
	if len(ids) == 0 {
		return nil
	}
	opts := vectorstores.ParseOptions(options...)

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	wait := true
	_, err := s.client.GetPointsClient().Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName(opts),
		Wait:           &wait,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete documents from qdrant: %w", err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	resp, err := s.client.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list qdrant collections: %w", err)
	}
	collections := resp.GetCollections()
	names := make([]string, len(collections))
	for i, col := range collections {
		names[i] = col.GetName()
	}
	return names, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingCollectionName
	}
	_, err := s.client.GetCollectionsClient().Delete(ctx, &qdrant.DeleteCollection{CollectionName: name})
	if err != nil {
		if isNotFound(err) {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	s.logger.InfoContext(ctx, "Collection deleted", "name", name)
	return nil
}

func (s *Store) collectionName(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return s.options.collectionName
}

// ensureCollection creates a cosine collection sized to dimension unless it
// already exists.
func (s *Store) ensureCollection(ctx context.Context, name string, dimension int) error {
	_, err := s.client.GetCollectionsClient().Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: name})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	s.logger.InfoContext(ctx, "Creating collection", "collection", name, "dimension", dimension)
	_, err = s.client.GetCollectionsClient().Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	stat, ok := status.FromError(err)
	return ok && stat.Code() == codes.NotFound
}

// documentID reuses a UUID "id" metadata value; qdrant rejects other strings
// as point ids.
func documentID(doc schema.Document) string {
	if id, ok := doc.Metadata["id"].(string); ok {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.New().String()
}

func documentToPayload(doc schema.Document, contentKey string) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(doc.Metadata)+1)
	for key, value := range doc.Metadata {
		payload[key] = toValue(value)
	}
	payload[contentKey] = qdrant.NewValueString(doc.PageContent)
	return payload
}

func toValue(value any) *qdrant.Value {
	switch v := value.(type) {
	case string:
		return qdrant.NewValueString(v)
	case int:
		return qdrant.NewValueInt(int64(v))
	case int32:
		return qdrant.NewValueInt(int64(v))
	case int64:
		return qdrant.NewValueInt(v)
	case float32:
		return qdrant.NewValueDouble(float64(v))
	case float64:
		return qdrant.NewValueDouble(v)
	case bool:
		return qdrant.NewValueBool(v)
	case []string:
		values := make([]*qdrant.Value, len(v))
		for i, str := range v {
			values[i] = qdrant.NewValueString(str)
		}
		return qdrant.NewValueFromList(values...)
	case nil:
		return qdrant.NewValueNull()
	default:
		return qdrant.NewValueString(fmt.Sprintf("%v", v))
	}
}

func payloadToDocument(payload map[string]*qdrant.Value, contentKey string) schema.Document {
	doc := schema.Document{Metadata: make(map[string]any, len(payload))}
	for key, value := range payload {
		if key == contentKey {
			doc.PageContent = value.GetStringValue()
			continue
		}
		doc.Metadata[key] = fromValue(value)
	}
	return doc
}

func fromValue(value *qdrant.Value) any {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(v.ListValue.GetValues()))
		for i, val := range v.ListValue.GetValues() {
			list[i] = fromValue(val)
		}
		return list
	default:
		return nil
	}
}

// buildFilter turns exact-match metadata filters into a conjunction of
// field conditions. Unsupported value types are skipped.
func buildFilter(filters map[string]any) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filters))
	for key, value := range filters {
		switch v := value.(type) {
		case string:
			conditions = append(conditions, qdrant.NewMatchKeyword(key, v))
		case int:
			conditions = append(conditions, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			conditions = append(conditions, qdrant.NewMatchInt(key, v))
		case bool:
			conditions = append(conditions, qdrant.NewMatchBool(key, v))
		case []string:
			conditions = append(conditions, qdrant.NewMatchKeywords(key, v...))
		default:
			slog.Warn("Unsupported filter type for key", "key", key, "type", fmt.Sprintf("%T", v))
		}
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}
