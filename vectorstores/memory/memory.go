// Package memory is an in-process vector store ranking documents by cosine
// similarity. It suits tests, the CLI's offline mode and small corpora.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sevigo/docchain/embeddings"
	"github.com/sevigo/docchain/schema"
	"github.com/sevigo/docchain/vectorstores"
)

// DefaultCollection receives documents added without a namespace.
const DefaultCollection = "default"

type entry struct {
	id     string
	doc    schema.Document
	vector []float32
}

// Store keeps documents and their vectors per collection. It is safe for
// concurrent use.
type Store struct {
	embedder embeddings.Embedder
	logger   *slog.Logger

	mu          sync.RWMutex
	collections map[string][]entry
}

var (
	_ vectorstores.VectorStore       = (*Store)(nil)
	_ vectorstores.CollectionManager = (*Store)(nil)
)

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(embedder embeddings.Embedder, opts ...Option) *Store {
	s := &Store{
		embedder:    embedder,
		logger:      slog.Default(),
		collections: make(map[string][]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "memory_store")
	return s
}

// FromDocuments builds a store and indexes docs into the default collection.
func FromDocuments(ctx context.Context, docs []schema.Document, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	s := New(embedder, opts...)
	if _, err := s.AddDocuments(ctx, docs); err != nil {
		return nil, err
	}
	return s, nil
}

// AddDocuments embeds docs and stores copies of them. A string "id" metadata
// value is used as the document id; otherwise a random UUID is assigned.
// A document whose id is already stored in the collection replaces it.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	opts := vectorstores.ParseOptions(options...)
	embedder, err := opts.ResolveEmbedder(s.embedder)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("document embedding failed: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: %d vectors for %d documents", embeddings.ErrCountMismatch, len(vectors), len(docs))
	}

	ids := make([]string, len(docs))
	entries := make([]entry, len(docs))
	for i, doc := range docs {
		ids[i] = documentID(doc)
		entries[i] = entry{id: ids[i], doc: doc.Clone(), vector: vectors[i]}
	}

	name := collectionName(opts)
	s.mu.Lock()
	s.collections[name] = upsert(s.collections[name], entries)
	size := len(s.collections[name])
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Documents added", "collection", name, "count", len(docs), "size", size)
	return ids, nil
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

// SimilaritySearchWithScores returns up to numDocuments matches ordered by
// descending cosine similarity. Ties keep insertion order. Searching the
// default collection before anything was added yields no matches; any other
// unknown namespace is an error.
func (s *Store) SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if strings.TrimSpace(query) == "" {
		return []vectorstores.DocumentWithScore{}, nil
	}
	if numDocuments <= 0 {
		return nil, vectorstores.ErrInvalidNumDocuments
	}

	opts := vectorstores.ParseOptions(options...)
	embedder, err := opts.ResolveEmbedder(s.embedder)
	if err != nil {
		return nil, err
	}
	queryVector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	name := collectionName(opts)
	s.mu.RLock()
	entries, ok := s.collections[name]
	if !ok && name != DefaultCollection {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", vectorstores.ErrCollectionNotFound, name)
	}

	results := make([]vectorstores.DocumentWithScore, 0, len(entries))
	for _, e := range entries {
		if !matches(e.doc.Metadata, opts.Filters) {
			continue
		}
		score := cosine(queryVector, e.vector)
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		results = append(results, vectorstores.DocumentWithScore{Document: e.doc.Clone(), Score: score})
	}
	s.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b vectorstores.DocumentWithScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > numDocuments {
		results = results[:numDocuments]
	}

	s.logger.DebugContext(ctx, "Similarity search completed", "collection", name, "results", len(results))
	return results, nil
}

// ListCollections returns the collection names in sorted order.
func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return vectorstores.ErrCollectionNotFound
	}
	delete(s.collections, name)
	return nil
}

// Delete removes the documents with the given ids from every collection and
// reports how many were removed.
func (s *Store) Delete(_ context.Context, ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for name, entries := range s.collections {
		kept := slices.DeleteFunc(entries, func(e entry) bool {
			return slices.Contains(ids, e.id)
		})
		removed += len(entries) - len(kept)
		s.collections[name] = kept
	}
	return removed
}

// Len returns the number of documents in the default collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[DefaultCollection])
}

// upsert replaces stored entries that share an id with an added one, in
// place, and appends the rest in order.
func upsert(stored, added []entry) []entry {
	index := make(map[string]int, len(stored))
	for i, e := range stored {
		index[e.id] = i
	}
	for _, e := range added {
		if i, ok := index[e.id]; ok {
			stored[i] = e
			continue
		}
		index[e.id] = len(stored)
		stored = append(stored, e)
	}
	return stored
}

func collectionName(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return DefaultCollection
}

func documentID(doc schema.Document) string {
	if id, ok := doc.Metadata["id"].(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

func matches(metadata, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := metadata[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
