// Package embeddings defines the text to vector contract used by vector
// stores, plus a batching wrapper for provider clients.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	GetDimension(ctx context.Context) (int, error)
}

var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrAlreadyWrapped = errors.New("cannot wrap an already-wrapped embedder")
	ErrCountMismatch  = errors.New("embedder returned a different number of vectors than texts")
)

// Batched splits large EmbedDocuments calls into batches sent concurrently to
// the wrapped client and reassembles the vectors in input order.
type Batched struct {
	client Embedder
	opts   options
	logger *slog.Logger
}

var _ Embedder = (*Batched)(nil)

func NewEmbedder(client Embedder, opts ...Option) (*Batched, error) {
	o := options{
		stripNewLines: true,
		batchSize:     32,
		concurrency:   8,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.batchSize <= 0 {
		o.batchSize = 32
	}
	if o.concurrency <= 0 {
		o.concurrency = 1
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if _, ok := client.(*Batched); ok {
		return nil, ErrAlreadyWrapped
	}

	return &Batched{
		client: client,
		opts:   o,
		logger: o.logger.With("component", "embedder"),
	}, nil
}

func (e *Batched) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return e.client.EmbedQuery(ctx, e.preprocessText(text))
}

// EmbedDocuments stops at the first failing batch and cancels the rest.
func (e *Batched) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed := make([]string, len(texts))
	for i, text := range texts {
		processed[i] = e.preprocessText(text)
	}

	batches := batchTexts(processed, e.opts.batchSize)
	results := make([][][]float32, len(batches))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	semaphore := make(chan struct{}, e.opts.concurrency)

	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				return
			}

			vectors, err := e.client.EmbedDocuments(ctx, batch)
			if err == nil && len(vectors) != len(batch) {
				err = fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(vectors), len(batch))
			}
			if err != nil {
				errOnce.Do(func() {
					firstErr = fmt.Errorf("error embedding batch %d: %w", i, err)
					cancel()
				})
				return
			}
			results[i] = vectors
		}(i, batch)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := make([][]float32, 0, len(texts))
	for _, batch := range results {
		all = append(all, batch...)
	}

	e.logger.DebugContext(ctx, "Embedded documents", "count", len(texts), "batches", len(batches))
	return all, nil
}

func (e *Batched) GetDimension(ctx context.Context) (int, error) {
	return e.client.GetDimension(ctx)
}

func (e *Batched) preprocessText(text string) string {
	if e.opts.stripNewLines {
		return strings.ReplaceAll(text, "\n", " ")
	}
	return text
}

func batchTexts(texts []string, batchSize int) [][]string {
	if batchSize <= 0 {
		return [][]string{texts}
	}

	batches := make([][]string, 0, (len(texts)+batchSize-1)/batchSize)
	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		batches = append(batches, texts[i:end])
	}
	return batches
}
