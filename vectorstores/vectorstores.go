// Package vectorstores defines the storage contract for embedded documents
// and the options shared by every store implementation.
package vectorstores

import (
	"context"
	"errors"
	"maps"

	"github.com/sevigo/docchain/embeddings"
	"github.com/sevigo/docchain/schema"
)

var (
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrInvalidNumDocuments = errors.New("number of documents must be positive")
	ErrMissingEmbedder     = errors.New("embedder is required but not provided")
)

type VectorStore interface {
	AddDocuments(ctx context.Context, docs []schema.Document, options ...Option) ([]string, error)
	SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...Option) ([]schema.Document, error)
	SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...Option) ([]DocumentWithScore, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// CollectionManager is implemented by stores that can drop whole collections.
type CollectionManager interface {
	DeleteCollection(ctx context.Context, collectionName string) error
}

type DocumentWithScore struct {
	Document schema.Document
	Score    float32
}

type Option func(*Options)

// Options tune a single store call. Embedder overrides the store's own
// embedder, NameSpace selects a collection, and Filters require exact
// metadata matches.
type Options struct {
	Embedder       embeddings.Embedder
	NameSpace      string
	ScoreThreshold float32
	Filters        map[string]any
}

func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(opts *Options) {
		opts.Embedder = embedder
	}
}

func WithNameSpace(namespace string) Option {
	return func(opts *Options) {
		opts.NameSpace = namespace
	}
}

func WithScoreThreshold(threshold float32) Option {
	return func(opts *Options) {
		opts.ScoreThreshold = threshold
	}
}

func WithFilters(filters map[string]any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		maps.Copy(opts.Filters, filters)
	}
}

func WithFilter(key string, value any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		opts.Filters[key] = value
	}
}

func ParseOptions(options ...Option) Options {
	opts := Options{
		Filters: make(map[string]any),
	}
	for _, option := range options {
		option(&opts)
	}
	return opts
}

// ResolveEmbedder returns the per-call embedder when one is set, otherwise
// fallback.
func (o Options) ResolveEmbedder(fallback embeddings.Embedder) (embeddings.Embedder, error) {
	if o.Embedder != nil {
		return o.Embedder, nil
	}
	if fallback == nil {
		return nil, ErrMissingEmbedder
	}
	return fallback, nil
}
