package qdrant

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/docchain/embeddings"
)

const (
	defaultContentKey = "page_content"
	defaultHost       = "localhost"
	defaultPort       = 6334
)

var ErrInvalidOptions = errors.New("qdrant: invalid options provided")

type options struct {
	collectionName string
	host           string
	port           int
	embedder       embeddings.Embedder
	apiKey         string
	contentKey     string
	logger         *slog.Logger
	useTLS         bool
	retryAttempts  int
	retryDelay     time.Duration
	batchSize      int
	maxConcurrency int
}

type Option func(*options)

func WithCollectionName(name string) Option {
	return func(opts *options) {
		opts.collectionName = strings.TrimSpace(name)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithHost sets the gRPC host. Zero port keeps the default 6334.
func WithHost(host string, port int) Option {
	return func(opts *options) {
		if host != "" {
			opts.host = host
		}
		if port > 0 {
			opts.port = port
		}
	}
}

func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(opts *options) {
		opts.embedder = embedder
	}
}

func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithContentKey sets the payload key holding the document text.
func WithContentKey(contentKey string) Option {
	return func(opts *options) {
		if contentKey != "" {
			opts.contentKey = strings.TrimSpace(contentKey)
		}
	}
}

func WithTLS(useTLS bool) Option {
	return func(opts *options) {
		opts.useTLS = useTLS
	}
}

// WithRetry sets how often a failed upsert batch is retried and the initial
// backoff between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(opts *options) {
		if attempts >= 0 {
			opts.retryAttempts = attempts
		}
		if delay > 0 {
			opts.retryDelay = delay
		}
	}
}

func WithBatchSize(size int) Option {
	return func(opts *options) {
		if size > 0 {
			opts.batchSize = size
		}
	}
}

func WithMaxConcurrency(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.maxConcurrency = n
		}
	}
}

func parseOptions(opts ...Option) (options, error) {
	o := options{
		host:           defaultHost,
		port:           defaultPort,
		contentKey:     defaultContentKey,
		logger:         slog.Default(),
		retryAttempts:  DefaultRetryAttempts,
		retryDelay:     DefaultRetryDelay,
		batchSize:      DefaultBatchSize,
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.collectionName == "" {
		return o, fmt.Errorf("%w: collection name is required", ErrInvalidOptions)
	}
	if o.batchSize > MaxBatchSize {
		return o, fmt.Errorf("%w: batch size %d exceeds %d", ErrInvalidOptions, o.batchSize, MaxBatchSize)
	}
	return o, nil
}

// String describes the options without secrets.
func (opts options) String() string {
	parts := []string{
		"collection=" + opts.collectionName,
		fmt.Sprintf("host=%s:%d", opts.host, opts.port),
		"content_key=" + opts.contentKey,
	}
	if opts.apiKey != "" {
		parts = append(parts, "has_api_key=true")
	}
	if opts.useTLS {
		parts = append(parts, "tls=true")
	}
	return "QdrantOptions{" + strings.Join(parts, ", ") + "}"
}
