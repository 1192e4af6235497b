// Package documentloaders provides interfaces and implementations for loading
// documents from various sources into a format suitable for RAG pipelines.
package documentloaders

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/docchain/schema"
	"github.com/sevigo/docchain/textsplitter"
)

// Loader defines the interface for loading documents from various sources.
// Every loader sets the "source" metadata key.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

// LoadAndSplit loads documents and splits them into chunks.
func LoadAndSplit(ctx context.Context, loader Loader, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := splitter.SplitDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("splitting loaded documents: %w", err)
	}
	return chunks, nil
}

// Static returns a fixed set of documents.
type Static struct {
	docs []schema.Document
}

var _ Loader = (*Static)(nil)

func NewStatic(docs ...schema.Document) *Static {
	return &Static{docs: docs}
}

// Load returns copies of the documents so callers cannot mutate the originals.
func (l *Static) Load(_ context.Context) ([]schema.Document, error) {
	out := make([]schema.Document, len(l.docs))
	for i, doc := range l.docs {
		out[i] = doc.Clone()
	}
	return out, nil
}

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	selector   string
	userAgent  string
	registry   *Registry
	comma      rune
}

// Option configures the loaders that accept options. Options irrelevant to a
// loader are ignored by it.
type Option func(*options)

// WithLogger sets a custom logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHTTPClient sets the client used by Web.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithSelector limits Web and HTML to the text of the elements matching a
// CSS selector.
func WithSelector(selector string) Option {
	return func(o *options) {
		if selector != "" {
			o.selector = selector
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithRegistry sets the file loader registry used by Git and RemoteGit.
func WithRegistry(registry *Registry) Option {
	return func(o *options) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// WithComma sets the CSV field delimiter.
func WithComma(comma rune) Option {
	return func(o *options) {
		o.comma = comma
	}
}

func applyOptions(opts ...Option) options {
	o := options{
		logger:     slog.Default(),
		httpClient: http.DefaultClient,
		selector:   "body",
		userAgent:  "docchain/1.0",
		comma:      ',',
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
