package ollama

import (
	"log/slog"
	"net/http"
	"net/url"
)

// options holds configuration settings for the Ollama client.
type options struct {
	model           string
	embeddingModel  string
	ollamaServerURL *url.URL
	httpClient      *http.Client
	temperature     float64
	autoPull        bool
	logger          *slog.Logger
}

// Option is a function type for configuring Ollama client options.
type Option func(*options)

func applyOptions(opts ...Option) options {
	o := options{
		logger:   slog.Default(),
		autoPull: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.embeddingModel == "" {
		o.embeddingModel = o.model
	}
	return o
}

func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithEmbeddingModel uses a dedicated model for embeddings; the chat model is
// used otherwise.
func WithEmbeddingModel(model string) Option {
	return func(opts *options) {
		opts.embeddingModel = model
	}
}

// WithServerURL overrides OLLAMA_HOST.
func WithServerURL(rawURL string) Option {
	return func(opts *options) {
		if parsedURL, err := url.Parse(rawURL); err == nil {
			opts.ollamaServerURL = parsedURL
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

func WithTemperature(temperature float64) Option {
	return func(opts *options) {
		opts.temperature = temperature
	}
}

// WithAutoPull controls whether missing models are pulled before embedding.
func WithAutoPull(enabled bool) Option {
	return func(opts *options) {
		opts.autoPull = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}
