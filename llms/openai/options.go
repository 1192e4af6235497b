package openai

import (
	"log/slog"
	"net/http"
)

const (
	DefaultModel          = "gpt-3.5-turbo"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 1000
)

type options struct {
	apiKey         string
	baseURL        string
	organization   string
	model          string
	embeddingModel string
	temperature    float64
	maxTokens      int
	httpClient     *http.Client
	logger         *slog.Logger
}

// Option is a function type for configuring the client.
type Option func(*options)

func applyOptions(opts ...Option) options {
	o := options{
		model:          DefaultModel,
		embeddingModel: DefaultEmbeddingModel,
		temperature:    DefaultTemperature,
		maxTokens:      DefaultMaxTokens,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAPIKey sets the API key. OPENAI_API_KEY is used when unset.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI compatible endpoint,
// for example "http://localhost:8080/v1".
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

func WithOrganization(org string) Option {
	return func(o *options) {
		o.organization = org
	}
}

func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

func WithEmbeddingModel(model string) Option {
	return func(o *options) {
		o.embeddingModel = model
	}
}

// WithTemperature sets the default sampling temperature; call options win.
func WithTemperature(temperature float64) Option {
	return func(o *options) {
		o.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *options) {
		o.maxTokens = maxTokens
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
