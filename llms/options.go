package llms

import "context"

type CallOption func(*CallOptions)

type CallOptions struct {
	Model         string                                        `json:"model"`
	Temperature   float64                                       `json:"temperature"`
	MaxTokens     int                                           `json:"max_tokens"`
	StopWords     []string                                      `json:"stop_words,omitempty"`
	Metadata      map[string]any                                `json:"metadata,omitempty"`
	StreamingFunc func(ctx context.Context, chunk []byte) error `json:"-"`
}

// ParseCallOptions applies options over the zero value.
func ParseCallOptions(options ...CallOption) CallOptions {
	var opts CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// WithModel overrides the adapter's default model for one call.
func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithStopWords makes the model stop generating before any of words.
func WithStopWords(words ...string) CallOption {
	return func(o *CallOptions) {
		o.StopWords = append(o.StopWords, words...)
	}
}

func WithMetadata(metadata map[string]any) CallOption {
	return func(o *CallOptions) {
		o.Metadata = metadata
	}
}

// WithStreamingFunc specifies the streaming function to use.
func WithStreamingFunc(streamingFunc func(ctx context.Context, chunk []byte) error) CallOption {
	return func(o *CallOptions) {
		o.StreamingFunc = streamingFunc
	}
}
