// Package chains composes retrievers, prompts, models and parsers into
// question answering and conversation pipelines.
package chains

import (
	"errors"
	"log/slog"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/prompts"
)

var (
	ErrEmptyQuery   = errors.New("query cannot be empty")
	ErrNilRetriever = errors.New("retriever cannot be nil")
	ErrNilModel     = errors.New("model cannot be nil")
)

type options struct {
	logger      *slog.Logger
	prompt      *prompts.PromptTemplate
	validator   llms.Model
	callOptions []llms.CallOption
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPrompt replaces the chain's default prompt.
func WithPrompt(prompt prompts.PromptTemplate) Option {
	return func(o *options) {
		o.prompt = &prompt
	}
}

// WithValidator sets the model judging context relevance in
// ValidatingRetrievalQA.
func WithValidator(llm llms.Model) Option {
	return func(o *options) {
		o.validator = llm
	}
}

// WithCallOptions are passed to every model call of the chain.
func WithCallOptions(callOptions ...llms.CallOption) Option {
	return func(o *options) {
		o.callOptions = append(o.callOptions, callOptions...)
	}
}

func applyOptions(defaultPrompt prompts.PromptTemplate, opts ...Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.prompt == nil {
		o.prompt = &defaultPrompt
	}
	return o
}
