package chains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/outputparsers"
	"github.com/sevigo/docchain/prompts"
	"github.com/sevigo/docchain/schema"
)

// ValidatingRetrievalQA implements a RAG chain that validates the relevance of retrieved
// context before generation to reduce hallucination.
type ValidatingRetrievalQA struct {
	Retriever    schema.Retriever
	GeneratorLLM llms.Model
	ValidatorLLM llms.Model
	stuff        StuffDocuments
	validation   *LLMChain[bool]
	logger       *slog.Logger
}

// NewValidatingRetrievalQA creates a new ValidatingRetrievalQA chain. It requires a retriever,
// a generator LLM, and the WithValidator() option.
func NewValidatingRetrievalQA(retriever schema.Retriever, generator llms.Model, opts ...Option) (ValidatingRetrievalQA, error) {
	if retriever == nil {
		return ValidatingRetrievalQA{}, ErrNilRetriever
	}
	if generator == nil {
		return ValidatingRetrievalQA{}, ErrNilModel
	}

	o := applyOptions(prompts.DefaultRAGPrompt, opts...)
	if o.validator == nil {
		return ValidatingRetrievalQA{}, errors.New("validator LLM is required, use WithValidator() option")
	}

	stuff := NewStuffDocuments(generator, *o.prompt)
	stuff.CallOptions = o.callOptions

	return ValidatingRetrievalQA{
		Retriever:    retriever,
		GeneratorLLM: generator,
		ValidatorLLM: o.validator,
		stuff:        stuff,
		validation:   NewLLMChain[bool](o.validator, prompts.DefaultValidationPrompt, outputparsers.Boolean{}),
		logger:       o.logger.With("component", "validating_retrieval_qa"),
	}, nil
}

func (c ValidatingRetrievalQA) Call(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	c.logger.DebugContext(ctx, "Starting document retrieval", "query", query)
	docs, err := c.Retriever.GetRelevantDocuments(ctx, query)
	if err != nil {
		c.logger.ErrorContext(ctx, "Document retrieval failed", "error", err)
		return "", fmt.Errorf("document retrieval failed: %w", err)
	}

	if len(docs) == 0 {
		c.logger.InfoContext(ctx, "No documents retrieved, using direct generation")
		return c.GeneratorLLM.Call(ctx, query, c.stuff.CallOptions...)
	}

	relevant, err := c.validation.Run(ctx, map[string]string{
		"context": c.stuff.FormatContext(docs),
		"query":   query,
	})
	switch {
	case errors.Is(err, outputparsers.ErrParse):
		c.logger.WarnContext(ctx, "Unclear validation answer, treating context as irrelevant", "error", err)
	case err != nil:
		return "", fmt.Errorf("context validation failed: %w", err)
	}

	if relevant {
		c.logger.InfoContext(ctx, "Context validated as relevant, generating RAG answer")
		return c.stuff.Call(ctx, docs, map[string]string{"query": query})
	}

	c.logger.InfoContext(ctx, "Context validated as irrelevant, using direct generation")
	return c.GeneratorLLM.Call(ctx, query, c.stuff.CallOptions...)
}
