package chains

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/prompts"
	"github.com/sevigo/docchain/schema"
)

// Answer is a generated answer plus the documents it was grounded on.
type Answer struct {
	Text    string
	Sources []schema.Document
}

// RetrievalQA answers a question from the documents a retriever returns.
// With no documents the question goes to the model unchanged.
type RetrievalQA struct {
	Retriever schema.Retriever
	LLM       llms.Model
	stuff     StuffDocuments
	logger    *slog.Logger
}

func NewRetrievalQA(retriever schema.Retriever, llm llms.Model, opts ...Option) RetrievalQA {
	o := applyOptions(prompts.DefaultRAGPrompt, opts...)
	stuff := NewStuffDocuments(llm, *o.prompt)
	stuff.CallOptions = o.callOptions
	return RetrievalQA{
		Retriever: retriever,
		LLM:       llm,
		stuff:     stuff,
		logger:    o.logger.With("component", "retrieval_qa"),
	}
}

func (c RetrievalQA) Call(ctx context.Context, query string) (string, error) {
	answer, err := c.CallWithSources(ctx, query)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}

func (c RetrievalQA) CallWithSources(ctx context.Context, query string) (Answer, error) {
	if strings.TrimSpace(query) == "" {
		return Answer{}, ErrEmptyQuery
	}

	docs, err := c.Retriever.GetRelevantDocuments(ctx, query)
	if err != nil {
		return Answer{}, fmt.Errorf("document retrieval failed: %w", err)
	}

	if len(docs) == 0 {
		c.logger.DebugContext(ctx, "No documents retrieved, using direct generation")
		text, err := c.LLM.Call(ctx, query, c.stuff.CallOptions...)
		return Answer{Text: text}, err
	}

	c.logger.DebugContext(ctx, "Generating answer", "doc_count", len(docs))
	text, err := c.stuff.Call(ctx, docs, map[string]string{"query": query})
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Sources: docs}, nil
}
