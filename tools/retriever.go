package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/sevigo/docchain/schema"
)

// Retriever exposes a schema.Retriever to agents. Results are joined with a
// blank line.
type Retriever struct {
	retriever   schema.Retriever
	name        string
	description string
}

var _ Tool = (*Retriever)(nil)

func NewRetriever(retriever schema.Retriever, name, description string) *Retriever {
	if name == "" {
		name = "search_documents"
	}
	if description == "" {
		description = "Searches the indexed documents. Input is a search query."
	}
	return &Retriever{retriever: retriever, name: name, description: description}
}

func (t *Retriever) Name() string        { return t.name }
func (t *Retriever) Description() string { return t.description }

func (t *Retriever) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "", ErrEmptyInput
	}
	docs, err := t.retriever.GetRelevantDocuments(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	if len(docs) == 0 {
		return "No relevant documents found.", nil
	}
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.PageContent
	}
	return strings.Join(contents, "\n\n"), nil
}
