package fake

import (
	"context"
	"sync"

	"github.com/sevigo/docchain/schema"
)

// Retriever returns canned documents and remembers the queries it was asked.
type Retriever struct {
	DocsToReturn []schema.Document
	ErrToReturn  error

	mu      sync.Mutex
	queries []string
}

func NewRetriever(docs ...schema.Document) *Retriever {
	return &Retriever{DocsToReturn: docs}
}

func (r *Retriever) GetRelevantDocuments(_ context.Context, query string) ([]schema.Document, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	return r.DocsToReturn, r.ErrToReturn
}

// Queries returns every query seen so far, oldest first.
func (r *Retriever) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}
