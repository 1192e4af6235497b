package vectorstores

import (
	"context"

	"github.com/sevigo/docchain/schema"
)

// retrieverImpl implements the schema.Retriever interface.
type retrieverImpl struct {
	vectorStore VectorStore
	numDocs     int
	options     []Option
}

var _ schema.Retriever = retrieverImpl{}

// GetRelevantDocuments retrieves documents from the vector store.
func (r retrieverImpl) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return r.vectorStore.SimilaritySearch(ctx, query, r.numDocs, r.options...)
}

// ToRetriever creates a retriever returning the numDocs best matches of the
// store. options are applied to every search.
func ToRetriever(vectorStore VectorStore, numDocs int, options ...Option) schema.Retriever {
	return retrieverImpl{
		vectorStore: vectorStore,
		numDocs:     numDocs,
		options:     options,
	}
}
