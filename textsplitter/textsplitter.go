// Package textsplitter turns documents into ordered, size-bounded chunks for
// embedding and retrieval.
package textsplitter

import (
	"context"

	"github.com/sevigo/docchain/schema"
)

type TextSplitter interface {
	SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error)
}

var _ TextSplitter = (*RecursiveCharacter)(nil)

// Split is the one-shot form of RecursiveCharacter.SplitDocuments: it validates
// cfg, splits every document in order and returns the concatenated chunks.
func Split(docs []schema.Document, cfg Config) ([]schema.Document, error) {
	s, err := NewRecursiveCharacter(WithConfig(cfg))
	if err != nil {
		return nil, err
	}
	return s.SplitDocuments(context.Background(), docs)
}
