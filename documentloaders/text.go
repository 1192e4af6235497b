package documentloaders

import (
	"context"
	"fmt"
	"os"

	"github.com/sevigo/docchain/schema"
)

// Text loads a whole file as one document.
type Text struct {
	path string
}

var _ Loader = (*Text)(nil)

func NewText(path string) *Text {
	return &Text{path: path}
}

func (l *Text) Load(_ context.Context) ([]schema.Document, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.path, err)
	}
	return []schema.Document{schema.NewDocument(string(data), map[string]any{"source": l.path})}, nil
}
