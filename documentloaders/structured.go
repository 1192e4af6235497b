package documentloaders

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/docchain/schema"
)

// Structured loads a YAML or JSON file as one document per top-level entry:
// each key of a mapping or each item of a sequence, rendered back as YAML.
// Scalar documents become a single document.
type Structured struct {
	path string
}

var _ Loader = (*Structured)(nil)

func NewStructured(path string) *Structured {
	return &Structured{path: path}
}

func (l *Structured) Load(_ context.Context) ([]schema.Document, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", l.path, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}
	node := root.Content[0]

	switch node.Kind {
	case yaml.MappingNode:
		docs := make([]schema.Document, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			entry := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{key, value}}
			doc, err := l.document(entry, key.Line)
			if err != nil {
				return nil, err
			}
			doc.Metadata["key"] = key.Value
			docs = append(docs, doc)
		}
		return docs, nil
	case yaml.SequenceNode:
		docs := make([]schema.Document, 0, len(node.Content))
		for i, item := range node.Content {
			doc, err := l.document(item, item.Line)
			if err != nil {
				return nil, err
			}
			doc.Metadata["index"] = i
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		doc, err := l.document(node, node.Line)
		if err != nil {
			return nil, err
		}
		return []schema.Document{doc}, nil
	}
}

func (l *Structured) document(node *yaml.Node, line int) (schema.Document, error) {
	out, err := yaml.Marshal(node)
	if err != nil {
		return schema.Document{}, fmt.Errorf("encoding %s line %d: %w", l.path, line, err)
	}
	return schema.NewDocument(strings.TrimSpace(string(out)), map[string]any{
		"source": l.path,
		"line":   line,
	}), nil
}
