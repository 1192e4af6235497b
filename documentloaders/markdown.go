package documentloaders

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/sevigo/docchain/schema"
)

// Markdown loads a Markdown file as plain text: markup is dropped and each
// top-level block becomes a paragraph.
type Markdown struct {
	path     string
	markdown goldmark.Markdown
}

var _ Loader = (*Markdown)(nil)

func NewMarkdown(path string) *Markdown {
	return &Markdown{
		path:     path,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (l *Markdown) Load(_ context.Context) ([]schema.Document, error) {
	source, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.path, err)
	}

	content, title := l.plainText(source)
	metadata := map[string]any{"source": l.path}
	if title != "" {
		metadata["title"] = title
	}
	return []schema.Document{schema.NewDocument(content, metadata)}, nil
}

func (l *Markdown) plainText(source []byte) (content, title string) {
	root := l.markdown.Parser().Parse(text.NewReader(source))

	var paragraphs []string
	for block := root.FirstChild(); block != nil; block = block.NextSibling() {
		blockText := strings.TrimSpace(nodeText(block, source))
		if blockText == "" {
			continue
		}
		if _, ok := block.(*ast.Heading); ok && title == "" {
			title = blockText
		}
		paragraphs = append(paragraphs, blockText)
	}
	return strings.Join(paragraphs, "\n\n"), title
}

// nodeText renders the text below n. Code blocks keep their lines verbatim;
// nested blocks such as list items start on a new line.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node != n && node.Type() == ast.TypeBlock && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}

		switch v := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
