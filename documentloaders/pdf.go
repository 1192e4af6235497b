package documentloaders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sevigo/docchain/schema"
)

// PDF loads one document per page that has extractable text.
type PDF struct {
	path   string
	logger *slog.Logger
}

var _ Loader = (*PDF)(nil)

func NewPDF(path string, opts ...Option) *PDF {
	o := applyOptions(opts...)
	return &PDF{path: path, logger: o.logger.With("component", "pdf_loader")}
}

func (l *PDF) Load(ctx context.Context) ([]schema.Document, error) {
	f, reader, err := pdf.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", l.path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	docs := make([]schema.Document, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping unreadable page", "path", l.path, "page", i, "error", err)
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		docs = append(docs, schema.NewDocument(content, map[string]any{
			"source":      l.path,
			"page":        i,
			"total_pages": total,
		}))
	}

	l.logger.DebugContext(ctx, "PDF loaded", "path", l.path, "pages", total, "documents", len(docs))
	return docs, nil
}
