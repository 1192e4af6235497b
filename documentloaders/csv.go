package documentloaders

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sevigo/docchain/schema"
)

var ErrNoHeader = errors.New("csv: missing header row")

// CSV loads one document per data row. The header names the columns and each
// row is rendered as "column: value" lines.
type CSV struct {
	path  string
	comma rune
}

var _ Loader = (*CSV)(nil)

func NewCSV(path string, opts ...Option) *CSV {
	o := applyOptions(opts...)
	return &CSV{path: path, comma: o.comma}
}

func (l *CSV) Load(ctx context.Context) ([]schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", l.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = l.comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", l.path, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.path, err)
	}

	var docs []schema.Document
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s row %d: %w", l.path, row, err)
		}

		lines := make([]string, 0, len(record))
		for i, value := range record {
			column := fmt.Sprintf("column_%d", i+1)
			if i < len(header) {
				column = strings.TrimSpace(header[i])
			}
			lines = append(lines, column+": "+strings.TrimSpace(value))
		}
		docs = append(docs, schema.NewDocument(strings.Join(lines, "\n"), map[string]any{
			"source": l.path,
			"row":    row,
		}))
	}
	return docs, nil
}
