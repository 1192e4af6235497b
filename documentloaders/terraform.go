package documentloaders

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/sevigo/docchain/schema"
)

// Terraform loads an HCL file as one document per top-level block. Each
// document carries the block type, its labels and its line range. A file
// that cannot be parsed at all is returned whole with "parse_error" set.
type Terraform struct {
	path   string
	logger *slog.Logger
}

var _ Loader = (*Terraform)(nil)

func NewTerraform(path string, opts ...Option) *Terraform {
	o := applyOptions(opts...)
	return &Terraform{
		path:   path,
		logger: o.logger.With("component", "terraform_loader"),
	}
}

func (l *Terraform) Load(ctx context.Context) ([]schema.Document, error) {
	src, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.path, err)
	}
	if strings.TrimSpace(string(src)) == "" {
		return nil, nil
	}

	file, diags := hclsyntax.ParseConfig(src, l.path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		l.logger.WarnContext(ctx, "Parse errors in HCL file", "path", l.path, "errors", diags.Error())
	}
	body, ok := bodyOf(file)
	if !ok {
		return []schema.Document{l.wholeFile(src)}, nil
	}

	docs := make([]schema.Document, 0, len(body.Blocks))
	for _, block := range body.Blocks {
		rng := block.Range()
		if rng.Start.Byte < 0 || rng.End.Byte > len(src) || rng.Start.Byte > rng.End.Byte {
			l.logger.WarnContext(ctx, "Skipping HCL block with invalid range", "path", l.path, "block_type", block.Type)
			continue
		}

		metadata := map[string]any{
			"source":     l.path,
			"block_type": block.Type,
			"labels":     append([]string{}, block.Labels...),
			"name":       strings.Join(append([]string{block.Type}, block.Labels...), "."),
			"line_start": rng.Start.Line,
			"line_end":   rng.End.Line,
		}
		if block.Type == "module" {
			if attr, ok := block.Body.Attributes["source"]; ok {
				if v, ok := literalValue(attr); ok {
					metadata["module_source"] = v
				}
			}
		}
		if diags.HasErrors() {
			metadata["parse_error"] = true
		}
		docs = append(docs, schema.NewDocument(string(src[rng.Start.Byte:rng.End.Byte]), metadata))
	}

	if len(docs) == 0 && diags.HasErrors() {
		return []schema.Document{l.wholeFile(src)}, nil
	}
	l.logger.DebugContext(ctx, "HCL file loaded", "path", l.path, "blocks", len(docs))
	return docs, nil
}

func (l *Terraform) wholeFile(src []byte) schema.Document {
	return schema.NewDocument(string(src), map[string]any{
		"source":      l.path,
		"block_type":  "file",
		"parse_error": true,
	})
}

func bodyOf(file *hcl.File) (*hclsyntax.Body, bool) {
	if file == nil {
		return nil, false
	}
	body, ok := file.Body.(*hclsyntax.Body)
	return body, ok
}

// literalValue renders an attribute that evaluates without variables.
func literalValue(attr *hclsyntax.Attribute) (string, bool) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || !val.IsKnown() {
		return "", false
	}

	switch val.Type() {
	case cty.String:
		return val.AsString(), true
	case cty.Number:
		var num float64
		if err := gocty.FromCtyValue(val, &num); err != nil {
			return "", false
		}
		return strconv.FormatFloat(num, 'f', -1, 64), true
	case cty.Bool:
		return strconv.FormatBool(val.True()), true
	default:
		return "", false
	}
}
