package documentloaders

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/yoheimuta/go-protoparser/v4"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/sevigo/docchain/schema"
)

// Proto loads a Protocol Buffers file as one document per message, enum and
// service. Nested messages and enums get their own documents with a dotted
// name such as "Outer.Inner".
type Proto struct {
	path   string
	logger *slog.Logger
}

var _ Loader = (*Proto)(nil)

func NewProto(path string, opts ...Option) *Proto {
	o := applyOptions(opts...)
	return &Proto{
		path:   path,
		logger: o.logger.With("component", "proto_loader"),
	}
}

func (l *Proto) Load(ctx context.Context) ([]schema.Document, error) {
	src, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.path, err)
	}

	parsed, err := protoparser.Parse(bytes.NewReader(src),
		protoparser.WithDebug(false),
		protoparser.WithPermissive(false),
		protoparser.WithFilename(l.path),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", l.path, err)
	}

	b := protoBuilder{path: l.path, lines: strings.Split(string(src), "\n")}
	for _, element := range parsed.ProtoBody {
		if pkg, ok := element.(*parser.Package); ok {
			b.pkg = pkg.Name
		}
	}
	for _, element := range parsed.ProtoBody {
		switch v := element.(type) {
		case *parser.Message:
			b.message(v, "")
		case *parser.Enum:
			b.enum(v, "")
		case *parser.Service:
			b.add("service", v.ServiceName, v.Meta.Pos.Line, v.Meta.LastPos.Line)
		}
	}

	l.logger.DebugContext(ctx, "Proto file loaded", "path", l.path, "definitions", len(b.docs))
	return b.docs, nil
}

type protoBuilder struct {
	path  string
	pkg   string
	lines []string
	docs  []schema.Document
}

func (b *protoBuilder) message(msg *parser.Message, parent string) {
	name := qualify(parent, msg.MessageName)
	b.add("message", name, msg.Meta.Pos.Line, msg.Meta.LastPos.Line)
	for _, element := range msg.MessageBody {
		switch nested := element.(type) {
		case *parser.Message:
			b.message(nested, name)
		case *parser.Enum:
			b.enum(nested, name)
		}
	}
}

func (b *protoBuilder) enum(enum *parser.Enum, parent string) {
	b.add("enum", qualify(parent, enum.EnumName), enum.Meta.Pos.Line, enum.Meta.LastPos.Line)
}

func (b *protoBuilder) add(blockType, name string, start, end int) {
	metadata := map[string]any{
		"source":     b.path,
		"block_type": blockType,
		"name":       name,
		"line_start": start,
		"line_end":   end,
	}
	if b.pkg != "" {
		metadata["package"] = b.pkg
	}
	b.docs = append(b.docs, schema.NewDocument(b.excerpt(start, end), metadata))
}

// excerpt returns the 1-based inclusive line range, clamped to the file.
func (b *protoBuilder) excerpt(start, end int) string {
	start = max(start, 1)
	end = min(end, len(b.lines))
	if start > end {
		return ""
	}
	return strings.Join(b.lines[start-1:end], "\n")
}

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
