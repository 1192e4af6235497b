package textsplitter_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/sevigo/docchain/schema"
	"github.com/sevigo/docchain/textsplitter"
)

func newSplitter(t *testing.T, opts ...textsplitter.Option) *textsplitter.RecursiveCharacter {
	t.Helper()
	s, err := textsplitter.NewRecursiveCharacter(opts...)
	require.NoError(t, err)
	return s
}

func TestRecursiveCharacter_SplitText(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		opts     []textsplitter.Option
		expected []string
	}{
		{
			name: "character fallback with overlap",
			text: "AAAAABBBBBCCCCC",
			opts: []textsplitter.Option{
				textsplitter.WithChunkSize(5),
				textsplitter.WithChunkOverlap(2),
				textsplitter.WithSeparators(""),
			},
			expected: []string{"AAAAA", "AABBB", "BBBBC", "BCCCC", "CCC"},
		},
		{
			name:     "empty text",
			text:     "",
			opts:     []textsplitter.Option{textsplitter.WithChunkSize(5), textsplitter.WithChunkOverlap(0)},
			expected: []string{},
		},
		{
			name:     "short text is a single chunk",
			text:     "hello world",
			opts:     []textsplitter.Option{textsplitter.WithChunkSize(50), textsplitter.WithChunkOverlap(10)},
			expected: []string{"hello world"},
		},
		{
			name:     "paragraphs",
			text:     "aaa bbb\n\nccc ddd",
			opts:     []textsplitter.Option{textsplitter.WithChunkSize(7), textsplitter.WithChunkOverlap(0)},
			expected: []string{"aaa bbb", "ccc ddd"},
		},
		{
			name:     "words with overlap",
			text:     "one two three four five",
			opts:     []textsplitter.Option{textsplitter.WithChunkSize(10), textsplitter.WithChunkOverlap(4)},
			expected: []string{"one two", "two three", "four five"},
		},
		{
			name:     "long word falls through to characters",
			text:     "hi\n\nabcdefghij",
			opts:     []textsplitter.Option{textsplitter.WithChunkSize(5), textsplitter.WithChunkOverlap(0)},
			expected: []string{"hi", "abcde", "fghij"},
		},
		{
			name:     "multi-byte characters are counted once",
			text:     "日本語テキスト",
			opts:     []textsplitter.Option{textsplitter.WithChunkSize(3), textsplitter.WithChunkOverlap(1)},
			expected: []string{"日本語", "語テキ", "キスト"},
		},
		{
			name:     "whitespace-only text yields nothing",
			text:     "   \n\n   ",
			opts:     []textsplitter.Option{textsplitter.WithChunkSize(4), textsplitter.WithChunkOverlap(0)},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSplitter(t, tt.opts...)
			chunks, err := s.SplitText(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, chunks)
		})
	}
}

func TestRecursiveCharacter_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		opts  []textsplitter.Option
		field string
	}{
		{"zero chunk size", []textsplitter.Option{textsplitter.WithChunkSize(0)}, "chunk_size"},
		{"negative overlap", []textsplitter.Option{textsplitter.WithChunkOverlap(-1)}, "chunk_overlap"},
		{
			"overlap equal to size",
			[]textsplitter.Option{textsplitter.WithChunkSize(5), textsplitter.WithChunkOverlap(5)},
			"chunk_overlap",
		},
		{
			"overlap larger than size",
			[]textsplitter.Option{textsplitter.WithChunkSize(5), textsplitter.WithChunkOverlap(9)},
			"chunk_overlap",
		},
		{
			"separators without character fallback",
			[]textsplitter.Option{textsplitter.WithSeparators("\n\n", "\n")},
			"separators",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := textsplitter.NewRecursiveCharacter(tt.opts...)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, textsplitter.ErrInvalidConfig)

			var cfgErr *textsplitter.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestSplit_InvalidInputFailsFast(t *testing.T) {
	docs := []schema.Document{
		schema.NewDocument("fine text", map[string]any{"source": "a"}),
		schema.NewDocument("bad \xff bytes", map[string]any{"source": "b"}),
		schema.NewDocument("never reached", nil),
	}

	chunks, err := textsplitter.Split(docs, textsplitter.Config{ChunkSize: 10, ChunkOverlap: 2})
	require.Error(t, err)
	assert.Nil(t, chunks)
	assert.ErrorIs(t, err, textsplitter.ErrInvalidInput)

	var inErr *textsplitter.InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, 1, inErr.Index)
	assert.Equal(t, "b", inErr.Source)
	assert.Contains(t, inErr.Error(), "document 1 (b)")
}

func TestSplit_ConfigError(t *testing.T) {
	_, err := textsplitter.Split(nil, textsplitter.Config{ChunkSize: 5, ChunkOverlap: 5})
	assert.ErrorIs(t, err, textsplitter.ErrInvalidConfig)
}

func TestSplitDocuments_MetadataAndOrder(t *testing.T) {
	s := newSplitter(t,
		textsplitter.WithChunkSize(10),
		textsplitter.WithChunkOverlap(4),
		textsplitter.WithStartIndex(true),
	)

	srcMeta := map[string]any{"source": "first.txt", "page": 1}
	docs := []schema.Document{
		schema.NewDocument("one two three four five", srcMeta),
		schema.NewDocument("", map[string]any{"source": "empty.txt"}),
		schema.NewDocument("tail", map[string]any{"source": "second.txt"}),
	}

	chunks, err := s.SplitDocuments(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	assert.Equal(t, "one two", chunks[0].PageContent)
	assert.Equal(t, "two three", chunks[1].PageContent)
	assert.Equal(t, "four five", chunks[2].PageContent)
	assert.Equal(t, "tail", chunks[3].PageContent)

	assert.Equal(t, 0, chunks[0].Metadata[textsplitter.StartIndexKey])
	assert.Equal(t, 4, chunks[1].Metadata[textsplitter.StartIndexKey])
	assert.Equal(t, 14, chunks[2].Metadata[textsplitter.StartIndexKey])
	assert.Equal(t, "second.txt", chunks[3].Metadata["source"])

	// chunk metadata is a copy, the input stays untouched
	chunks[0].Metadata["source"] = "changed"
	assert.Equal(t, "first.txt", srcMeta["source"])
	assert.Equal(t, "first.txt", chunks[1].Metadata["source"])
	_, leaked := srcMeta[textsplitter.StartIndexKey]
	assert.False(t, leaked)
}

func TestSplitDocuments_WithoutStartIndexCopiesMetadataVerbatim(t *testing.T) {
	s := newSplitter(t, textsplitter.WithChunkSize(5), textsplitter.WithChunkOverlap(1))
	chunks, err := s.SplitDocuments(context.Background(), []schema.Document{
		schema.NewDocument("abcdefghij", map[string]any{"source": "x"}),
	})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, map[string]any{"source": "x"}, c.Metadata)
	}
}

func TestSplitDocuments_Properties(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20) +
		"\n\n" + strings.Repeat("Lorem ipsum dolor sit amet.\n", 15) +
		"\n\nsupercalifragilisticexpialidocious-and-then-some-more-characters"

	configs := []textsplitter.Config{
		{ChunkSize: 40, ChunkOverlap: 10},
		{ChunkSize: 100, ChunkOverlap: 0},
		{ChunkSize: 17, ChunkOverlap: 16},
		{ChunkSize: 1, ChunkOverlap: 0},
	}

	for _, cfg := range configs {
		s := newSplitter(t, textsplitter.WithConfig(cfg), textsplitter.WithStartIndex(true))
		chunks, err := s.SplitDocuments(context.Background(), []schema.Document{schema.NewDocument(text, nil)})
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		runes := []rune(text)
		prevStart, prevEnd := -1, 0
		for _, c := range chunks {
			n := utf8.RuneCountInString(c.PageContent)
			assert.LessOrEqual(t, n, cfg.ChunkSize, "size bound")

			start, ok := c.Metadata[textsplitter.StartIndexKey].(int)
			require.True(t, ok)
			assert.Greater(t, start, prevStart, "order")

			if start < prevEnd {
				assert.LessOrEqual(t, prevEnd-start, cfg.ChunkOverlap, "overlap bound")
			}

			// chunks are taken verbatim from the source
			assert.Equal(t, string(runes[start:start+n]), c.PageContent)
			prevStart, prevEnd = start, start+n
		}

		// every non-whitespace character survives
		var joined strings.Builder
		for _, c := range chunks {
			joined.WriteString(c.PageContent)
		}
		for _, word := range strings.Fields(text) {
			if cfg.ChunkSize >= len(word) {
				assert.Contains(t, joined.String(), word)
			}
		}
	}
}

func TestSplitDocumentsConcurrently(t *testing.T) {
	s := newSplitter(t, textsplitter.WithChunkSize(10), textsplitter.WithChunkOverlap(2))

	var docs []schema.Document
	for i := range 20 {
		docs = append(docs, schema.NewDocument(strings.Repeat(string(rune('a'+i)), 25), map[string]any{"n": i}))
	}

	want, err := s.SplitDocuments(context.Background(), docs)
	require.NoError(t, err)

	got, err := s.SplitDocumentsConcurrently(context.Background(), docs, 4)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("lowest index error wins", func(t *testing.T) {
		bad := append([]schema.Document(nil), docs...)
		bad[3] = schema.NewDocument("\xfe", nil)
		bad[12] = schema.NewDocument("\xff", nil)

		_, err := s.SplitDocumentsConcurrently(context.Background(), bad, 4)
		var inErr *textsplitter.InputError
		require.ErrorAs(t, err, &inErr)
		assert.Equal(t, 3, inErr.Index)
	})
}

func TestWithNormalization(t *testing.T) {
	decomposed := "e\u0301e\u0301e\u0301"

	plain := newSplitter(t, textsplitter.WithChunkSize(3), textsplitter.WithChunkOverlap(0))
	chunks, err := plain.SplitText(context.Background(), decomposed)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	nfc := newSplitter(t,
		textsplitter.WithChunkSize(3),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithNormalization(norm.NFC),
	)
	chunks, err = nfc.SplitText(context.Background(), decomposed)
	require.NoError(t, err)
	assert.Equal(t, []string{"\u00e9\u00e9\u00e9"}, chunks)
}

func TestConfigDefaults(t *testing.T) {
	s := newSplitter(t, textsplitter.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	assert.Equal(t, textsplitter.DefaultConfig(), s.Config())
}
