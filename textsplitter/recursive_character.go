package textsplitter

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sevigo/docchain/schema"
)

// StartIndexKey is the metadata key written by WithStartIndex.
const StartIndexKey = "start_index"

// RecursiveCharacter is a text splitter that recursively tries to split text
// using a list of separators. It aims to keep semantically related parts of
// the text together as long as possible: paragraphs first, then lines, then
// words, then single characters.
//
// A RecursiveCharacter holds no mutable state and is safe for concurrent use.
type RecursiveCharacter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	opts         options
	logger       *slog.Logger
}

// NewRecursiveCharacter creates a new RecursiveCharacter text splitter.
// Invalid settings are reported as a *ConfigurationError; nothing is clamped.
func NewRecursiveCharacter(opts ...Option) (*RecursiveCharacter, error) {
	o := options{
		config: Config{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RecursiveCharacter{
		chunkSize:    o.config.ChunkSize,
		chunkOverlap: o.config.ChunkOverlap,
		separators:   o.config.separators(),
		opts:         o,
		logger:       logger.With("component", "textsplitter"),
	}, nil
}

// Config returns a copy of the effective settings.
func (s *RecursiveCharacter) Config() Config {
	return Config{
		ChunkSize:    s.chunkSize,
		ChunkOverlap: s.chunkOverlap,
		Separators:   append([]string(nil), s.separators...),
	}
}

// SplitText splits a single text into chunk contents.
func (s *RecursiveCharacter) SplitText(_ context.Context, text string) ([]string, error) {
	text, err := s.prepare(0, "", text)
	if err != nil {
		return nil, err
	}

	spans := s.split(text)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = sp.text
	}
	return out, nil
}

// SplitDocuments splits every document in order. Each chunk carries a copy of
// its source document's metadata. The first invalid document aborts the call.
func (s *RecursiveCharacter) SplitDocuments(_ context.Context, docs []schema.Document) ([]schema.Document, error) {
	out := make([]schema.Document, 0, len(docs))
	for i, doc := range docs {
		chunks, err := s.splitDocument(i, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, chunks...)
	}
	return out, nil
}

// SplitDocumentsConcurrently is SplitDocuments spread over up to workers
// goroutines. The result order and the error reported (the one with the
// lowest document index) match the sequential call.
func (s *RecursiveCharacter) SplitDocumentsConcurrently(ctx context.Context, docs []schema.Document, workers int) ([]schema.Document, error) {
	if workers <= 1 || len(docs) < 2 {
		return s.SplitDocuments(ctx, docs)
	}

	results := make([][]schema.Document, len(docs))
	errs := make([]error, len(docs))
	semaphore := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, doc schema.Document) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i], errs[i] = s.splitDocument(i, doc)
		}(i, doc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]schema.Document, 0, len(docs))
	for _, chunks := range results {
		out = append(out, chunks...)
	}
	return out, nil
}

func (s *RecursiveCharacter) splitDocument(index int, doc schema.Document) ([]schema.Document, error) {
	text, err := s.prepare(index, doc.Source(), doc.PageContent)
	if err != nil {
		return nil, err
	}

	spans := s.split(text)
	chunks := make([]schema.Document, 0, len(spans))
	for _, sp := range spans {
		metadata := schema.CopyMetadata(doc.Metadata)
		if s.opts.startIndex {
			metadata[StartIndexKey] = utf8.RuneCountInString(text[:sp.start])
		}
		chunks = append(chunks, schema.Document{PageContent: sp.text, Metadata: metadata})
	}
	return chunks, nil
}

func (s *RecursiveCharacter) prepare(index int, source, text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", &InputError{Index: index, Source: source, Reason: "content is not valid UTF-8"}
	}
	if s.opts.normalize {
		text = s.opts.normForm.String(text)
	}
	return text, nil
}

// span is a run of the source text; start is its byte offset in the source.
type span struct {
	text  string
	start int
}

func (s *RecursiveCharacter) split(text string) []span {
	if text == "" {
		return nil
	}

	var spans []span
	if runeLen(text) <= s.chunkSize {
		spans = []span{{text: text}}
	} else {
		spans = s.splitSpan(span{text: text}, s.separators)
	}

	out := spans[:0]
	for _, sp := range spans {
		if strings.TrimSpace(sp.text) != "" {
			out = append(out, sp)
		}
	}
	return out
}

// splitSpan cuts sp on the coarsest separator present in it, merges the
// pieces that fit and recurses with the finer separators into those that
// don't.
func (s *RecursiveCharacter) splitSpan(sp span, separators []string) []span {
	sep, finer, ok := pickSeparator(sp.text, separators)
	if !ok {
		return []span{sp}
	}

	var (
		out     []span
		fitting []span
	)
	for _, piece := range cut(sp, sep) {
		if runeLen(piece.text) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}

		if len(fitting) > 0 {
			out = append(out, s.merge(fitting, sep)...)
			fitting = nil
		}

		if len(finer) == 0 {
			s.logger.Debug("emitting oversized piece",
				"length", runeLen(piece.text),
				"chunk_size", s.chunkSize)
			out = append(out, piece)
			continue
		}
		out = append(out, s.splitSpan(piece, finer)...)
	}

	if len(fitting) > 0 {
		out = append(out, s.merge(fitting, sep)...)
	}
	return out
}

// merge greedily packs pieces into chunks of at most chunkSize code points,
// joined by sep. When a chunk closes, the next one is seeded with the longest
// run of trailing whole pieces that stays within chunkOverlap and still
// leaves room for the piece that caused the close.
func (s *RecursiveCharacter) merge(pieces []span, sep string) []span {
	sepLen := runeLen(sep)

	var (
		out     []span
		window  []span
		lengths []int
		total   int
	)
	for _, piece := range pieces {
		n := runeLen(piece.text)

		if len(window) > 0 && total+sepLen+n > s.chunkSize {
			out = append(out, join(window, sep))

			for len(window) > 0 && (total > s.chunkOverlap || total+sepLen+n > s.chunkSize) {
				total -= lengths[0]
				if len(window) > 1 {
					total -= sepLen
				}
				window, lengths = window[1:], lengths[1:]
			}
		}

		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, piece)
		lengths = append(lengths, n)
		total += n
	}

	if len(window) > 0 {
		out = append(out, join(window, sep))
	}
	return out
}

func pickSeparator(text string, separators []string) (sep string, finer []string, ok bool) {
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			return candidate, separators[i+1:], true
		}
	}
	return "", nil, false
}

// cut splits sp on sep, dropping empty pieces. An empty sep yields one piece
// per code point.
func cut(sp span, sep string) []span {
	var pieces []span
	if sep == "" {
		for i, r := range sp.text {
			pieces = append(pieces, span{text: string(r), start: sp.start + i})
		}
		return pieces
	}

	offset := 0
	for {
		idx := strings.Index(sp.text[offset:], sep)
		if idx < 0 {
			if offset < len(sp.text) {
				pieces = append(pieces, span{text: sp.text[offset:], start: sp.start + offset})
			}
			return pieces
		}
		if idx > 0 {
			pieces = append(pieces, span{text: sp.text[offset : offset+idx], start: sp.start + offset})
		}
		offset += idx + len(sep)
	}
}

func join(pieces []span, sep string) span {
	parts := make([]string, len(pieces))
	for i, p := range pieces {
		parts[i] = p.text
	}
	return span{text: strings.Join(parts, sep), start: pieces[0].start}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
