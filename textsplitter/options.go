package textsplitter

import (
	"log/slog"
	"slices"

	"golang.org/x/text/unicode/norm"
)

type options struct {
	config     Config
	normalize  bool
	normForm   norm.Form
	startIndex bool
	logger     *slog.Logger
}

// Option is a function type for configuring the splitter.
type Option func(*options)

// WithChunkSize sets the maximum chunk length in code points.
func WithChunkSize(size int) Option {
	return func(o *options) {
		o.config.ChunkSize = size
	}
}

// WithChunkOverlap sets how many trailing code points of a closed chunk may be
// carried into the next one.
func WithChunkOverlap(overlap int) Option {
	return func(o *options) {
		o.config.ChunkOverlap = overlap
	}
}

// WithSeparators replaces the separator hierarchy. The last entry must be "".
func WithSeparators(separators ...string) Option {
	return func(o *options) {
		o.config.Separators = slices.Clone(separators)
	}
}

// WithConfig applies every field of cfg at once.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = Config{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
			Separators:   slices.Clone(cfg.Separators),
		}
	}
}

// WithNormalization normalizes content to form before it is split, so that
// composed and decomposed spellings measure the same.
func WithNormalization(form norm.Form) Option {
	return func(o *options) {
		o.normalize = true
		o.normForm = form
	}
}

// WithStartIndex records each chunk's code point offset in its source under
// the "start_index" metadata key.
func WithStartIndex(enabled bool) Option {
	return func(o *options) {
		o.startIndex = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
