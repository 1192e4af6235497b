package embeddings

import "log/slog"

type options struct {
	stripNewLines bool
	batchSize     int
	concurrency   int
	logger        *slog.Logger
}

type Option func(*options)

func WithBatchSize(size int) Option {
	return func(opts *options) {
		opts.batchSize = size
	}
}

// WithConcurrency caps how many batches are in flight at once.
func WithConcurrency(n int) Option {
	return func(opts *options) {
		opts.concurrency = n
	}
}

func WithStripNewLines(strip bool) Option {
	return func(opts *options) {
		opts.stripNewLines = strip
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}
