package textsplitter

import "slices"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators go from the coarsest boundary (paragraph) to the finest
// (single character).
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Config is the value form of the splitter settings. Lengths are measured in
// Unicode code points.
type Config struct {
	ChunkSize    int      `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap" json:"chunk_overlap"`
	Separators   []string `yaml:"separators" json:"separators,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   slices.Clone(DefaultSeparators),
	}
}

// Validate reports the first problem found as a *ConfigurationError.
// An empty Separators list is treated as DefaultSeparators.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return &ConfigurationError{Field: "chunk_size", Value: c.ChunkSize, Reason: "must be greater than zero"}
	}
	if c.ChunkOverlap < 0 {
		return &ConfigurationError{Field: "chunk_overlap", Value: c.ChunkOverlap, Reason: "must not be negative"}
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return &ConfigurationError{
			Field:  "chunk_overlap",
			Value:  c.ChunkOverlap,
			Reason: "must be smaller than chunk_size",
		}
	}
	if len(c.Separators) > 0 && c.Separators[len(c.Separators)-1] != "" {
		return &ConfigurationError{
			Field:  "separators",
			Value:  c.Separators,
			Reason: `must end with the "" character fallback`,
		}
	}
	return nil
}

func (c Config) separators() []string {
	if len(c.Separators) == 0 {
		return slices.Clone(DefaultSeparators)
	}
	return slices.Clone(c.Separators)
}
