package textsplitter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigurationError.
	ErrInvalidConfig = errors.New("invalid splitter configuration")
	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("invalid splitter input")
)

// ConfigurationError is returned before any splitting happens when the
// settings cannot produce well-formed chunks.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("textsplitter: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// InputError identifies the document that could not be split. Index is the
// position of the document in the input slice.
type InputError struct {
	Index  int
	Source string
	Reason string
}

func (e *InputError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("textsplitter: document %d (%s): %s", e.Index, e.Source, e.Reason)
	}
	return fmt.Sprintf("textsplitter: document %d: %s", e.Index, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
