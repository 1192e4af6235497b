// Package tools defines actions an agent can take and a few ready-made ones.
package tools

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned by tools that need a non-blank input.
var ErrEmptyInput = errors.New("tool input cannot be empty")

// Tool is something an agent can call with a text input.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
}
