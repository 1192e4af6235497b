// Package outputparsers turns raw model output into typed values and tells
// the model, through format instructions, what shape to answer in.
package outputparsers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("output parse failed")

type Parser[T any] interface {
	Parse(text string) (T, error)
	FormatInstructions() string
}

// ParseError reports output a parser could not understand.
type ParseError struct {
	Parser string
	Text   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s parser: %s", e.Parser, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}

// String returns the trimmed text.
type String struct{}

var _ Parser[string] = String{}

func (String) Parse(text string) (string, error) {
	return strings.TrimSpace(text), nil
}

func (String) FormatInstructions() string { return "" }

// CommaSeparatedList splits on commas and drops empty items.
type CommaSeparatedList struct{}

var _ Parser[[]string] = CommaSeparatedList{}

func (CommaSeparatedList) Parse(text string) ([]string, error) {
	var items []string
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, &ParseError{Parser: "comma separated list", Text: text, Reason: "no items found"}
	}
	return items, nil
}

func (CommaSeparatedList) FormatInstructions() string {
	return "Your response should be a list of comma separated values, eg: `foo, bar, baz`"
}

// Boolean accepts yes/no and true/false answers, looking at the first word.
type Boolean struct{}

var _ Parser[bool] = Boolean{}

func (Boolean) Parse(text string) (bool, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) > 0 {
		switch strings.Trim(fields[0], ".,!:;\"'`*") {
		case "yes", "y", "true":
			return true, nil
		case "no", "n", "false":
			return false, nil
		}
	}
	return false, &ParseError{Parser: "boolean", Text: text, Reason: "expected yes or no"}
}

func (Boolean) FormatInstructions() string {
	return `Answer only with "yes" or "no".`
}
