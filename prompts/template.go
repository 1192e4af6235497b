// Package prompts renders text and chat prompts from templates with
// {{.name}} placeholders.
package prompts

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ErrMissingVariable is returned by FormatStrict when a placeholder has no
// value.
var ErrMissingVariable = errors.New("missing template variable")

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// PromptTemplate represents a string template that can be formatted.
type PromptTemplate struct {
	Template string
}

// NewPromptTemplate creates a new prompt template.
func NewPromptTemplate(template string) PromptTemplate {
	return PromptTemplate{Template: template}
}

// Format substitutes variables in the template string. Placeholders without
// a value are left as they are; substituted values are not expanded again.
func (p PromptTemplate) Format(vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(p.Template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// FormatStrict is Format but fails when any placeholder lacks a value.
func (p PromptTemplate) FormatStrict(vars map[string]string) (string, error) {
	var missing []string
	for _, name := range p.InputVariables() {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(missing, ", "))
	}
	return p.Format(vars), nil
}

// InputVariables lists the placeholder names in order of first appearance.
func (p PromptTemplate) InputVariables() []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(p.Template, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// HasVariable reports whether the template references name.
func (p PromptTemplate) HasVariable(name string) bool {
	return slices.Contains(p.InputVariables(), name)
}
