package outputparsers

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ResponseSchema names one field of a structured answer.
type ResponseSchema struct {
	Name        string
	Description string
}

// Structured parses a JSON object with the given fields into a string map.
type Structured struct {
	Schemas []ResponseSchema
}

var _ Parser[map[string]string] = Structured{}

func NewStructured(schemas ...ResponseSchema) Structured {
	return Structured{Schemas: schemas}
}

func (p Structured) FormatInstructions() string {
	lines := make([]string, len(p.Schemas))
	for i, s := range p.Schemas {
		lines[i] = fmt.Sprintf("\t%q: string // %s", s.Name, s.Description)
	}
	return jsonInstructions(strings.Join(lines, "\n"))
}

func (p Structured) Parse(text string) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil, &ParseError{Parser: "structured", Text: text, Reason: "invalid JSON", Err: err}
	}

	out := make(map[string]string, len(p.Schemas))
	for _, s := range p.Schemas {
		value, ok := raw[s.Name]
		if !ok {
			return nil, &ParseError{Parser: "structured", Text: text, Reason: fmt.Sprintf("missing field %q", s.Name)}
		}
		if str, ok := value.(string); ok {
			out[s.Name] = str
		} else {
			out[s.Name] = fmt.Sprint(value)
		}
	}
	return out, nil
}

// JSON decodes the answer into T, a struct whose instructions come from its
// json and description field tags.
type JSON[T any] struct{}

func NewJSON[T any]() JSON[T] {
	return JSON[T]{}
}

func (JSON[T]) FormatInstructions() string {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return "Respond with a JSON value."
	}

	var lines []string
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		line := fmt.Sprintf("\t%q: %s", name, jsonTypeName(field.Type))
		if desc := field.Tag.Get("description"); desc != "" {
			line += " // " + desc
		}
		lines = append(lines, line)
	}
	return jsonInstructions(strings.Join(lines, "\n"))
}

func (JSON[T]) Parse(text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		return out, &ParseError{Parser: "json", Text: text, Reason: "invalid JSON", Err: err}
	}
	return out, nil
}

func jsonInstructions(fields string) string {
	return "The output should be a markdown code snippet formatted in the following schema:\n\n```json\n{\n" +
		fields + "\n}\n```"
}

func jsonTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array of " + jsonTypeName(t.Elem())
	default:
		return "object"
	}
}

// extractJSON returns the body of a ```json fence, any ``` fence, or the
// outermost braces, in that order of preference.
func extractJSON(text string) string {
	for _, fence := range []string{"```json", "```"} {
		if _, rest, ok := strings.Cut(text, fence); ok {
			if body, _, ok := strings.Cut(rest, "```"); ok {
				return strings.TrimSpace(body)
			}
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}
