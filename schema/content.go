package schema

// ContentResponse is what a language model returns for one request.
type ContentResponse struct {
	Choices []*ContentChoice
}

type ContentChoice struct {
	Content          string
	StopReason       string
	GenerationInfo   map[string]any
	ReasoningContent string
}

// Text returns the content of the first choice, or "" when there is none.
func (r *ContentResponse) Text() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0] == nil {
		return ""
	}
	return r.Choices[0].Content
}
