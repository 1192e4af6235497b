package chains

import (
	"context"
	"maps"
	"strings"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/prompts"
	"github.com/sevigo/docchain/schema"
)

const DefaultDocumentSeparator = "\n\n"

// StuffDocuments puts every document into the prompt's context variable and
// calls the model once.
type StuffDocuments struct {
	LLM         llms.Model
	Prompt      prompts.PromptTemplate
	Separator   string
	CallOptions []llms.CallOption
}

func NewStuffDocuments(llm llms.Model, prompt prompts.PromptTemplate) StuffDocuments {
	return StuffDocuments{LLM: llm, Prompt: prompt, Separator: DefaultDocumentSeparator}
}

// FormatContext joins the document contents with the separator.
func (c StuffDocuments) FormatContext(docs []schema.Document) string {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.PageContent
	}
	return strings.Join(contents, c.Separator)
}

func (c StuffDocuments) Call(ctx context.Context, docs []schema.Document, vars map[string]string) (string, error) {
	all := maps.Clone(vars)
	if all == nil {
		all = map[string]string{}
	}
	all["context"] = c.FormatContext(docs)
	return c.LLM.Call(ctx, c.Prompt.Format(all), c.CallOptions...)
}
