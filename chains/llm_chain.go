package chains

import (
	"context"
	"fmt"
	"maps"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/outputparsers"
	"github.com/sevigo/docchain/prompts"
)

const formatInstructionsKey = "format_instructions"

// LLMChain formats a prompt, calls the model and parses the answer into T.
type LLMChain[T any] struct {
	Prompt      prompts.PromptTemplate
	LLM         llms.Model
	Parser      outputparsers.Parser[T]
	CallOptions []llms.CallOption
}

func NewLLMChain[T any](llm llms.Model, prompt prompts.PromptTemplate, parser outputparsers.Parser[T]) *LLMChain[T] {
	return &LLMChain[T]{Prompt: prompt, LLM: llm, Parser: parser}
}

// Run fills the prompt with vars. When the prompt references
// format_instructions and vars does not set it, the parser's instructions
// are used.
func (c *LLMChain[T]) Run(ctx context.Context, vars map[string]string) (T, error) {
	var zero T

	if c.Prompt.HasVariable(formatInstructionsKey) {
		if _, ok := vars[formatInstructionsKey]; !ok {
			vars = maps.Clone(vars)
			if vars == nil {
				vars = map[string]string{}
			}
			vars[formatInstructionsKey] = c.Parser.FormatInstructions()
		}
	}

	prompt, err := c.Prompt.FormatStrict(vars)
	if err != nil {
		return zero, err
	}

	output, err := c.LLM.Call(ctx, prompt, c.CallOptions...)
	if err != nil {
		return zero, fmt.Errorf("model call failed: %w", err)
	}
	return c.Parser.Parse(output)
}
