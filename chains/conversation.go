package chains

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/memory"
	"github.com/sevigo/docchain/prompts"
)

// Conversation answers with the recent turns of a memory.Buffer in the
// prompt and records each exchange.
type Conversation struct {
	LLM         llms.Model
	Memory      *memory.Buffer
	prompt      prompts.PromptTemplate
	callOptions []llms.CallOption
	logger      *slog.Logger
}

func NewConversation(llm llms.Model, buffer *memory.Buffer, opts ...Option) *Conversation {
	o := applyOptions(prompts.ConversationPrompt, opts...)
	if buffer == nil {
		buffer = memory.NewBuffer(nil, memory.DefaultWindow)
	}
	return &Conversation{
		LLM:         llm,
		Memory:      buffer,
		prompt:      *o.prompt,
		callOptions: o.callOptions,
		logger:      o.logger.With("component", "conversation"),
	}
}

func (c *Conversation) Predict(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyQuery
	}

	history, err := c.Memory.LoadString(ctx)
	if err != nil {
		return "", fmt.Errorf("loading conversation history: %w", err)
	}

	prompt := c.prompt.Format(map[string]string{"history": history, "input": input})
	output, err := c.LLM.Call(ctx, prompt, c.callOptions...)
	if err != nil {
		return "", err
	}
	output = strings.TrimSpace(output)

	if err := c.Memory.SaveTurn(ctx, input, output); err != nil {
		c.logger.WarnContext(ctx, "Failed to save conversation turn", "error", err)
		return output, fmt.Errorf("saving conversation turn: %w", err)
	}
	return output, nil
}
