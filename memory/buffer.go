package memory

import (
	"context"

	"github.com/sevigo/docchain/schema"
)

// DefaultWindow is the number of turns Buffer returns when k is not positive.
const DefaultWindow = 5

// Buffer exposes the last K turns (human plus AI message pairs) of a
// history.
type Buffer struct {
	History ChatMessageHistory
	K       int
}

func NewBuffer(history ChatMessageHistory, k int) *Buffer {
	if history == nil {
		history = NewInMemory()
	}
	if k <= 0 {
		k = DefaultWindow
	}
	return &Buffer{History: history, K: k}
}

// LoadMessages returns at most the last 2*K messages. Histories that
// implement WindowedHistory are asked for the window only.
func (b *Buffer) LoadMessages(ctx context.Context) ([]schema.MessageContent, error) {
	if windowed, ok := b.History.(WindowedHistory); ok {
		return windowed.LastMessages(ctx, 2*b.K)
	}

	messages, err := b.History.Messages(ctx)
	if err != nil {
		return nil, err
	}
	if limit := 2 * b.K; len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// LoadString renders the window as "Human: ..." and "AI: ..." lines.
func (b *Buffer) LoadString(ctx context.Context) (string, error) {
	messages, err := b.LoadMessages(ctx)
	if err != nil {
		return "", err
	}
	return schema.BufferString(messages), nil
}

// SaveTurn appends one exchange.
func (b *Buffer) SaveTurn(ctx context.Context, input, output string) error {
	if err := b.History.AddMessage(ctx, schema.NewHumanMessage(input)); err != nil {
		return err
	}
	return b.History.AddMessage(ctx, schema.NewAIMessage(output))
}

func (b *Buffer) Clear(ctx context.Context) error {
	return b.History.Clear(ctx)
}
