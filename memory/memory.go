// Package memory stores chat history and exposes a sliding window of recent
// turns to chains.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/sevigo/docchain/schema"
)

// ChatMessageHistory persists the messages of one conversation.
type ChatMessageHistory interface {
	Messages(ctx context.Context) ([]schema.MessageContent, error)
	AddMessage(ctx context.Context, message schema.MessageContent) error
	Clear(ctx context.Context) error
}

// WindowedHistory is implemented by histories that can return only their
// most recent messages without reading the rest.
type WindowedHistory interface {
	ChatMessageHistory
	LastMessages(ctx context.Context, n int) ([]schema.MessageContent, error)
}

// InMemory keeps history in process. It is safe for concurrent use.
type InMemory struct {
	mu       sync.RWMutex
	messages []schema.MessageContent
}

var _ WindowedHistory = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (h *InMemory) Messages(_ context.Context) ([]schema.MessageContent, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.messages), nil
}

// LastMessages returns up to the last n messages, oldest first.
func (h *InMemory) LastMessages(_ context.Context, n int) ([]schema.MessageContent, error) {
	if n <= 0 {
		return []schema.MessageContent{}, nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.messages[max(len(h.messages)-n, 0):]), nil
}

func (h *InMemory) AddMessage(_ context.Context, message schema.MessageContent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
	return nil
}

func (h *InMemory) Clear(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
	return nil
}
