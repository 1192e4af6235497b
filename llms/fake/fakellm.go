package fake

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/schema"
)

var ErrNoResponses = errors.New("no responses configured")

// LLM replays scripted responses in order, cycling when it runs out, and
// records what it was asked.
type LLM struct {
	mu           sync.Mutex
	responses    []string
	index        int
	lastMessages []schema.MessageContent
	lastOptions  llms.CallOptions
	callCount    int
}

var _ llms.Model = (*LLM)(nil)

func NewFakeLLM(responses []string) *LLM {
	return &LLM{
		responses: responses,
	}
}

// GenerateContent returns the next predefined response in the cycle. When a
// streaming func is set the response is delivered through it as one chunk.
func (f *LLM) GenerateContent(
	ctx context.Context,
	messages []schema.MessageContent,
	options ...llms.CallOption,
) (*schema.ContentResponse, error) {
	f.mu.Lock()
	if len(f.responses) == 0 {
		f.mu.Unlock()
		return nil, ErrNoResponses
	}

	f.lastMessages = append([]schema.MessageContent(nil), messages...)
	f.lastOptions = llms.ParseCallOptions(options...)
	f.callCount++

	response := f.responses[f.index]
	f.index = (f.index + 1) % len(f.responses)
	streamingFunc := f.lastOptions.StreamingFunc
	f.mu.Unlock()

	if streamingFunc != nil {
		if err := streamingFunc(ctx, []byte(response)); err != nil {
			return nil, err
		}
	}

	return &schema.ContentResponse{
		Choices: []*schema.ContentChoice{
			{Content: response},
		},
	}, nil
}

// Call is a simplified interface for generating responses from a string prompt.
func (f *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

// Reset resets the response index, call count and recorded input.
func (f *LLM) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.callCount = 0
	f.lastMessages = nil
	f.lastOptions = llms.CallOptions{}
}

// AddResponse appends a new response to the list.
func (f *LLM) AddResponse(response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response)
}

// LastPrompt returns the text of every message of the last call, one per line.
func (f *LLM) LastPrompt() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lastMessages) == 0 {
		return "", false
	}
	parts := make([]string, len(f.lastMessages))
	for i, m := range f.lastMessages {
		parts[i] = m.GetTextContent()
	}
	return strings.Join(parts, "\n"), true
}

// LastMessages returns the messages of the last call.
func (f *LLM) LastMessages() []schema.MessageContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]schema.MessageContent(nil), f.lastMessages...)
}

// LastOptions returns the call options of the last call.
func (f *LLM) LastOptions() llms.CallOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOptions
}

// GetCallCount returns the number of times the LLM was called.
func (f *LLM) GetCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}
