// Package openai adapts the OpenAI chat completion and embedding APIs, or any
// endpoint speaking the same protocol, to llms.Model and embeddings.Embedder.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/sevigo/docchain/embeddings"
	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/schema"
)

var (
	ErrNoAPIKey        = errors.New("openai: API key is required")
	ErrInvalidModel    = errors.New("openai: invalid model specified")
	ErrNoContent       = errors.New("openai: no content generated")
	ErrEmbeddings      = errors.New("openai: failed to generate embeddings")
	ErrNoMessages      = errors.New("openai: no messages provided")
	ErrUnsupportedPart = errors.New("openai: unsupported content part")
)

// LLM implements both the Model and Embedder interfaces for OpenAI.
type LLM struct {
	client  *goopenai.Client
	options options
	logger  *slog.Logger

	dimension int
	dimMu     sync.Mutex
}

var (
	_ llms.Model          = (*LLM)(nil)
	_ embeddings.Embedder = (*LLM)(nil)
)

func New(opts ...Option) (*LLM, error) {
	o := applyOptions(opts...)

	if o.apiKey == "" {
		o.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if o.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if o.model == "" {
		return nil, ErrInvalidModel
	}

	cfg := goopenai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	if o.organization != "" {
		cfg.OrgID = o.organization
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}

	llm := &LLM{
		client:  goopenai.NewClientWithConfig(cfg),
		options: o,
		logger:  o.logger.With("component", "openai_llm", "model", o.model),
	}

	llm.logger.Info("OpenAI LLM initialized successfully")
	return llm, nil
}

// Call is a convenience method for a single-turn conversation.
func (l *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, l, prompt, options...)
}

// GenerateContent sends messages as one chat completion request. When a
// streaming func is set the response is streamed through it and also
// returned whole.
func (l *LLM) GenerateContent(
	ctx context.Context,
	messages []schema.MessageContent,
	options ...llms.CallOption,
) (*schema.ContentResponse, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	start := time.Now()
	opts := llms.ParseCallOptions(options...)

	req, err := l.buildRequest(messages, opts)
	if err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "Starting OpenAI chat completion",
		"message_count", len(messages), "streaming", opts.StreamingFunc != nil)

	if opts.StreamingFunc != nil {
		return l.stream(ctx, req, opts, start)
	}

	resp, err := l.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		l.logger.ErrorContext(ctx, "OpenAI client failed", "error", err, "duration", duration)
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoContent
	}

	choice := resp.Choices[0]
	l.logger.DebugContext(ctx, "Chat completion finished",
		"duration", duration, "total_tokens", resp.Usage.TotalTokens)

	return &schema.ContentResponse{
		Choices: []*schema.ContentChoice{
			{
				Content:    choice.Message.Content,
				StopReason: string(choice.FinishReason),
				GenerationInfo: map[string]any{
					"CompletionTokens": resp.Usage.CompletionTokens,
					"PromptTokens":     resp.Usage.PromptTokens,
					"TotalTokens":      resp.Usage.TotalTokens,
					"Duration":         duration,
					"Model":            req.Model,
				},
			},
		},
	}, nil
}

func (l *LLM) stream(
	ctx context.Context,
	req goopenai.ChatCompletionRequest,
	opts llms.CallOptions,
	start time.Time,
) (*schema.ContentResponse, error) {
	req.Stream = true
	stream, err := l.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		l.logger.ErrorContext(ctx, "OpenAI stream failed to start", "error", err)
		return nil, fmt.Errorf("openai: chat completion stream: %w", err)
	}
	defer stream.Close()

	var (
		full       strings.Builder
		stopReason string
	)
	for {
		chunk, errRecv := stream.Recv()
		if errors.Is(errRecv, io.EOF) {
			break
		}
		if errRecv != nil {
			l.logger.ErrorContext(ctx, "OpenAI stream error", "error", errRecv)
			return nil, fmt.Errorf("openai: stream: %w", errRecv)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if chunk.Choices[0].FinishReason != "" {
			stopReason = string(chunk.Choices[0].FinishReason)
		}
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := opts.StreamingFunc(ctx, []byte(delta)); err != nil {
			return nil, fmt.Errorf("streaming function returned an error: %w", err)
		}
	}

	return &schema.ContentResponse{
		Choices: []*schema.ContentChoice{
			{
				Content:    full.String(),
				StopReason: stopReason,
				GenerationInfo: map[string]any{
					"Duration": time.Since(start),
					"Model":    req.Model,
				},
			},
		},
	}, nil
}

func (l *LLM) buildRequest(messages []schema.MessageContent, opts llms.CallOptions) (goopenai.ChatCompletionRequest, error) {
	chatMsgs := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, mc := range messages {
		var text strings.Builder
		for i, p := range mc.Parts {
			part, ok := p.(schema.TextContent)
			if !ok {
				return goopenai.ChatCompletionRequest{}, fmt.Errorf("%w: %T", ErrUnsupportedPart, p)
			}
			if i > 0 {
				text.WriteByte('\n')
			}
			text.WriteString(part.Text)
		}
		chatMsgs = append(chatMsgs, goopenai.ChatCompletionMessage{
			Role:    typeToRole(mc.Role),
			Content: text.String(),
		})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       l.options.model,
		Messages:    chatMsgs,
		Temperature: float32(l.options.temperature),
		MaxTokens:   l.options.maxTokens,
		Stop:        opts.StopWords,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature > 0 {
		req.Temperature = float32(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	return req, nil
}

func typeToRole(typ schema.ChatMessageType) string {
	switch typ {
	case schema.ChatMessageTypeSystem:
		return goopenai.ChatMessageRoleSystem
	case schema.ChatMessageTypeAI:
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}

// EmbedDocuments embeds texts in one request; results keep input order.
func (l *LLM) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := l.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: texts,
		Model: goopenai.EmbeddingModel(l.options.embeddingModel),
	})
	if err != nil {
		l.logger.ErrorContext(ctx, "Embedding API call failed", "error", err, "count", len(texts))
		return nil, fmt.Errorf("%w: %w", ErrEmbeddings, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, but got %d", ErrEmbeddings, len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddings, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (l *LLM) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := l.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GetDimension embeds a sample text once and caches the vector length.
func (l *LLM) GetDimension(ctx context.Context) (int, error) {
	l.dimMu.Lock()
	defer l.dimMu.Unlock()

	if l.dimension > 0 {
		return l.dimension, nil
	}
	vec, err := l.EmbedQuery(ctx, "dimension")
	if err != nil {
		return 0, fmt.Errorf("failed to get dimension by embedding sample text: %w", err)
	}
	l.dimension = len(vec)
	return l.dimension, nil
}
