// Package ollama adapts a local Ollama server to llms.Model and
// embeddings.Embedder through the official API client.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/sevigo/docchain/embeddings"
	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/schema"
)

// Common errors returned by the Ollama LLM implementation.
var (
	ErrEmptyResponse       = errors.New("ollama: empty response received")
	ErrIncompleteEmbedding = errors.New("ollama: not all input texts were embedded")
	ErrNoMessages          = errors.New("ollama: no messages provided")
	ErrModelNotFound       = errors.New("ollama: model not found")
	ErrInvalidModel        = errors.New("ollama: invalid model specified")
)

type LLM struct {
	client  *api.Client
	options options
	logger  *slog.Logger

	ensured sync.Map
}

var (
	_ llms.Model          = (*LLM)(nil)
	_ embeddings.Embedder = (*LLM)(nil)
)

func New(opts ...Option) (*LLM, error) {
	o := applyOptions(opts...)

	if o.model == "" {
		return nil, ErrInvalidModel
	}

	var client *api.Client
	if o.ollamaServerURL != nil {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = api.NewClient(o.ollamaServerURL, httpClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	llm := &LLM{
		client:  client,
		options: o,
		logger:  o.logger.With("component", "ollama_llm", "model", o.model),
	}

	llm.logger.Info("Ollama LLM initialized successfully")
	return llm, nil
}

func (o *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, o, prompt, options...)
}

// GenerateContent runs one chat request. Ollama always answers in chunks; they
// are forwarded to the streaming func when one is set and joined either way.
func (o *LLM) GenerateContent(
	ctx context.Context,
	messages []schema.MessageContent,
	options ...llms.CallOption,
) (*schema.ContentResponse, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	start := time.Now()
	opts := llms.ParseCallOptions(options...)
	model := o.options.model
	if opts.Model != "" {
		model = opts.Model
	}

	chatMsgs, err := convertToOllamaMessages(messages)
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to convert messages", "error", err)
		return nil, err
	}

	streaming := opts.StreamingFunc != nil
	req := &api.ChatRequest{
		Model:    model,
		Messages: chatMsgs,
		Stream:   &streaming,
		Options:  o.requestOptions(opts),
	}

	var (
		fullResponse strings.Builder
		finalResp    api.ChatResponse
	)
	fn := func(response api.ChatResponse) error {
		fullResponse.WriteString(response.Message.Content)
		if streaming && response.Message.Content != "" {
			if errStream := opts.StreamingFunc(ctx, []byte(response.Message.Content)); errStream != nil {
				return fmt.Errorf("streaming function returned an error: %w", errStream)
			}
		}
		if response.Done {
			finalResp = response
		}
		return nil
	}

	o.logger.DebugContext(ctx, "Starting Ollama content generation", "message_count", len(messages))
	if err := o.client.Chat(ctx, req, fn); err != nil {
		o.logger.ErrorContext(ctx, "Ollama chat failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("ollama: chat: %w", err)
	}
	duration := time.Since(start)

	o.logger.DebugContext(ctx, "Content generation completed", "duration", duration)
	return &schema.ContentResponse{
		Choices: []*schema.ContentChoice{
			{
				Content:    fullResponse.String(),
				StopReason: finalResp.DoneReason,
				GenerationInfo: map[string]any{
					"CompletionTokens": finalResp.EvalCount,
					"PromptTokens":     finalResp.PromptEvalCount,
					"TotalTokens":      finalResp.EvalCount + finalResp.PromptEvalCount,
					"Duration":         duration,
					"Model":            model,
				},
			},
		},
	}, nil
}

func (o *LLM) requestOptions(opts llms.CallOptions) map[string]any {
	out := map[string]any{}
	temperature := o.options.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	if temperature > 0 {
		out["temperature"] = temperature
	}
	if opts.MaxTokens > 0 {
		out["num_predict"] = opts.MaxTokens
	}
	if len(opts.StopWords) > 0 {
		out["stop"] = opts.StopWords
	}
	return out
}

func convertToOllamaMessages(messages []schema.MessageContent) ([]api.Message, error) {
	chatMsgs := make([]api.Message, 0, len(messages))
	for _, mc := range messages {
		texts := make([]string, 0, len(mc.Parts))
		for _, p := range mc.Parts {
			part, ok := p.(schema.TextContent)
			if !ok {
				return nil, fmt.Errorf("unsupported content part type: %T", p)
			}
			texts = append(texts, part.Text)
		}
		chatMsgs = append(chatMsgs, api.Message{
			Role:    typeToRole(mc.Role),
			Content: strings.Join(texts, "\n"),
		})
	}
	return chatMsgs, nil
}

func typeToRole(typ schema.ChatMessageType) string {
	switch typ {
	case schema.ChatMessageTypeSystem:
		return "system"
	case schema.ChatMessageTypeAI:
		return "assistant"
	default:
		return "user"
	}
}

// EmbedDocuments embeds texts with one /api/embed request.
func (o *LLM) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if err := o.ensureModel(ctx, o.options.embeddingModel); err != nil {
		return nil, fmt.Errorf("embedding model preparation failed: %w", err)
	}

	start := time.Now()
	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.options.embeddingModel,
		Input: texts,
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "Embedding API call failed",
			"error", err, "count", len(texts), "duration", time.Since(start))
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		o.logger.ErrorContext(ctx, "Embedding count mismatch",
			"expected", len(texts), "got", len(resp.Embeddings))
		return nil, ErrIncompleteEmbedding
	}
	return resp.Embeddings, nil
}

func (o *LLM) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors[0]) == 0 {
		return nil, ErrEmptyResponse
	}
	return vectors[0], nil
}

// GetDimension returns the embedding dimension for the embedding model.
func (o *LLM) GetDimension(ctx context.Context) (int, error) {
	vec, err := o.EmbedQuery(ctx, "dimension test")
	if err != nil {
		return 0, fmt.Errorf("failed to get embedding dimension: %w", err)
	}
	return len(vec), nil
}

// ensureModel pulls model once per process when the server does not have it.
func (o *LLM) ensureModel(ctx context.Context, model string) error {
	if !o.options.autoPull {
		return nil
	}
	if _, done := o.ensured.Load(model); done {
		return nil
	}

	exists, err := o.modelExists(ctx, model)
	if err != nil {
		return err
	}
	if !exists {
		o.logger.InfoContext(ctx, "Model not found locally, initiating pull", "pull_model", model)
		if err := o.PullModel(ctx, model); err != nil {
			return err
		}
	}
	o.ensured.Store(model, struct{}{})
	return nil
}

func (o *LLM) modelExists(ctx context.Context, model string) (bool, error) {
	_, err := o.client.Show(ctx, &api.ShowRequest{Model: model})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("model existence check failed: %w", err)
}

// PullModel downloads model, logging progress.
func (o *LLM) PullModel(ctx context.Context, model string) error {
	start := time.Now()
	err := o.client.Pull(ctx, &api.PullRequest{Model: model}, func(progress api.ProgressResponse) error {
		if progress.Total > 0 {
			percent := (float64(progress.Completed) / float64(progress.Total)) * 100
			o.logger.DebugContext(ctx, "Model pull progress",
				"status", progress.Status,
				"percent", fmt.Sprintf("%.1f%%", percent))
		} else {
			o.logger.DebugContext(ctx, "Model pull status", "status", progress.Status)
		}
		return nil
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "Model pull failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("model pull failed: %w", err)
	}
	o.logger.InfoContext(ctx, "Model pull completed successfully", "duration", time.Since(start))
	return nil
}

// GetModelDetails describes the chat model.
func (o *LLM) GetModelDetails(ctx context.Context) (*schema.ModelDetails, error) {
	showResp, err := o.client.Show(ctx, &api.ShowRequest{Model: o.options.model})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to retrieve model information: %w", err)
	}

	return &schema.ModelDetails{
		Family:        showResp.Details.Family,
		ParameterSize: showResp.Details.ParameterSize,
		Quantization:  showResp.Details.QuantizationLevel,
	}, nil
}

func isNotFound(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
