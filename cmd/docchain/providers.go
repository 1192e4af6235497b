package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sevigo/docchain/config"
	"github.com/sevigo/docchain/embeddings"
	"github.com/sevigo/docchain/embeddings/hashing"
	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/llms/gemini"
	"github.com/sevigo/docchain/llms/ollama"
	"github.com/sevigo/docchain/llms/openai"
	"github.com/sevigo/docchain/memory"
	"github.com/sevigo/docchain/vectorstores"
	memstore "github.com/sevigo/docchain/vectorstores/memory"
	"github.com/sevigo/docchain/vectorstores/qdrant"
)

var errOfflineModel = errors.New("this command needs a language model and cannot run with --offline")

// provider is implemented by every model adapter: they all embed as well.
type provider interface {
	llms.Model
	embeddings.Embedder
}

func (a *app) newProvider(ctx context.Context) (provider, error) {
	p := a.cfg.Provider
	switch p.Name {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithAPIKey(p.APIKey),
			openai.WithModel(p.Model),
			openai.WithTemperature(p.Temperature),
			openai.WithMaxTokens(p.MaxTokens),
			openai.WithLogger(a.logger),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		if p.EmbeddingModel != "" {
			opts = append(opts, openai.WithEmbeddingModel(p.EmbeddingModel))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return llm, nil
	case config.ProviderGemini:
		opts := []gemini.Option{
			gemini.WithAPIKey(p.APIKey),
			gemini.WithModel(p.Model),
			gemini.WithTemperature(p.Temperature),
			gemini.WithLogger(a.logger),
		}
		if p.EmbeddingModel != "" {
			opts = append(opts, gemini.WithEmbeddingModel(p.EmbeddingModel))
		}
		llm, err := gemini.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return llm, nil
	case config.ProviderOllama:
		opts := []ollama.Option{
			ollama.WithModel(p.Model),
			ollama.WithTemperature(p.Temperature),
			ollama.WithLogger(a.logger),
		}
		if p.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(p.BaseURL))
		}
		if p.EmbeddingModel != "" {
			opts = append(opts, ollama.WithEmbeddingModel(p.EmbeddingModel))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, err
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Name)
	}
}

// newModel returns the configured chat model, refusing in offline mode.
func (a *app) newModel(ctx context.Context) (llms.Model, error) {
	if a.offline {
		return nil, errOfflineModel
	}
	return a.newProvider(ctx)
}

func (a *app) newEmbedder(ctx context.Context) (embeddings.Embedder, error) {
	if a.offline {
		embedder, err := hashing.New(hashing.DefaultDimension)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	}
	client, err := a.newProvider(ctx)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	return embedder, nil
}

// newStore builds the configured vector store. The returned func releases
// its connections.
func (a *app) newStore(embedder embeddings.Embedder) (vectorstores.VectorStore, func(), error) {
	if a.cfg.Retrieval.Store != config.StoreQdrant {
		return memstore.New(embedder, memstore.WithLogger(a.logger)), func() {}, nil
	}

	q := a.cfg.Qdrant
	store, err := qdrant.New(
		qdrant.WithCollectionName(q.Collection),
		qdrant.WithHost(q.Host, q.Port),
		qdrant.WithAPIKey(q.APIKey),
		qdrant.WithTLS(q.UseTLS),
		qdrant.WithEmbedder(embedder),
		qdrant.WithLogger(a.logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("Failed to close qdrant client", "error", err)
		}
	}, nil
}

func (a *app) retrievalOptions() []vectorstores.Option {
	var opts []vectorstores.Option
	if t := a.cfg.Retrieval.ScoreThreshold; t > 0 {
		opts = append(opts, vectorstores.WithScoreThreshold(t))
	}
	return opts
}

// newHistory stores chat history in Redis when redis.addr is configured and
// in process memory otherwise.
func (a *app) newHistory(ctx context.Context, session string) (memory.ChatMessageHistory, func(), error) {
	r := a.cfg.Redis
	if r.Addr == "" {
		return memory.NewInMemory(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", r.Addr, err)
	}

	history := memory.NewRedis(client, session,
		memory.WithKeyPrefix(r.Prefix),
		memory.WithTTL(r.TTL),
	)
	return history, func() { _ = client.Close() }, nil
}
