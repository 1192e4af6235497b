// Package config loads the docchain YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/docchain/textsplitter"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	StoreMemory = "memory"
	StoreQdrant = "qdrant"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Provider  ProviderConfig      `yaml:"provider"`
	Splitter  textsplitter.Config `yaml:"splitter"`
	Retrieval RetrievalConfig     `yaml:"retrieval"`
	Qdrant    QdrantConfig        `yaml:"qdrant"`
	Redis     RedisConfig         `yaml:"redis"`
	Agent     AgentConfig         `yaml:"agent"`
	Log       LogConfig           `yaml:"log"`
}

type ProviderConfig struct {
	Name           string  `yaml:"name"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

type RetrievalConfig struct {
	K              int     `yaml:"k"`
	ScoreThreshold float32 `yaml:"score_threshold"`
	Store          string  `yaml:"store"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	UseTLS     bool   `yaml:"use_tls"`
}

// RedisConfig enables Redis-backed chat history when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:           ProviderOllama,
			Model:          "llama3.2",
			EmbeddingModel: "nomic-embed-text",
		},
		Splitter: textsplitter.Config{
			ChunkSize:    200,
			ChunkOverlap: 20,
		},
		Retrieval: RetrievalConfig{
			K:     2,
			Store: StoreMemory,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "docchain",
		},
		Redis: RedisConfig{
			Prefix: "docchain:",
		},
		Agent: AgentConfig{
			MaxIterations: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, expands ${VAR}
// references and fills unset secrets from the environment. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.expandEnvVars()
	cfg.applyEnvFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) expandEnvVars() {
	c.Provider.APIKey = os.ExpandEnv(c.Provider.APIKey)
	c.Provider.BaseURL = os.ExpandEnv(c.Provider.BaseURL)
	c.Provider.Model = os.ExpandEnv(c.Provider.Model)
	c.Qdrant.Host = os.ExpandEnv(c.Qdrant.Host)
	c.Qdrant.APIKey = os.ExpandEnv(c.Qdrant.APIKey)
	c.Redis.Addr = os.ExpandEnv(c.Redis.Addr)
	c.Redis.Password = os.ExpandEnv(c.Redis.Password)
}

func (c *Config) applyEnvFallbacks() {
	if c.Provider.APIKey == "" {
		switch c.Provider.Name {
		case ProviderOpenAI:
			c.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		case ProviderGemini:
			c.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if c.Provider.BaseURL == "" && c.Provider.Name == ProviderOllama {
		c.Provider.BaseURL = os.Getenv("OLLAMA_HOST")
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = os.Getenv("REDIS_ADDR")
	}
}

// Validate reports the first invalid section.
func (c *Config) Validate() error {
	if !slices.Contains([]string{ProviderOpenAI, ProviderOllama, ProviderGemini}, c.Provider.Name) {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider.Name)
	}
	if err := c.Splitter.Validate(); err != nil {
		return fmt.Errorf("invalid splitter configuration: %w", err)
	}
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval.k must be greater than 0", ErrInvalidConfig)
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("%w: retrieval.score_threshold must be between 0 and 1", ErrInvalidConfig)
	}
	switch c.Retrieval.Store {
	case StoreMemory:
	case StoreQdrant:
		if c.Qdrant.Collection == "" {
			return fmt.Errorf("%w: qdrant.collection is required for the qdrant store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown retrieval store %q", ErrInvalidConfig, c.Retrieval.Store)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("%w: agent.max_iterations must be greater than 0", ErrInvalidConfig)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format must be text or json", ErrInvalidConfig)
	}
	return nil
}

// NewLogger builds a logger writing to w. verbose forces debug level.
func (c *Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil || verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func parseLevel(level string) (slog.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, level)
	}
	return l, nil
}
