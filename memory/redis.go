package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevigo/docchain/schema"
)

const DefaultKeyPrefix = "docchain:"

// storedMessage is the JSON form of one list entry.
type storedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Redis keeps one session's history in a Redis list under
// <prefix>history:<session>.
type Redis struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

var _ WindowedHistory = (*Redis)(nil)

type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
	ttl    time.Duration
}

func WithKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithTTL expires the history after ttl without writes. Zero keeps it
// forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(o *redisOptions) {
		if ttl >= 0 {
			o.ttl = ttl
		}
	}
}

func NewRedis(client redis.Cmdable, sessionID string, opts ...RedisOption) *Redis {
	o := redisOptions{prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return &Redis{
		client: client,
		key:    o.prefix + "history:" + sessionID,
		ttl:    o.ttl,
	}
}

// Key returns the Redis key holding the history.
func (h *Redis) Key() string {
	return h.key
}

func (h *Redis) Messages(ctx context.Context) ([]schema.MessageContent, error) {
	return h.lrange(ctx, 0, -1)
}

// LastMessages reads only the tail of the list, oldest first.
func (h *Redis) LastMessages(ctx context.Context, n int) ([]schema.MessageContent, error) {
	if n <= 0 {
		return []schema.MessageContent{}, nil
	}
	return h.lrange(ctx, -int64(n), -1)
}

func (h *Redis) lrange(ctx context.Context, start, stop int64) ([]schema.MessageContent, error) {
	entries, err := h.client.LRange(ctx, h.key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	messages := make([]schema.MessageContent, 0, len(entries))
	for _, entry := range entries {
		var stored storedMessage
		if err := json.Unmarshal([]byte(entry), &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		role, err := schema.ParseChatMessageType(stored.Role)
		if err != nil {
			return nil, err
		}
		messages = append(messages, schema.NewTextMessage(role, stored.Content))
	}
	return messages, nil
}

func (h *Redis) AddMessage(ctx context.Context, message schema.MessageContent) error {
	data, err := json.Marshal(storedMessage{
		Role:    string(message.Role),
		Content: message.GetTextContent(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, h.key, data)
	if h.ttl > 0 {
		pipe.Expire(ctx, h.key, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (h *Redis) Clear(ctx context.Context) error {
	if err := h.client.Del(ctx, h.key).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
