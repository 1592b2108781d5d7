package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ticket-validator/backend/pkg/logger"
)

// Client is the Redis-backed result store. Results are JSON-marshaled and
// expire after the configured TTL.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis result cache initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	err = c.client.Set(ctx, resultKey(key), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set result cache: %w", err)
	}

	logger.Debug("Result cached", zap.String("content_hash", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, resultKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get result cache: %w", err)
	}

	err = json.Unmarshal(data, dest)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	logger.Debug("Result cache hit", zap.String("content_hash", key))
	return true, nil
}

func (c *Client) Invalidate(ctx context.Context, key string) error {
	err := c.client.Del(ctx, resultKey(key)).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate result cache: %w", err)
	}

	logger.Info("Result cache invalidated", zap.String("content_hash", key))
	return nil
}

func resultKey(contentHash string) string {
	return fmt.Sprintf("run:%s", contentHash)
}
