package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/pkg/logger"
)

// Client keeps best-effort relay outcome counters. A nil *Client is valid
// and turns every operation into a no-op, so the service runs without Redis.
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

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// IncrementOutcome bumps the counter for a terminal relay outcome. Failures
// are logged and swallowed; counters never affect a response.
func (c *Client) IncrementOutcome(ctx context.Context, outcome string) {
	if c == nil {
		return
	}

	if err := c.client.Incr(ctx, "relay:outcome:"+outcome).Err(); err != nil {
		logger.Warn("Failed to increment outcome counter",
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
}

func (c *Client) GetOutcome(ctx context.Context, outcome string) (int64, error) {
	if c == nil {
		return 0, nil
	}

	val, err := c.client.Get(ctx, "relay:outcome:"+outcome).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
