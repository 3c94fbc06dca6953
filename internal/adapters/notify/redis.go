package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis publisher defaults.
const (
	DefaultChannel = "sportsintel:runs"
	DefaultTimeout = 5 * time.Second
	DefaultRetries = 3
)

// ErrNoURL is returned by NewRedis when the URL is empty.
var ErrNoURL = errors.New("redis publisher requires a URL")

// RedisConfig configures the Redis publisher.
type RedisConfig struct {
	// URL format: redis://[:password@]host:port[/db]
	URL     string
	Channel string
	// Timeout bounds one PUBLISH.
	Timeout time.Duration
	// Retries after the first failed attempt.
	Retries int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration
}

// Redis publishes events as JSON with Redis PUBLISH.
type Redis struct {
	config RedisConfig
	client *goredis.Client
}

// NewRedis creates a Redis publisher.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis publisher: invalid URL: %w", err)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	return &Redis{config: cfg, client: goredis.NewClient(opts)}, nil
}

// Publish implements Publisher, retrying with exponential backoff.
func (r *Redis) Publish(ctx context.Context, event *RunCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	var lastErr error
	attempts := 1 + r.config.Retries
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * r.config.Backoff
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		publishCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		lastErr = r.client.Publish(publishCtx, r.config.Channel, body).Err()
		cancel()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Publisher = (*Redis)(nil)
