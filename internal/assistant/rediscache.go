package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisCacheConfig configures Redis-backed thread caching.
type RedisCacheConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisCache stores subject-to-thread mappings in Redis so summaries survive
// a dashboard restart and can be shared across replicas.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache constructs a Redis-backed thread cache.
func NewRedisCache(cfg RedisCacheConfig) (*RedisCache, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "secdash:threads"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis thread cache: %w", err)
	}

	return &RedisCache{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix), ttl: cfg.TTL}, nil
}

// Get returns the cached thread ID for a subject.
func (c *RedisCache) Get(ctx context.Context, subject string) (string, bool, error) {
	id, err := c.client.Get(ctx, c.key(subject)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read thread cache: %w", err)
	}
	return id, true, nil
}

// Set stores the thread ID for a subject.
func (c *RedisCache) Set(ctx context.Context, subject, threadID string) error {
	if err := c.client.Set(ctx, c.key(subject), threadID, c.ttl).Err(); err != nil {
		return fmt.Errorf("write thread cache: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(subject string) string {
	return c.prefix + ":" + subject
}
