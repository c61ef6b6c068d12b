package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Redis is an optional shared cache backend; useful when several bot
// instances should not fetch the same menu independently.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a redis-backed cache.
func NewRedis(cfg *RedisConfig) *Redis {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "cantinabot:menu"
	}

	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
		ttl:    cfg.TTL,
	}
}

func (r *Redis) key(key Key) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

// Get returns the cached PDF for the key, if present.
func (r *Redis) Get(ctx context.Context, key Key) (Entry, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	return Entry{PDF: data}, true, nil
}

// Put stores the PDF for the key with the retention TTL.
func (r *Redis) Put(ctx context.Context, key Key, pdf []byte) error {
	if err := r.client.Set(ctx, r.key(key), pdf, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
