// Package cache stores the most recently fetched menu PDF per cantina
// and date. At most one entry is retained per key; the last successful
// fetch wins. The cache is not durable and a restart starting empty is
// fine.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Key identifies a cached menu.
type Key struct {
	Cantina string
	// Date is the menu date in ISO form (YYYY-MM-DD).
	Date string
}

func (k Key) String() string {
	return k.Cantina + ":" + k.Date
}

// Entry is a cached menu PDF.
type Entry struct {
	PDF       []byte
	FetchedAt time.Time
}

// Cache is the menu cache interface.
type Cache interface {
	// Get returns the cached PDF for the key, if present.
	Get(ctx context.Context, key Key) (Entry, bool, error)

	// Put stores the PDF for the key, replacing any previous entry.
	Put(ctx context.Context, key Key, pdf []byte) error

	// Close releases backend resources.
	Close() error
}

// Backend selects the cache implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config configures the cache.
type Config struct {
	Backend       Backend
	RetentionDays int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// New creates a cache based on configuration.
func New(cfg *Config) (Cache, error) {
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(retention), nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for redis cache")
		}
		return NewRedis(&RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      retention,
		}), nil

	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
