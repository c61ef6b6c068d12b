package cache

import (
	"context"

	"go.uber.org/fx"

	"cantinabot/pkg/config"
)

// Module is the fx module for the menu cache.
var Module = fx.Module("cache",
	fx.Provide(NewFromConfig),
)

// NewFromConfig creates the configured cache for fx.
func NewFromConfig(lc fx.Lifecycle, cfg *config.Config) (Cache, error) {
	c, err := New(&Config{
		Backend:       Backend(cfg.Cache.Backend),
		RetentionDays: cfg.Cache.RetentionDays,
		RedisAddr:     cfg.Cache.Redis.Addr,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		RedisPrefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})

	return c, nil
}
