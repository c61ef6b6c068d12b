package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the logger for fx dependency injection.
var Module = fx.Module("logger",
	fx.Provide(ProvideLogger),
)

// ProvideLogger provides a logger instance for dependency injection.
func ProvideLogger(lc fx.Lifecycle) (*Logger, error) {
	cfg := DefaultConfig()
	cfg.Development = true

	log, err := New(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Logger initialized", zap.String("level", string(cfg.Level)))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return log.Sync()
		},
	})

	return log, nil
}
