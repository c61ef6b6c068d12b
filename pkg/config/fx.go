package config

import (
	"go.uber.org/fx"
)

// Module provides configuration for fx dependency injection.
var Module = fx.Module("config",
	fx.Provide(ProvideConfig),
)

// ProvideConfig loads and validates the configuration. A validation
// failure aborts application startup before any channel connects.
func ProvideConfig() (*Config, error) {
	loader := NewLoader()

	cfg, err := loader.Load("")
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
