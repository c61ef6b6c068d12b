package channels

import (
	"context"

	"go.uber.org/fx"

	"cantinabot/pkg/channels/discord"
	"cantinabot/pkg/channels/telegram"
	"cantinabot/pkg/commands"
	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
)

// Module provides the channel manager with every configured channel
// registered.
var Module = fx.Module("channels",
	fx.Provide(NewManager),
	fx.Invoke(registerChannels),
	fx.Invoke(run),
)

// registerChannels builds and registers the channels enabled in the
// configuration.
func registerChannels(
	m *Manager,
	log *logger.Logger,
	cfg *config.Config,
	registry *commands.Registry,
) error {
	if cfg.Channels.Discord.Enabled {
		ch, err := discord.NewChannel(log, cfg.Channels.Discord, registry)
		if err != nil {
			return err
		}
		if err := m.Register(ch); err != nil {
			return err
		}
	}

	if cfg.Channels.Telegram.Enabled {
		ch, err := telegram.NewChannel(log, cfg.Channels.Telegram, registry)
		if err != nil {
			return err
		}
		if err := m.Register(ch); err != nil {
			return err
		}
	}

	return nil
}

func run(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return m.Start()
		},
		OnStop: func(ctx context.Context) error {
			return m.Stop()
		},
	})
}
