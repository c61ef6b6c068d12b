package workflow

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/cache"
	"cantinabot/pkg/commands"
	"cantinabot/pkg/config"
	"cantinabot/pkg/convert"
	"cantinabot/pkg/fetch"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/state"
)

// Module provides the menu workflow and its pipeline pieces.
var Module = fx.Module("workflow",
	fx.Provide(newFetcher),
	fx.Provide(newConverter),
	fx.Provide(newStore),
	fx.Provide(newWorkflow),
	fx.Invoke(registerMenuCommands),
)

func newFetcher(log *logger.Logger, cfg *config.Config) Fetcher {
	return fetch.New(log, cfg.Fetch)
}

func newConverter() Converter {
	return convert.New(0)
}

func newStore(cfg *config.Config) (*state.Store, error) {
	return state.Open(cfg.State.FilePath)
}

func newWorkflow(
	log *logger.Logger,
	fetcher Fetcher,
	cch cache.Cache,
	converter Converter,
	store *state.Store,
	b bus.Bus,
	cfg *config.Config,
) *Workflow {
	return New(log, fetcher, cch, converter, store, b, cfg)
}

func registerMenuCommands(w *Workflow, registry *commands.Registry, log *logger.Logger) error {
	if err := w.RegisterMenuCommands(registry); err != nil {
		log.Error("Failed to register menu commands", zap.Error(err))
		return err
	}
	log.Info("Registered menu commands")
	return nil
}
