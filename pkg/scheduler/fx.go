package scheduler

import (
	"context"

	"go.uber.org/fx"

	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/workflow"
)

// Module provides the daily post scheduler.
var Module = fx.Module("scheduler",
	fx.Provide(newScheduler),
	fx.Invoke(run),
)

func newScheduler(log *logger.Logger, w *workflow.Workflow, cfg *config.Config) *Scheduler {
	return New(log, w, cfg)
}

func run(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop()
		},
	})
}
