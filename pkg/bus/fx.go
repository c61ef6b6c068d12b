package bus

import (
	"go.uber.org/fx"

	"cantinabot/pkg/logger"
)

// Module is the fx module for the message bus.
var Module = fx.Module("bus",
	fx.Provide(NewBus),
)

// NewBus creates the message bus for fx.
func NewBus(log *logger.Logger) Bus {
	return NewLocalBus(log)
}
