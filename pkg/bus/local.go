package bus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cantinabot/pkg/logger"
)

// LocalBus routes messages to in-process channel handlers.
type LocalBus struct {
	log      *logger.Logger
	mu       sync.RWMutex
	handlers map[string][]Handler

	metricsMu sync.Mutex
	sent      uint64
	failed    uint64
}

// NewLocalBus creates a local in-process bus.
func NewLocalBus(log *logger.Logger) *LocalBus {
	return &LocalBus{
		log:      log,
		handlers: make(map[string][]Handler),
	}
}

// RegisterHandler registers a delivery handler for a channel.
func (b *LocalBus) RegisterHandler(channelID string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channelID] = append(b.handlers[channelID], handler)
}

// UnregisterHandlers removes all handlers for a channel.
func (b *LocalBus) UnregisterHandlers(channelID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, channelID)
}

// Send delivers the message to every handler registered for its channel.
// Handlers run in registration order; the first error stops delivery and
// is returned to the caller.
func (b *LocalBus) Send(ctx context.Context, msg *Message) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[msg.ChannelID]))
	copy(handlers, b.handlers[msg.ChannelID])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.count(&b.failed)
		return fmt.Errorf("no handler registered for channel %q", msg.ChannelID)
	}

	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			b.count(&b.failed)
			b.log.Error("message delivery failed",
				zap.String("channel", msg.ChannelID),
				zap.String("message_id", msg.ID),
				zap.Error(err))
			return err
		}
	}

	b.count(&b.sent)
	return nil
}

// Metrics returns current bus counters.
func (b *LocalBus) Metrics() map[string]uint64 {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	return map[string]uint64{
		"sent":   b.sent,
		"failed": b.failed,
	}
}

func (b *LocalBus) count(c *uint64) {
	b.metricsMu.Lock()
	*c++
	b.metricsMu.Unlock()
}
