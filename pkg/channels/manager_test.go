package channels

import (
	"context"
	"sync"
	"testing"
	"time"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/logger"
)

type fakeChannel struct {
	id      string
	enabled bool

	mu      sync.Mutex
	started bool
	stopped bool
	sent    []*bus.Message
}

func (f *fakeChannel) ID() string      { return f.id }
func (f *fakeChannel) Name() string    { return f.id }
func (f *fakeChannel) IsEnabled() bool { return f.enabled }

func (f *fakeChannel) Start(ctx context.Context) error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) Stop(ctx context.Context) error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) SendMessage(ctx context.Context, msg *bus.Message) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) wasStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func TestManager_RegisterDuplicate(t *testing.T) {
	m := NewManager(logger.Nop(), bus.NewLocalBus(logger.Nop()))

	if err := m.Register(&fakeChannel{id: "discord", enabled: true}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Register(&fakeChannel{id: "discord", enabled: true}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestManager_StartWiresChannelsToBus(t *testing.T) {
	b := bus.NewLocalBus(logger.Nop())
	m := NewManager(logger.Nop(), b)

	enabled := &fakeChannel{id: "discord", enabled: true}
	disabled := &fakeChannel{id: "telegram", enabled: false}
	m.Register(enabled)
	m.Register(disabled)

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	deadline := time.After(time.Second)
	for !enabled.wasStarted() {
		select {
		case <-deadline:
			t.Fatal("enabled channel never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if disabled.wasStarted() {
		t.Error("disabled channel should not start")
	}

	msg := &bus.Message{ID: "m1", ChannelID: "discord", Content: "menu"}
	if err := b.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send through bus: %v", err)
	}

	enabled.mu.Lock()
	defer enabled.mu.Unlock()
	if len(enabled.sent) != 1 || enabled.sent[0].Content != "menu" {
		t.Errorf("message did not reach the channel: %+v", enabled.sent)
	}

	if err := b.Send(context.Background(), &bus.Message{ID: "m2", ChannelID: "telegram"}); err == nil {
		t.Error("disabled channel should have no bus handler")
	}
}

func TestManager_StopUnregistersHandlers(t *testing.T) {
	b := bus.NewLocalBus(logger.Nop())
	m := NewManager(logger.Nop(), b)
	m.Register(&fakeChannel{id: "discord", enabled: true})

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := b.Send(context.Background(), &bus.Message{ID: "m1", ChannelID: "discord"}); err == nil {
		t.Error("handler should be unregistered after Stop")
	}
}
