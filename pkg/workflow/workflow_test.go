package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/cache"
	"cantinabot/pkg/commands"
	"cantinabot/pkg/config"
	"cantinabot/pkg/convert"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/menu"
	"cantinabot/pkg/state"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	pdfs   map[string][]byte // ISO date -> pdf bytes
	err    error
	errFor map[string]error // cantina key -> error
}

func (f *fakeFetcher) Fetch(ctx context.Context, c menu.Cantina, day time.Time) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.errFor[c.Key]; ok {
		return nil, err
	}
	if pdf, ok := f.pdfs[menu.ISODate(day)]; ok {
		return pdf, nil
	}
	return nil, fmt.Errorf("no upload for %s", menu.ISODate(day))
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeConverter renders a fixed number of pages whose bytes embed the
// source PDF, keeping the output distinguishable per input.
type fakeConverter struct {
	pages int
}

func (f *fakeConverter) Convert(pdf []byte) ([]convert.Image, error) {
	if string(pdf) == "corrupt" {
		return nil, &convert.Error{Err: errors.New("broken upload")}
	}
	images := make([]convert.Image, 0, f.pages)
	for n := 0; n < f.pages; n++ {
		images = append(images, convert.Image{Page: n, PNG: append([]byte("png:"), pdf...)})
	}
	return images, nil
}

type capture struct {
	mu       sync.Mutex
	messages []*bus.Message
}

func (c *capture) handler(err error) bus.Handler {
	return func(ctx context.Context, msg *bus.Message) error {
		c.mu.Lock()
		c.messages = append(c.messages, msg)
		c.mu.Unlock()
		return err
	}
}

func (c *capture) all() []*bus.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*bus.Message(nil), c.messages...)
}

// Wednesday at lunch, both cantinas open.
var testNow = func() time.Time {
	loc, _ := time.LoadLocation("Europe/Bucharest")
	return time.Date(2024, 1, 17, 12, 0, 0, 0, loc)
}

func newTestWorkflow(t *testing.T, fetcher *fakeFetcher, telegramEnabled bool) (*Workflow, bus.Bus, *state.Store) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Channels.Discord.Enabled = true
	cfg.Channels.Telegram.Enabled = telegramEnabled
	cfg.State.FilePath = filepath.Join(t.TempDir(), "state.json")

	store, err := state.Open(cfg.State.FilePath)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}

	b := bus.NewLocalBus(logger.Nop())
	w := New(logger.Nop(), fetcher, cache.NewMemory(24*time.Hour), &fakeConverter{pages: 2}, store, b, cfg)
	w.now = testNow

	return w, b, store
}

func TestResolveCommand_SecondCallHitsCache(t *testing.T) {
	today := menu.ISODate(menu.Day(testNow()))
	fetcher := &fakeFetcher{pdfs: map[string][]byte{today: []byte("%PDF-gau")}}
	w, _, _ := newTestWorkflow(t, fetcher, false)

	first, err := w.ResolveCommand(context.Background(), menu.Default())
	if err != nil {
		t.Fatalf("first ResolveCommand: %v", err)
	}
	if first.FromCache {
		t.Error("first resolution should not come from cache")
	}

	second, err := w.ResolveCommand(context.Background(), menu.Default())
	if err != nil {
		t.Fatalf("second ResolveCommand: %v", err)
	}
	if !second.FromCache {
		t.Error("second resolution should come from cache")
	}
	if !strings.Contains(second.Caption, "(from cache)") {
		t.Errorf("caption should note the cache: %q", second.Caption)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("expected a single upstream fetch, got %d", fetcher.callCount())
	}
}

func TestResolveCommand_FallsBackToPreviousWeekday(t *testing.T) {
	yesterday := menu.Day(testNow()).AddDate(0, 0, -1)
	fetcher := &fakeFetcher{pdfs: map[string][]byte{menu.ISODate(yesterday): []byte("%PDF-old")}}
	w, _, _ := newTestWorkflow(t, fetcher, false)

	post, err := w.ResolveCommand(context.Background(), menu.Default())
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if !menu.SameDay(post.Date, yesterday) {
		t.Errorf("expected fallback to %s, got %s", menu.ISODate(yesterday), menu.ISODate(post.Date))
	}
	if !strings.Contains(post.Caption, menu.HumanDate(yesterday)) {
		t.Errorf("caption should name the fallback date: %q", post.Caption)
	}
}

func TestResolve_SkipsCorruptUpload(t *testing.T) {
	today := menu.Day(testNow())
	yesterday := today.AddDate(0, 0, -1)
	fetcher := &fakeFetcher{pdfs: map[string][]byte{
		menu.ISODate(today):     []byte("corrupt"),
		menu.ISODate(yesterday): []byte("%PDF-old"),
	}}
	w, _, _ := newTestWorkflow(t, fetcher, false)

	post, err := w.ResolveCommand(context.Background(), menu.Default())
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if !menu.SameDay(post.Date, yesterday) {
		t.Errorf("expected the previous day's menu, got %s", menu.ISODate(post.Date))
	}
}

func TestAutoPost_BroadcastsAndMarksState(t *testing.T) {
	today := menu.Day(testNow())
	fetcher := &fakeFetcher{pdfs: map[string][]byte{menu.ISODate(today): []byte("%PDF-gau")}}
	w, b, store := newTestWorkflow(t, fetcher, false)

	var got capture
	b.RegisterHandler("discord", got.handler(nil))

	if err := w.AutoPost(context.Background(), today); err != nil {
		t.Fatalf("AutoPost: %v", err)
	}

	msgs := got.all()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if len(msgs[0].Attachments) != 2 {
		t.Fatalf("expected 2 page attachments, got %d", len(msgs[0].Attachments))
	}
	for i, att := range msgs[0].Attachments {
		want := fmt.Sprintf("gau-menu-%s-page-%d.png", menu.ISODate(today), i+1)
		if att.Filename != want {
			t.Errorf("attachment %d: got %q, want %q", i, att.Filename, want)
		}
	}
	if !strings.Contains(msgs[0].Content, "today's Gaudeamus menu") {
		t.Errorf("unexpected caption %q", msgs[0].Content)
	}

	if store.LastAutoPost("gau") != menu.ISODate(today) {
		t.Errorf("auto-post not recorded, state has %q", store.LastAutoPost("gau"))
	}
}

func TestAutoPost_FailureSendsNoticeAndErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	w, b, store := newTestWorkflow(t, fetcher, false)

	var got capture
	b.RegisterHandler("discord", got.handler(nil))

	if err := w.AutoPost(context.Background(), menu.Day(testNow())); err == nil {
		t.Fatal("expected AutoPost error")
	}

	msgs := got.all()
	if len(msgs) != 1 {
		t.Fatalf("expected a failure notice, got %d messages", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, "couldn't fetch the Gaudeamus menu") {
		t.Errorf("unexpected notice %q", msgs[0].Content)
	}
	if store.LastAutoPost("gau") != "" {
		t.Error("failed auto-post must not be recorded")
	}
}

func TestAutoPost_CantinaFailureDoesNotStopOthers(t *testing.T) {
	today := menu.Day(testNow())
	fetcher := &fakeFetcher{
		pdfs:   map[string][]byte{menu.ISODate(today): []byte("%PDF-titu")},
		errFor: map[string]error{"gau": errors.New("gau upstream down")},
	}
	w, b, store := newTestWorkflow(t, fetcher, false)

	gau, _ := menu.Lookup("gau")
	titu, _ := menu.Lookup("titu")
	w.autoPosted = []menu.Cantina{gau, titu}

	var got capture
	b.RegisterHandler("discord", got.handler(nil))

	err := w.AutoPost(context.Background(), today)
	if err == nil {
		t.Fatal("expected the gau failure to surface")
	}
	if !strings.Contains(err.Error(), "gau") {
		t.Errorf("error should name the failed cantina: %v", err)
	}

	var tituPost *bus.Message
	for _, msg := range got.all() {
		if strings.Contains(msg.Content, "Titu Maiorescu") && len(msg.Attachments) > 0 {
			tituPost = msg
		}
	}
	if tituPost == nil {
		t.Fatal("titu menu was not published despite gau failing")
	}
	if len(tituPost.Attachments) != 2 {
		t.Errorf("expected 2 page attachments for titu, got %d", len(tituPost.Attachments))
	}

	if store.LastAutoPost("titu") != menu.ISODate(today) {
		t.Error("titu post not recorded")
	}
	if store.LastAutoPost("gau") != "" {
		t.Error("failed gau post must not be recorded")
	}
}

func TestAutoPost_ChannelFailureDoesNotStopOthers(t *testing.T) {
	today := menu.Day(testNow())
	fetcher := &fakeFetcher{pdfs: map[string][]byte{menu.ISODate(today): []byte("%PDF-gau")}}
	w, b, _ := newTestWorkflow(t, fetcher, true)

	var discord, telegram capture
	b.RegisterHandler("discord", discord.handler(errors.New("missing permission")))
	b.RegisterHandler("telegram", telegram.handler(nil))

	err := w.AutoPost(context.Background(), today)
	if err == nil {
		t.Fatal("expected the discord failure to surface")
	}
	if len(telegram.all()) != 1 {
		t.Errorf("telegram should still receive the post, got %d messages", len(telegram.all()))
	}
}

func TestMenuHandler_ReturnsImagesAndResetsSchedule(t *testing.T) {
	today := menu.Day(testNow())
	fetcher := &fakeFetcher{pdfs: map[string][]byte{menu.ISODate(today): []byte("%PDF-gau")}}
	w, _, store := newTestWorkflow(t, fetcher, false)

	registry := commands.NewRegistry()
	if err := w.RegisterMenuCommands(registry); err != nil {
		t.Fatalf("RegisterMenuCommands: %v", err)
	}

	cmd, ok := registry.Get("meniu")
	if !ok {
		t.Fatal("meniu not registered")
	}

	resp, err := cmd.Handler(context.Background(), commands.CommandRequest{
		Channel: "discord",
		ChatID:  "123456",
	})
	if err != nil {
		t.Fatalf("meniu handler: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(resp.Files))
	}
	if resp.Files[0].Name >= resp.Files[1].Name {
		t.Errorf("files out of page order: %q, %q", resp.Files[0].Name, resp.Files[1].Name)
	}

	if store.LastAutoPost("gau") != menu.ISODate(today) {
		t.Error("same-day manual post should satisfy today's schedule")
	}
	if store.PreferredChannel() != "123456" {
		t.Errorf("preferred channel not recorded, got %q", store.PreferredChannel())
	}
}

func TestMenuHandler_ExplicitDateArgument(t *testing.T) {
	monday := menu.Day(testNow()).AddDate(0, 0, -2) // 2024-01-15
	fetcher := &fakeFetcher{pdfs: map[string][]byte{menu.ISODate(monday): []byte("%PDF-old")}}
	w, _, store := newTestWorkflow(t, fetcher, false)

	registry := commands.NewRegistry()
	if err := w.RegisterMenuCommands(registry); err != nil {
		t.Fatalf("RegisterMenuCommands: %v", err)
	}

	cmd, _ := registry.Get("meniu")
	resp, err := cmd.Handler(context.Background(), commands.CommandRequest{
		Channel: "discord",
		Args:    menu.ISODate(monday),
	})
	if err != nil {
		t.Fatalf("meniu handler: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(resp.Files))
	}
	if !strings.Contains(resp.Content, menu.HumanDate(monday)) {
		t.Errorf("caption should name the requested date: %q", resp.Content)
	}
	if store.LastAutoPost("gau") != "" {
		t.Error("a past-date post must not satisfy today's schedule")
	}
}

func TestMenuHandler_BadDateArgument(t *testing.T) {
	fetcher := &fakeFetcher{}
	w, _, _ := newTestWorkflow(t, fetcher, false)

	registry := commands.NewRegistry()
	if err := w.RegisterMenuCommands(registry); err != nil {
		t.Fatalf("RegisterMenuCommands: %v", err)
	}

	cmd, _ := registry.Get("meniu")
	resp, err := cmd.Handler(context.Background(), commands.CommandRequest{
		Channel: "discord",
		Args:    "tomorrow",
	})
	if err != nil {
		t.Fatalf("meniu handler: %v", err)
	}
	if !strings.Contains(resp.Content, "YYYY-MM-DD") {
		t.Errorf("expected date-format hint, got %q", resp.Content)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("bad date must not trigger a fetch, got %d calls", fetcher.callCount())
	}
}

func TestMenuHandler_FailureRepliesWithMessage(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	w, _, _ := newTestWorkflow(t, fetcher, false)

	registry := commands.NewRegistry()
	if err := w.RegisterMenuCommands(registry); err != nil {
		t.Fatalf("RegisterMenuCommands: %v", err)
	}

	cmd, _ := registry.Get("meniu-titu")
	resp, err := cmd.Handler(context.Background(), commands.CommandRequest{Channel: "discord"})
	if err != nil {
		t.Fatalf("handler should reply instead of failing: %v", err)
	}
	if !strings.Contains(resp.Content, "couldn't fetch the Titu Maiorescu menu") {
		t.Errorf("unexpected failure reply %q", resp.Content)
	}
}
