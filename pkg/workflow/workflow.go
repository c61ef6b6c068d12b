// Package workflow orchestrates the menu pipeline: choose candidate
// dates, consult the cache, fetch missing PDFs, rasterize them and hand
// finished posts to the channels.
package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/cache"
	"cantinabot/pkg/config"
	"cantinabot/pkg/convert"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/menu"
	"cantinabot/pkg/state"
)

// ErrNoMenu means no candidate date produced a usable menu.
var ErrNoMenu = errors.New("no menu available")

// Fetcher downloads the menu PDF for a cantina and day.
type Fetcher interface {
	Fetch(ctx context.Context, c menu.Cantina, day time.Time) ([]byte, error)
}

// Converter rasterizes a PDF into page images.
type Converter interface {
	Convert(pdf []byte) ([]convert.Image, error)
}

// Post is a resolved menu ready for publishing.
type Post struct {
	Cantina menu.Cantina
	// Scenario the post was resolved under.
	Scenario menu.Scenario
	// Date is the day whose menu was actually found.
	Date time.Time
	// RequestDate is the day the request was about.
	RequestDate time.Time
	// FromCache is set when the PDF came from the cache.
	FromCache bool
	// Caption is the post text.
	Caption string
	// Images are the rasterized pages, in page order.
	Images []convert.Image
}

// Workflow ties the fetcher, cache and converter together.
type Workflow struct {
	log       *logger.Logger
	fetcher   Fetcher
	cache     cache.Cache
	converter Converter
	store     *state.Store
	bus       bus.Bus
	loc       *time.Location
	targets   []string
	group     singleflight.Group

	// autoPosted is the set of cantinas included in the scheduled post.
	autoPosted []menu.Cantina

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a Workflow.
func New(
	log *logger.Logger,
	fetcher Fetcher,
	cch cache.Cache,
	converter Converter,
	store *state.Store,
	b bus.Bus,
	cfg *config.Config,
) *Workflow {
	var targets []string
	if cfg.Channels.Discord.Enabled {
		targets = append(targets, "discord")
	}
	if cfg.Channels.Telegram.Enabled {
		targets = append(targets, "telegram")
	}

	return &Workflow{
		log:        log,
		fetcher:    fetcher,
		cache:      cch,
		converter:  converter,
		store:      store,
		bus:        b,
		loc:        cfg.Location(),
		targets:    targets,
		autoPosted: menu.AutoPosted(),
		now:        time.Now,
	}
}

// Now returns the current time in the cantina timezone.
func (w *Workflow) Now() time.Time {
	return w.now().In(w.loc)
}

// ResolveCommand resolves the menu for an on-demand request made now.
func (w *Workflow) ResolveCommand(ctx context.Context, c menu.Cantina) (*Post, error) {
	now := w.Now()
	scenario, candidates := c.Situation(now)
	return w.Resolve(ctx, c, scenario, candidates, menu.Day(now))
}

// ResolveDate resolves the menu for an explicitly requested day, with no
// fallback to other dates.
func (w *Workflow) ResolveDate(ctx context.Context, c menu.Cantina, day time.Time) (*Post, error) {
	day = menu.Day(day)
	return w.Resolve(ctx, c, menu.ScenarioOpen, []time.Time{day}, menu.Day(w.Now()))
}

// ResolveAuto resolves strictly the given day's menu for the scheduled
// post. No fallback dates; a missing upload is an error so the caller
// can retry later.
func (w *Workflow) ResolveAuto(ctx context.Context, c menu.Cantina, day time.Time) (*Post, error) {
	day = menu.Day(day)
	return w.Resolve(ctx, c, menu.ScenarioAuto, []time.Time{day}, day)
}

// Resolve walks the candidate dates newest first and returns the first
// one with a convertible menu. Weekend dates are skipped.
func (w *Workflow) Resolve(
	ctx context.Context,
	c menu.Cantina,
	scenario menu.Scenario,
	candidates []time.Time,
	requestDate time.Time,
) (*Post, error) {
	seen := make(map[string]struct{})
	var lastErr error

	for _, day := range candidates {
		day = menu.Day(day)
		if menu.IsWeekend(day) {
			continue
		}
		iso := menu.ISODate(day)
		if _, dup := seen[iso]; dup {
			continue
		}
		seen[iso] = struct{}{}

		pdf, fromCache, err := w.menuPDF(ctx, c, day)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		images, err := w.converter.Convert(pdf)
		if err != nil {
			// A corrupt upload; an earlier day may still work.
			w.log.Error("Menu PDF conversion failed",
				zap.String("cantina", c.Key),
				zap.String("date", iso),
				zap.Error(err))
			lastErr = err
			continue
		}

		return &Post{
			Cantina:     c,
			Scenario:    scenario,
			Date:        day,
			RequestDate: requestDate,
			FromCache:   fromCache,
			Caption:     menu.Caption(c, scenario, day, requestDate, fromCache),
			Images:      images,
		}, nil
	}

	if lastErr == nil {
		lastErr = ErrNoMenu
	}
	return nil, lastErr
}

type pdfResult struct {
	pdf       []byte
	fromCache bool
}

// menuPDF returns the raw PDF for one cantina and day, from the cache
// when present. Concurrent requests for the same key share one fetch.
func (w *Workflow) menuPDF(ctx context.Context, c menu.Cantina, day time.Time) ([]byte, bool, error) {
	key := cache.Key{Cantina: c.Key, Date: menu.ISODate(day)}

	v, err, _ := w.group.Do(key.String(), func() (interface{}, error) {
		entry, ok, err := w.cache.Get(ctx, key)
		if err != nil {
			w.log.Warn("Cache lookup failed", zap.String("key", key.String()), zap.Error(err))
		}
		if ok {
			return pdfResult{pdf: entry.PDF, fromCache: true}, nil
		}

		pdf, err := w.fetcher.Fetch(ctx, c, day)
		if err != nil {
			return nil, err
		}

		if err := w.cache.Put(ctx, key, pdf); err != nil {
			w.log.Warn("Cache store failed", zap.String("key", key.String()), zap.Error(err))
		}
		return pdfResult{pdf: pdf, fromCache: false}, nil
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(pdfResult)
	return res.pdf, res.fromCache, nil
}
