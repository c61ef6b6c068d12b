package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/menu"
)

// Attachments converts the post's images into ordered bus attachments.
func (p *Post) Attachments() []bus.Attachment {
	atts := make([]bus.Attachment, 0, len(p.Images))
	for _, img := range p.Images {
		atts = append(atts, bus.Attachment{
			Filename:    fmt.Sprintf("%s-menu-%s-page-%d.png", p.Cantina.Key, menu.ISODate(p.Date), img.Page+1),
			ContentType: "image/png",
			Data:        img.PNG,
		})
	}
	return atts
}

// AutoPost publishes the scheduled menu for every auto-posted cantina.
// One cantina failing does not stop the others; the joined error tells
// the scheduler to retry.
func (w *Workflow) AutoPost(ctx context.Context, day time.Time) error {
	var errs []error
	for _, c := range w.autoPosted {
		if err := w.autoPostOne(ctx, c, day); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Key, err))
		}
	}
	return errors.Join(errs...)
}

func (w *Workflow) autoPostOne(ctx context.Context, c menu.Cantina, day time.Time) error {
	// A manual post earlier today counts; retries must not double-post.
	if w.store.LastAutoPost(c.Key) == menu.ISODate(day) {
		w.log.Info("Menu already posted today, skipping",
			zap.String("cantina", c.Key),
			zap.String("date", menu.ISODate(day)))
		return nil
	}

	post, err := w.ResolveAuto(ctx, c, day)
	if err != nil {
		w.log.Error("Scheduled menu unavailable",
			zap.String("cantina", c.Key),
			zap.String("date", menu.ISODate(day)),
			zap.Error(err))
		// Best-effort notice; the fetch error is what matters.
		w.broadcast(ctx, menu.FailureMessage(c), nil)
		return err
	}

	if err := w.broadcast(ctx, post.Caption, post.Attachments()); err != nil {
		return err
	}

	if err := w.store.MarkAutoPost(c.Key, menu.ISODate(day)); err != nil {
		w.log.Warn("Failed to persist auto-post state", zap.Error(err))
	}

	w.log.Info("Posted scheduled menu",
		zap.String("cantina", c.Key),
		zap.String("date", menu.ISODate(post.Date)),
		zap.Int("pages", len(post.Images)),
		zap.Bool("from_cache", post.FromCache))
	return nil
}

// broadcast sends one message to every enabled channel.
func (w *Workflow) broadcast(ctx context.Context, content string, atts []bus.Attachment) error {
	var errs []error
	for _, target := range w.targets {
		msg := &bus.Message{
			ID:          uuid.NewString(),
			ChannelID:   target,
			Content:     content,
			Attachments: atts,
			Timestamp:   w.now(),
		}
		if target == "discord" {
			// Follow the conversation the last manual post landed in.
			msg.ChatID = w.store.PreferredChannel()
		}
		if err := w.bus.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target, err))
		}
	}
	return errors.Join(errs...)
}
