package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cantinabot/pkg/commands"
	"cantinabot/pkg/menu"
)

// RegisterMenuCommands registers the on-demand menu commands. The bare
// meniu command is an alias for the default cantina.
func (w *Workflow) RegisterMenuCommands(registry *commands.Registry) error {
	cmds := []*commands.Command{
		{
			Name:        "meniu",
			Description: "Post today's Gaudeamus menu",
			Usage:       "/meniu [YYYY-MM-DD]",
			Handler:     w.menuHandler(menu.DefaultKey),
		},
		{
			Name:        "meniu-gau",
			Description: "Post today's Gaudeamus menu",
			Usage:       "/meniu-gau [YYYY-MM-DD]",
			Handler:     w.menuHandler("gau"),
		},
		{
			Name:        "meniu-titu",
			Description: "Post today's Titu Maiorescu menu",
			Usage:       "/meniu-titu [YYYY-MM-DD]",
			Handler:     w.menuHandler("titu"),
		},
		{
			Name:        "meniu-aka",
			Description: "Post today's Akademos menu",
			Usage:       "/meniu-aka [YYYY-MM-DD]",
			Handler:     w.menuHandler("aka"),
		},
	}

	for _, cmd := range cmds {
		if err := registry.Register(cmd); err != nil {
			return fmt.Errorf("failed to register %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func (w *Workflow) menuHandler(key string) commands.CommandHandler {
	return func(ctx context.Context, req commands.CommandRequest) (commands.CommandResponse, error) {
		c, ok := menu.Lookup(key)
		if !ok {
			return commands.CommandResponse{}, fmt.Errorf("unknown cantina %q", key)
		}

		var post *Post
		var err error
		if args := strings.TrimSpace(req.Args); args != "" {
			day, perr := time.ParseInLocation("2006-01-02", args, w.loc)
			if perr != nil {
				return commands.CommandResponse{
					Content: fmt.Sprintf("I didn't understand the date %q. Use YYYY-MM-DD.", args),
				}, nil
			}
			post, err = w.ResolveDate(ctx, c, day)
		} else {
			post, err = w.ResolveCommand(ctx, c)
		}
		if err != nil {
			w.log.Warn("Menu command could not resolve a menu",
				zap.String("cantina", c.Key),
				zap.String("channel", req.Channel),
				zap.Error(err))
			return commands.CommandResponse{Content: menu.FailureMessage(c)}, nil
		}

		files := make([]commands.File, 0, len(post.Images))
		for _, att := range post.Attachments() {
			files = append(files, commands.File{
				Name:        att.Filename,
				ContentType: att.ContentType,
				Data:        att.Data,
			})
		}

		w.recordManualPost(c, post, req)

		return commands.CommandResponse{
			Content: post.Caption,
			Files:   files,
		}, nil
	}
}

// recordManualPost treats a successful same-day manual post of an
// auto-posted cantina as satisfying today's schedule, and remembers the
// conversation for future scheduled posts.
func (w *Workflow) recordManualPost(c menu.Cantina, post *Post, req commands.CommandRequest) {
	if !c.AutoPost {
		return
	}
	now := w.Now()
	if !menu.SameDay(post.Date, now) {
		return
	}

	if err := w.store.MarkAutoPost(c.Key, menu.ISODate(now)); err != nil {
		w.log.Warn("Failed to persist manual post state", zap.Error(err))
	}
	if req.Channel == "discord" && req.ChatID != "" {
		if err := w.store.SetPreferredChannel(req.ChatID); err != nil {
			w.log.Warn("Failed to persist preferred channel", zap.Error(err))
		}
	}
}
