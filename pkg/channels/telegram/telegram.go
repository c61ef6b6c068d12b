// Package telegram provides the Telegram channel implementation.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/commands"
	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
)

const commandTimeout = 2 * time.Minute

// mediaGroupLimit is Telegram's cap on album size.
const mediaGroupLimit = 10

// Channel implements the Telegram channel.
type Channel struct {
	log      *logger.Logger
	commands *commands.Registry
	config   config.TelegramConfig

	bot      *tgbotapi.BotAPI
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewChannel creates a new Telegram channel.
func NewChannel(log *logger.Logger, cfg config.TelegramConfig, registry *commands.Registry) (*Channel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Channel{
		log:      log,
		commands: registry,
		config:   cfg,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return "telegram"
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "Telegram"
}

// IsEnabled returns whether the channel is enabled.
func (c *Channel) IsEnabled() bool {
	return c.config.Enabled
}

// Start starts the Telegram bot and begins long polling for commands.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("Starting Telegram channel")

	// Keep the HTTP timeout longer than the long-poll timeout to avoid
	// periodic forced reconnects.
	httpClient := &http.Client{Timeout: 75 * time.Second}

	bot, err := tgbotapi.NewBotAPIWithClient(c.config.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return fmt.Errorf("creating telegram bot: %w", err)
	}

	c.bot = bot
	c.stopOnce = sync.Once{}
	c.bot.Debug = false

	c.log.Info("Telegram bot connected",
		zap.String("username", bot.Self.UserName))
	c.syncSlashCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 50

	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				msg := *update.Message
				go c.handleMessage(&msg)
			}

		case <-ctx.Done():
			c.log.Info("Telegram channel stopping")
			c.stopReceivingUpdates()
			return nil

		case <-c.ctx.Done():
			c.log.Info("Telegram channel stopping")
			c.stopReceivingUpdates()
			return nil
		}
	}
}

// Stop stops the Telegram channel.
func (c *Channel) Stop(ctx context.Context) error {
	c.log.Info("Stopping Telegram channel")
	c.cancel()
	c.stopReceivingUpdates()

	return nil
}

func (c *Channel) stopReceivingUpdates() {
	if c.bot == nil {
		return
	}
	c.stopOnce.Do(func() {
		c.bot.StopReceivingUpdates()
	})
}

// syncSlashCommands publishes the registry commands to the Telegram
// command menu. Hyphens become underscores, Telegram's only allowed
// separator.
func (c *Channel) syncSlashCommands() {
	if c.bot == nil || c.commands == nil {
		return
	}

	cmds := c.commands.List()
	telegramCmds := make([]tgbotapi.BotCommand, 0, len(cmds))
	seen := make(map[string]struct{})

	for _, cmd := range cmds {
		name := sanitizeCommandName(cmd.Name)
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}

		desc := strings.TrimSpace(cmd.Description)
		if desc == "" {
			desc = "Command"
		}
		if len(desc) > 256 {
			desc = desc[:256]
		}

		telegramCmds = append(telegramCmds, tgbotapi.BotCommand{
			Command:     name,
			Description: desc,
		})
	}

	if len(telegramCmds) == 0 {
		return
	}

	sort.Slice(telegramCmds, func(i, j int) bool {
		return telegramCmds[i].Command < telegramCmds[j].Command
	})

	if _, err := c.bot.Request(tgbotapi.NewSetMyCommands(telegramCmds...)); err != nil {
		c.log.Warn("Failed to sync Telegram commands", zap.Error(err))
		return
	}

	c.log.Info("Synced Telegram commands", zap.Int("count", len(telegramCmds)))
}

func sanitizeCommandName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune('_')
		}
		if b.Len() >= 32 {
			break
		}
	}

	return strings.Trim(b.String(), "_")
}

// handleMessage processes an incoming message.
func (c *Channel) handleMessage(message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	if !c.isAllowed(message.From.ID, message.Chat.ID, message.From.UserName) {
		c.log.Warn("Unauthorized access attempt",
			zap.Int64("user_id", message.From.ID),
			zap.String("username", message.From.UserName))
		return
	}

	name, args, ok := c.commands.Parse(message.Text)
	if !ok {
		return
	}

	cmd, exists := c.commands.Get(name)
	if !exists {
		return
	}

	c.log.Info("Executing command",
		zap.String("command", name),
		zap.String("user", message.From.UserName))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	resp, err := cmd.Handler(ctx, commands.CommandRequest{
		Channel:  c.ID(),
		ChatID:   strconv.FormatInt(message.Chat.ID, 10),
		UserID:   strconv.FormatInt(message.From.ID, 10),
		Username: message.From.UserName,
		Command:  name,
		Args:     args,
	})
	if err != nil {
		c.log.Error("Command execution failed",
			zap.String("command", name),
			zap.Error(err))
		reply := tgbotapi.NewMessage(message.Chat.ID, "❌ Command failed: "+err.Error())
		_, _ = c.bot.Send(reply)
		return
	}

	if err := c.sendResponse(message.Chat.ID, resp); err != nil {
		c.log.Error("Failed to send command response",
			zap.String("command", name),
			zap.Error(err))
	}
}

// sendResponse renders a command response in the chat.
func (c *Channel) sendResponse(chatID int64, resp commands.CommandResponse) error {
	if len(resp.Files) > 0 {
		atts := make([]bus.Attachment, 0, len(resp.Files))
		for _, f := range resp.Files {
			atts = append(atts, bus.Attachment{Filename: f.Name, Data: f.Data})
		}
		return c.sendAlbum(chatID, resp.Content, atts)
	}

	content := resp.Content
	if resp.GIFURL != "" {
		// Telegram unfurls the link; no embed needed.
		content = content + "\n" + resp.GIFURL
	}

	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, content))
	return err
}

// SendMessage delivers a bus message, used for the scheduled posts. An
// empty ChatID falls back to the configured chat.
func (c *Channel) SendMessage(ctx context.Context, msg *bus.Message) error {
	if c.bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}

	chatID := c.config.ChatID
	if msg.ChatID != "" {
		parsed, err := strconv.ParseInt(msg.ChatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat ID %q: %w", msg.ChatID, err)
		}
		chatID = parsed
	}

	if len(msg.Attachments) == 0 {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, msg.Content)); err != nil {
			return &bus.PublishError{Channel: c.ID(), Err: err}
		}
		return nil
	}

	if err := c.sendAlbum(chatID, msg.Content, msg.Attachments); err != nil {
		return &bus.PublishError{Channel: c.ID(), Err: err}
	}
	return nil
}

// sendAlbum sends image attachments as photo albums in order, with the
// caption on the first photo.
func (c *Channel) sendAlbum(chatID int64, caption string, atts []bus.Attachment) error {
	for start := 0; start < len(atts); start += mediaGroupLimit {
		end := start + mediaGroupLimit
		if end > len(atts) {
			end = len(atts)
		}

		media := make([]interface{}, 0, end-start)
		for i, att := range atts[start:end] {
			photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileBytes{
				Name:  att.Filename,
				Bytes: att.Data,
			})
			if start == 0 && i == 0 {
				photo.Caption = caption
			}
			media = append(media, photo)
		}

		if len(media) == 1 {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
				Name:  atts[start].Filename,
				Bytes: atts[start].Data,
			})
			if start == 0 {
				photo.Caption = caption
			}
			if _, err := c.bot.Send(photo); err != nil {
				return fmt.Errorf("sending telegram photo: %w", err)
			}
			continue
		}

		group := tgbotapi.NewMediaGroup(chatID, media)
		if _, err := c.bot.SendMediaGroup(group); err != nil {
			return fmt.Errorf("sending telegram album: %w", err)
		}
	}

	return nil
}

// isAllowed checks the allow list, matching user ID, chat ID or
// username.
func (c *Channel) isAllowed(userID, chatID int64, username string) bool {
	if len(c.config.AllowFrom) == 0 {
		return true
	}

	userIDStr := strconv.FormatInt(userID, 10)
	chatIDStr := strconv.FormatInt(chatID, 10)
	username = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(username)), "@")

	for _, allowed := range c.config.AllowFrom {
		normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(allowed)), "@")
		if normalized == "*" || normalized == userIDStr || normalized == chatIDStr {
			return true
		}
		if username != "" && normalized == username {
			return true
		}
	}

	return false
}
