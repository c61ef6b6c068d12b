// Package discord provides the Discord channel implementation.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/commands"
	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
)

// commandTimeout bounds one command execution. Menu commands can sit in
// fetch retries for a while.
const commandTimeout = 2 * time.Minute

// Channel implements the Discord channel.
type Channel struct {
	log      *logger.Logger
	config   config.DiscordConfig
	commands *commands.Registry
	session  *discordgo.Session
}

// NewChannel creates a new Discord channel.
func NewChannel(log *logger.Logger, cfg config.DiscordConfig, registry *commands.Registry) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	return &Channel{
		log:      log,
		config:   cfg,
		commands: registry,
		session:  session,
	}, nil
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return "discord"
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "Discord"
}

// IsEnabled returns whether the channel is enabled.
func (c *Channel) IsEnabled() bool {
	return c.config.Enabled
}

// Start connects to the Discord gateway and publishes the slash
// commands.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("Starting Discord channel")

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleInteraction)

	c.session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}

	botUser, err := c.session.User("@me")
	if err != nil {
		c.log.Warn("Failed to get bot user", zap.Error(err))
	} else {
		c.log.Info("Discord bot connected",
			zap.String("username", botUser.Username),
			zap.String("user_id", botUser.ID))
	}

	if err := c.syncSlashCommands(); err != nil {
		c.log.Error("Failed to sync slash commands", zap.Error(err))
	}

	return nil
}

// Stop closes the Discord session.
func (c *Channel) Stop(ctx context.Context) error {
	c.log.Info("Stopping Discord channel")

	if c.session != nil {
		if err := c.session.Close(); err != nil {
			return fmt.Errorf("closing discord session: %w", err)
		}
	}

	return nil
}

// syncSlashCommands publishes every registry command as a slash
// command, except the prefix-style ones (!hello, !ping).
func (c *Channel) syncSlashCommands() error {
	var defs []*discordgo.ApplicationCommand
	for _, cmd := range c.commands.List() {
		if strings.HasPrefix(cmd.Usage, "!") {
			continue
		}
		desc := cmd.Description
		if desc == "" {
			desc = "Command"
		}
		var opts []*discordgo.ApplicationCommandOption
		if strings.Contains(cmd.Usage, "[YYYY-MM-DD]") {
			opts = append(opts, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "date",
				Description: "Menu date (YYYY-MM-DD), defaults to today",
			})
		}
		defs = append(defs, &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: desc,
			Options:     opts,
		})
	}

	appID := c.session.State.User.ID
	synced, err := c.session.ApplicationCommandBulkOverwrite(appID, "", defs)
	if err != nil {
		return fmt.Errorf("overwriting application commands: %w", err)
	}

	c.log.Info("Synced slash commands", zap.Int("count", len(synced)))
	return nil
}

// handleMessage handles prefix commands in regular messages.
func (c *Channel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if !c.isAllowed(m.Author.ID) {
		c.log.Warn("Unauthorized user",
			zap.String("user_id", m.Author.ID),
			zap.String("username", m.Author.Username))
		return
	}

	name, args, ok := c.commands.Parse(m.Content)
	if !ok {
		return
	}

	resp, err := c.execute(name, args, m.ChannelID, m.Author)
	if err != nil {
		_, _ = s.ChannelMessageSend(m.ChannelID, "❌ Command failed: "+err.Error())
		return
	}

	if err := c.sendResponse(m.ChannelID, resp); err != nil {
		c.log.Error("Failed to send command response",
			zap.String("command", name),
			zap.Error(err))
	}
}

// handleInteraction handles slash command invocations. The interaction
// is acknowledged immediately; the menu pipeline can take a while.
func (c *Channel) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	user := interactionUser(i)
	if user == nil || !c.isAllowed(user.ID) {
		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "You are not allowed to use this bot.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		c.log.Error("Failed to defer interaction",
			zap.String("command", data.Name),
			zap.Error(err))
		return
	}

	var args string
	for _, opt := range data.Options {
		if opt.Name == "date" && opt.Type == discordgo.ApplicationCommandOptionString {
			args = opt.StringValue()
		}
	}

	resp, err := c.execute(data.Name, args, i.ChannelID, user)
	if err != nil {
		_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: "❌ Command failed: " + err.Error(),
		})
		return
	}

	params := &discordgo.WebhookParams{Content: resp.Content}
	if resp.GIFURL != "" {
		params.Content = resp.GIFURL
		params.Embeds = gifEmbed(resp)
	}
	for _, f := range resp.Files {
		params.Files = append(params.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}

	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		c.log.Error("Failed to send interaction response",
			zap.String("command", data.Name),
			zap.Error(err))
	}
}

// execute runs a registry command on behalf of a Discord user.
func (c *Channel) execute(name, args, chatID string, user *discordgo.User) (commands.CommandResponse, error) {
	cmd, exists := c.commands.Get(name)
	if !exists {
		return commands.CommandResponse{}, fmt.Errorf("unknown command %q", name)
	}

	c.log.Info("Executing command",
		zap.String("command", name),
		zap.String("user", user.Username))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	return cmd.Handler(ctx, commands.CommandRequest{
		Channel:  "discord",
		ChatID:   chatID,
		UserID:   user.ID,
		Username: user.Username,
		Command:  name,
		Args:     args,
	})
}

// sendResponse renders a command response as a regular channel message.
func (c *Channel) sendResponse(chatID string, resp commands.CommandResponse) error {
	send := &discordgo.MessageSend{Content: resp.Content}
	if resp.GIFURL != "" {
		send.Content = resp.GIFURL
		send.Embeds = gifEmbed(resp)
	}
	for _, f := range resp.Files {
		send.Files = append(send.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}

	_, err := c.session.ChannelMessageSendComplex(chatID, send)
	return err
}

// SendMessage delivers a bus message, used for the scheduled posts. An
// empty ChatID falls back to the configured channel.
func (c *Channel) SendMessage(ctx context.Context, msg *bus.Message) error {
	if c.session == nil {
		return fmt.Errorf("session not initialized")
	}

	channelID := msg.ChatID
	if channelID == "" {
		channelID = c.config.ChannelID
	}

	send := &discordgo.MessageSend{Content: msg.Content}
	for _, att := range msg.Attachments {
		send.Files = append(send.Files, &discordgo.File{
			Name:        att.Filename,
			ContentType: att.ContentType,
			Reader:      bytes.NewReader(att.Data),
		})
	}

	if _, err := c.session.ChannelMessageSendComplex(channelID, send); err != nil {
		return &bus.PublishError{Channel: c.ID(), Err: err}
	}

	c.log.Debug("Sent Discord message",
		zap.String("channel_id", channelID),
		zap.Int("attachments", len(msg.Attachments)))

	return nil
}

// isAllowed checks if a user is allowed to use the bot.
func (c *Channel) isAllowed(userID string) bool {
	if len(c.config.AllowFrom) == 0 {
		return true
	}

	for _, allowed := range c.config.AllowFrom {
		if allowed == userID || allowed == "*" {
			return true
		}
	}

	return false
}

func gifEmbed(resp commands.CommandResponse) []*discordgo.MessageEmbed {
	return []*discordgo.MessageEmbed{{
		Description: resp.Content,
		Image:       &discordgo.MessageEmbedImage{URL: resp.GIFURL},
	}}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
