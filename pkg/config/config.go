// Package config provides configuration management for cantinabot.
// It uses Viper for flexible configuration loading with support for
// JSON/YAML files, CANTINABOT_* environment variables and the legacy
// DISCORD_BOT_TOKEN / DISCORD_CHANNEL_ID variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete cantinabot configuration.
type Config struct {
	Channels ChannelsConfig `mapstructure:"channels" json:"channels"`
	Fetch    FetchConfig    `mapstructure:"fetch" json:"fetch"`
	Cache    CacheConfig    `mapstructure:"cache" json:"cache"`
	Schedule ScheduleConfig `mapstructure:"schedule" json:"schedule"`
	State    StateConfig    `mapstructure:"state" json:"state"`
}

// ChannelsConfig contains all channel configurations.
type ChannelsConfig struct {
	Discord  DiscordConfig  `mapstructure:"discord" json:"discord"`
	Telegram TelegramConfig `mapstructure:"telegram" json:"telegram"`
}

// DiscordConfig for the Discord channel.
type DiscordConfig struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled"`
	Token     string   `mapstructure:"token" json:"token"`
	ChannelID string   `mapstructure:"channel_id" json:"channel_id"`
	AllowFrom []string `mapstructure:"allow_from" json:"allow_from"`
}

// TelegramConfig for the Telegram channel.
type TelegramConfig struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled"`
	Token     string   `mapstructure:"token" json:"token"`
	ChatID    int64    `mapstructure:"chat_id" json:"chat_id"`
	AllowFrom []string `mapstructure:"allow_from" json:"allow_from"`
}

// FetchConfig for the upstream menu source.
type FetchConfig struct {
	// BaseURL is the uploads root the per-cantina paths hang off of.
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" json:"timeout_seconds"`

	// InsecureSkipVerify disables TLS verification. The upstream serves
	// an incomplete certificate chain, so this defaults to true.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify"`

	// MaxBodyMB caps the accepted PDF size.
	MaxBodyMB int `mapstructure:"max_body_mb" json:"max_body_mb"`

	// Retries is how many rounds over the URL variants are made before
	// a date is given up on.
	Retries int `mapstructure:"retries" json:"retries"`

	// RetryDelaySeconds is the pause between rounds.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" json:"retry_delay_seconds"`
}

// CacheConfig for the menu cache.
type CacheConfig struct {
	// Backend selects the cache implementation: "memory" or "redis".
	Backend string `mapstructure:"backend" json:"backend"`

	// RetentionDays controls how long entries for past dates are kept.
	RetentionDays int `mapstructure:"retention_days" json:"retention_days"`

	Redis RedisConfig `mapstructure:"redis" json:"redis"`
}

// RedisConfig for the optional redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" json:"prefix"`
}

// ScheduleConfig for the daily auto-post.
type ScheduleConfig struct {
	// Timezone the cantina calendar lives in.
	Timezone string `mapstructure:"timezone" json:"timezone"`

	// PostTime is the local HH:MM the daily post fires at.
	PostTime string `mapstructure:"post_time" json:"post_time"`

	// RetryDelayMinutes is the delay before retrying a failed auto-post.
	RetryDelayMinutes int `mapstructure:"retry_delay_minutes" json:"retry_delay_minutes"`
}

// StateConfig for the persisted scheduler state.
type StateConfig struct {
	FilePath string `mapstructure:"file_path" json:"file_path"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Enabled:   true,
				AllowFrom: []string{},
			},
			Telegram: TelegramConfig{
				Enabled:   false,
				AllowFrom: []string{},
			},
		},
		Fetch: FetchConfig{
			BaseURL:            "https://www.uaic.ro/wp-content/uploads",
			TimeoutSeconds:     60,
			InsecureSkipVerify: true,
			MaxBodyMB:          20,
			Retries:            3,
			RetryDelaySeconds:  5,
		},
		Cache: CacheConfig{
			Backend:       "memory",
			RetentionDays: 7,
			Redis: RedisConfig{
				Prefix: "cantinabot:menu",
			},
		},
		Schedule: ScheduleConfig{
			Timezone:          "Europe/Bucharest",
			PostTime:          "11:30",
			RetryDelayMinutes: 5,
		},
		State: StateConfig{
			FilePath: filepath.Join(homeDir, ".cantinabot", "state.json"),
		},
	}
}

// ValidationError reports configuration that prevents startup.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks that every enabled channel has the settings it needs.
// It is called before any network connection is attempted; a returned
// error is fatal.
func (c *Config) Validate() error {
	if !c.Channels.Discord.Enabled && !c.Channels.Telegram.Enabled {
		return &ValidationError{Field: "channels", Reason: "no channel enabled"}
	}

	if c.Channels.Discord.Enabled {
		if strings.TrimSpace(c.Channels.Discord.Token) == "" {
			return &ValidationError{
				Field:  "channels.discord.token",
				Reason: "missing Discord token; set DISCORD_BOT_TOKEN",
			}
		}
		if strings.TrimSpace(c.Channels.Discord.ChannelID) == "" {
			return &ValidationError{
				Field:  "channels.discord.channel_id",
				Reason: "missing channel ID; set DISCORD_CHANNEL_ID",
			}
		}
	}

	if c.Channels.Telegram.Enabled {
		if strings.TrimSpace(c.Channels.Telegram.Token) == "" {
			return &ValidationError{
				Field:  "channels.telegram.token",
				Reason: "missing Telegram token; set TELEGRAM_BOT_TOKEN",
			}
		}
		if c.Channels.Telegram.ChatID == 0 {
			return &ValidationError{
				Field:  "channels.telegram.chat_id",
				Reason: "missing destination chat ID",
			}
		}
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return &ValidationError{Field: "schedule.timezone", Reason: err.Error()}
	}
	if _, err := ParseClock(c.Schedule.PostTime); err != nil {
		return &ValidationError{Field: "schedule.post_time", Reason: err.Error()}
	}

	return nil
}

// Location returns the configured timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RetryDelay returns the auto-post retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	if c.Schedule.RetryDelayMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Schedule.RetryDelayMinutes) * time.Minute
}

// ParseClock parses an "HH:MM" string into hour and minute.
func ParseClock(s string) (Clock, error) {
	var c Clock
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &c.Hour, &c.Minute); err != nil {
		return c, fmt.Errorf("parsing clock %q: %w", s, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return c, fmt.Errorf("clock %q out of range", s)
	}
	return c, nil
}

// Clock is a local wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// On anchors the clock on the given day in that day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Before reports whether the clock is earlier than t's time of day.
func (c Clock) Before(t time.Time) bool {
	return c.Hour < t.Hour() || (c.Hour == t.Hour() && c.Minute < t.Minute())
}

// After reports whether the clock is later than t's time of day.
func (c Clock) After(t time.Time) bool {
	return c.Hour > t.Hour() || (c.Hour == t.Hour() && c.Minute > t.Minute())
}
