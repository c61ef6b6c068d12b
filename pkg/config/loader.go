package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "CANTINABOT_CONFIG_FILE"

// Loader handles configuration loading with Viper.
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".cantinabot"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("CANTINABOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy variable names kept from the original deployment.
	_ = v.BindEnv("channels.discord.token", "CANTINABOT_CHANNELS_DISCORD_TOKEN", "DISCORD_BOT_TOKEN")
	_ = v.BindEnv("channels.discord.channel_id", "CANTINABOT_CHANNELS_DISCORD_CHANNEL_ID", "DISCORD_CHANNEL_ID")
	_ = v.BindEnv("channels.telegram.token", "CANTINABOT_CHANNELS_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("channels.telegram.chat_id", "CANTINABOT_CHANNELS_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	setDefaults(v)

	return &Loader{viper: v}
}

// setDefaults registers every key so AutomaticEnv overrides apply even
// when no config file is present.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("channels.discord.enabled", def.Channels.Discord.Enabled)
	v.SetDefault("channels.discord.allow_from", def.Channels.Discord.AllowFrom)
	v.SetDefault("channels.telegram.enabled", def.Channels.Telegram.Enabled)
	v.SetDefault("channels.telegram.allow_from", def.Channels.Telegram.AllowFrom)
	v.SetDefault("fetch.base_url", def.Fetch.BaseURL)
	v.SetDefault("fetch.timeout_seconds", def.Fetch.TimeoutSeconds)
	v.SetDefault("fetch.insecure_skip_verify", def.Fetch.InsecureSkipVerify)
	v.SetDefault("fetch.max_body_mb", def.Fetch.MaxBodyMB)
	v.SetDefault("fetch.retries", def.Fetch.Retries)
	v.SetDefault("fetch.retry_delay_seconds", def.Fetch.RetryDelaySeconds)
	v.SetDefault("cache.backend", def.Cache.Backend)
	v.SetDefault("cache.retention_days", def.Cache.RetentionDays)
	v.SetDefault("cache.redis.addr", def.Cache.Redis.Addr)
	v.SetDefault("cache.redis.db", def.Cache.Redis.DB)
	v.SetDefault("cache.redis.prefix", def.Cache.Redis.Prefix)
	v.SetDefault("schedule.timezone", def.Schedule.Timezone)
	v.SetDefault("schedule.post_time", def.Schedule.PostTime)
	v.SetDefault("schedule.retry_delay_minutes", def.Schedule.RetryDelayMinutes)
	v.SetDefault("state.file_path", def.State.FilePath)
}

// Load loads the configuration from file and environment variables.
// If configPath is empty the default search paths are used; a missing
// config file is not an error since everything can come from env vars.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if strings.TrimSpace(configPath) == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if strings.TrimSpace(configPath) != "" {
		l.viper.SetConfigFile(configPath)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.viper.ConfigFileUsed()
}
