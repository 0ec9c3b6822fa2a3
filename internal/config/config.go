package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all runtime settings for the workbot service.
type Config struct {
	BindAddr         string        `mapstructure:"BIND_ADDR"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	MetricsNamespace string        `mapstructure:"METRICS_NAMESPACE"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	StateBackend string        `mapstructure:"STATE_BACKEND"`
	NATSURL      string        `mapstructure:"NATS_URL"`
	StateBucket  string        `mapstructure:"STATE_BUCKET"`
	DraftTTL     time.Duration `mapstructure:"DRAFT_TTL"`

	WorksectionURL    string        `mapstructure:"WORKSECTION_URL"`
	WorksectionSecret string        `mapstructure:"WORKSECTION_SECRET"`
	RemoteTimeout     time.Duration `mapstructure:"REMOTE_TIMEOUT"`

	ChatCallbackURL string        `mapstructure:"CHAT_CALLBACK_URL"`
	SendTimeout     time.Duration `mapstructure:"SEND_TIMEOUT"`

	DownloadDir      string        `mapstructure:"DOWNLOAD_DIR"`
	DownloadTimeout  time.Duration `mapstructure:"DOWNLOAD_TIMEOUT"`
	MaxAttachmentMB  int           `mapstructure:"MAX_ATTACHMENT_MB"`

	CurrencyEndpoint string `mapstructure:"CURRENCY_ENDPOINT"`
	CurrencyEnabled  bool   `mapstructure:"CURRENCY_ENABLED"`

	SessionIdleAfter time.Duration `mapstructure:"SESSION_IDLE_AFTER"`
	QueueSize        int           `mapstructure:"QUEUE_SIZE"`
}

// Load reads defaults, an optional config file, and WORKBOT_-prefixed
// environment variables, in increasing precedence.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("workbot")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WORKBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("BIND_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_NAMESPACE", "workbot")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STATE_BACKEND", "auto")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("STATE_BUCKET", "workbot-drafts")
	v.SetDefault("DRAFT_TTL", "24h")
	v.SetDefault("WORKSECTION_URL", "")
	v.SetDefault("WORKSECTION_SECRET", "")
	v.SetDefault("REMOTE_TIMEOUT", "15s")
	v.SetDefault("CHAT_CALLBACK_URL", "")
	v.SetDefault("SEND_TIMEOUT", "10s")
	v.SetDefault("DOWNLOAD_DIR", "")
	v.SetDefault("DOWNLOAD_TIMEOUT", "30s")
	v.SetDefault("MAX_ATTACHMENT_MB", 5)
	v.SetDefault("CURRENCY_ENDPOINT", "")
	v.SetDefault("CURRENCY_ENABLED", true)
	v.SetDefault("SESSION_IDLE_AFTER", "5m")
	v.SetDefault("QUEUE_SIZE", 16)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.RemoteTimeout <= 0 {
		return Config{}, fmt.Errorf("REMOTE_TIMEOUT must be positive")
	}
	if cfg.DownloadTimeout <= 0 {
		return Config{}, fmt.Errorf("DOWNLOAD_TIMEOUT must be positive")
	}
	if cfg.MaxAttachmentMB <= 0 {
		return Config{}, fmt.Errorf("MAX_ATTACHMENT_MB must be positive")
	}
	if cfg.QueueSize <= 0 {
		return Config{}, fmt.Errorf("QUEUE_SIZE must be positive")
	}
	if strings.TrimSpace(cfg.WorksectionURL) == "" {
		return Config{}, fmt.Errorf("WORKSECTION_URL is required")
	}
	if strings.TrimSpace(cfg.WorksectionSecret) == "" {
		return Config{}, fmt.Errorf("WORKSECTION_SECRET is required")
	}

	return cfg, nil
}

// MaxAttachmentBytes converts the configured cap to bytes.
func (c Config) MaxAttachmentBytes() int64 {
	return int64(c.MaxAttachmentMB) << 20
}
