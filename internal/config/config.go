// Package config loads the relay's runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultPort                  = 3000
	DefaultSpecialStatusDuration = 60 * time.Second
	DefaultSpecialStatusLabel    = "Wildcard"
	DefaultPingInterval          = 30 * time.Second
	DefaultMaxFrameBytes         = 6 << 20
	DefaultSendBuffer            = 256
	DefaultLogConfigPath         = "logger_config.json"
)

var validate = validator.New()

type Config struct {
	Port          int    `env:"PORT" validate:"min=1,max=65535"`
	LogLevel      string `env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error fatal"`
	LogConfigPath string `env:"LOG_CONFIG_PATH"`
	NatsURL       string `env:"NATS_URL"`
	StaticDir     string `env:"STATIC_DIR"`

	SpecialStatusDuration   time.Duration `env:"SPECIAL_STATUS_DURATION" validate:"gt=0"`
	SpecialStatusLabel      string        `env:"SPECIAL_STATUS_LABEL" validate:"required,max=32"`
	SpecialStatusSelfSelect *bool         `env:"SPECIAL_STATUS_SELF_SELECT"`

	PingInterval  time.Duration `env:"PING_INTERVAL" validate:"gt=0"`
	MaxFrameBytes int64         `env:"MAX_FRAME_BYTES" validate:"gt=0"`
	SendBuffer    int           `env:"SEND_BUFFER" validate:"gt=0"`
}

// AllowSelfSelect reports whether a special-status requester may be picked as
// the holder. Unset means yes.
func (c Config) AllowSelfSelect() bool {
	return c.SpecialStatusSelfSelect == nil || *c.SpecialStatusSelfSelect
}

// Load reads an optional .env file, then the process environment, fills
// defaults and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return cfg, fmt.Errorf("config error: %w", err)
	}
	cfg.applyDefaults()
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogConfigPath == "" {
		c.LogConfigPath = DefaultLogConfigPath
	}
	if c.SpecialStatusDuration == 0 {
		c.SpecialStatusDuration = DefaultSpecialStatusDuration
	}
	if c.SpecialStatusLabel == "" {
		c.SpecialStatusLabel = DefaultSpecialStatusLabel
	}
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = DefaultSendBuffer
	}
}
