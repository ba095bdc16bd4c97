package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingURL          = errors.New("exchange URL must be set")
	ErrInvalidURL          = errors.New("exchange URL must start with http:// or https://")
	ErrMissingType         = errors.New("exchange type must be set")
	ErrMissingVersion      = errors.New("exchange protocol version must be set")
	ErrInvalidPollInterval = errors.New("poll interval must be greater than 0")
	ErrInvalidMaxPolls     = errors.New("max polls must not be negative")
	ErrInvalidLogFormat    = errors.New("log format must be \"text\" or \"json\"")
	ErrInvalidOutput       = errors.New("output must be \"text\" or \"yaml\"")
)

const (
	DefaultExchangeType = "catalog"
	DefaultVersion      = "3.1"
	DefaultPollInterval = 500 * time.Millisecond
)

// Config holds all application configuration
type Config struct {
	Exchange ExchangeConfig `mapstructure:"exchange" yaml:"exchange"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Output   string         `mapstructure:"output" yaml:"output"`
}

// ExchangeConfig describes the remote site endpoint and protocol parameters
type ExchangeConfig struct {
	URL          string        `mapstructure:"url" yaml:"url"`
	Login        string        `mapstructure:"login" yaml:"login"`
	Password     string        `mapstructure:"password" yaml:"-"`
	Type         string        `mapstructure:"type" yaml:"type"`
	Version      string        `mapstructure:"version" yaml:"version"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxPolls     int           `mapstructure:"max_polls" yaml:"max_polls"` // 0 = poll until the server answers
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Type:         DefaultExchangeType,
			Version:      DefaultVersion,
			PollInterval: DefaultPollInterval,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Output: "text",
	}
}

// SetDefaults registers every known key on v so environment variables are
// picked up by Unmarshal even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("exchange.url", d.Exchange.URL)
	v.SetDefault("exchange.login", d.Exchange.Login)
	v.SetDefault("exchange.password", d.Exchange.Password)
	v.SetDefault("exchange.type", d.Exchange.Type)
	v.SetDefault("exchange.version", d.Exchange.Version)
	v.SetDefault("exchange.poll_interval", d.Exchange.PollInterval)
	v.SetDefault("exchange.max_polls", d.Exchange.MaxPolls)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("output", d.Output)
}

// Load builds a Config from everything v knows about (defaults, config file, env, bound flags)
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.Exchange.URL = strings.TrimSuffix(strings.TrimSpace(cfg.Exchange.URL), "/")
	cfg.Exchange.Type = strings.TrimSpace(cfg.Exchange.Type)
	cfg.Output = strings.ToLower(cfg.Output)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	return cfg, nil
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.Exchange.URL == "" {
		return ErrMissingURL
	}
	if !strings.HasPrefix(c.Exchange.URL, "http://") && !strings.HasPrefix(c.Exchange.URL, "https://") {
		return ErrInvalidURL
	}
	if c.Exchange.Type == "" {
		return ErrMissingType
	}
	if c.Exchange.Version == "" {
		return ErrMissingVersion
	}
	if c.Exchange.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.Exchange.MaxPolls < 0 {
		return ErrInvalidMaxPolls
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	switch c.Output {
	case "", "text", "yaml":
	default:
		return ErrInvalidOutput
	}
	return nil
}
