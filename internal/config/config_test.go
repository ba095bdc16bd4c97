package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CMLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "catalog", cfg.Exchange.Type)
	assert.Equal(t, "3.1", cfg.Exchange.Version)
	assert.Equal(t, 500*time.Millisecond, cfg.Exchange.PollInterval)
	assert.Zero(t, cfg.Exchange.MaxPolls)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Output)

	// defaults alone lack a URL
	assert.ErrorIs(t, cfg.Validate(), ErrMissingURL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmlsync.yaml")
	content := `
exchange:
  url: "https://shop.example.com/bitrix/admin/1c_exchange.php/"
  login: "admin"
  password: "secret"
  type: "sale"
  poll_interval: "2s"
  max_polls: 10
logging:
  level: "debug"
  format: "JSON"
output: "YAML"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/bitrix/admin/1c_exchange.php", cfg.Exchange.URL)
	assert.Equal(t, "admin", cfg.Exchange.Login)
	assert.Equal(t, "secret", cfg.Exchange.Password)
	assert.Equal(t, "sale", cfg.Exchange.Type)
	assert.Equal(t, "3.1", cfg.Exchange.Version)
	assert.Equal(t, 2*time.Second, cfg.Exchange.PollInterval)
	assert.Equal(t, 10, cfg.Exchange.MaxPolls)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "yaml", cfg.Output)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CMLSYNC_EXCHANGE_URL", "http://env.example.com/exchange")
	t.Setenv("CMLSYNC_EXCHANGE_LOGIN", "env-user")
	t.Setenv("CMLSYNC_EXCHANGE_MAX_POLLS", "3")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "http://env.example.com/exchange", cfg.Exchange.URL)
	assert.Equal(t, "env-user", cfg.Exchange.Login)
	assert.Equal(t, 3, cfg.Exchange.MaxPolls)
	assert.Equal(t, DefaultPollInterval, cfg.Exchange.PollInterval)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Exchange.URL = "https://example.com/exchange"
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"bad scheme", func(c *Config) { c.Exchange.URL = "ftp://example.com" }, ErrInvalidURL},
		{"no type", func(c *Config) { c.Exchange.Type = "" }, ErrMissingType},
		{"no version", func(c *Config) { c.Exchange.Version = "" }, ErrMissingVersion},
		{"zero interval", func(c *Config) { c.Exchange.PollInterval = 0 }, ErrInvalidPollInterval},
		{"negative max polls", func(c *Config) { c.Exchange.MaxPolls = -1 }, ErrInvalidMaxPolls},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
		{"bad output", func(c *Config) { c.Output = "json" }, ErrInvalidOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
