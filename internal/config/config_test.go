package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Setenv(ProxyEnv, "http://127.0.0.1:7890")

	cfg := NewConfig()
	assert.Equal(t, "rod", cfg.Engine)
	assert.Equal(t, 40*time.Second, cfg.Timeout)
	assert.Equal(t, time.Second, cfg.Delay)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "load", cfg.WaitFor)
	assert.Equal(t, "http://127.0.0.1:7890", cfg.Proxy)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Setenv(ProxyEnv, "")

	t.Run("empty path keeps defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, NewConfig(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := []byte(`engine: static
timeout: 10s
delay: 250ms
max_pages: 12
proxy: socks5://127.0.0.1:1080
user_agent: pagecrawl-test
showui: true
`)
		require.NoError(t, os.WriteFile(path, data, 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "static", cfg.Engine)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 250*time.Millisecond, cfg.Delay)
		assert.Equal(t, 12, cfg.MaxPages)
		assert.Equal(t, "socks5://127.0.0.1:1080", cfg.Proxy)
		assert.Equal(t, "pagecrawl-test", cfg.UserAgent)
		assert.True(t, cfg.ShowUI)
		assert.Equal(t, "json", cfg.Format)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("timeout: [1, 2"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/etc/custom.yaml", FindConfigFile("/etc/custom.yaml"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }, ErrInvalidDelay},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }, ErrInvalidMaxPages},
		{"zero delay is fine", func(c *Config) { c.Delay = 0 }, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
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
