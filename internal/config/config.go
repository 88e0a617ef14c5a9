package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is used for XDG directory paths.
const AppName = "pagecrawl"

// Default configuration values.
const (
	DefaultEngine   = "rod"
	DefaultTimeout  = 40 * time.Second
	DefaultDelay    = time.Second
	DefaultMaxPages = 5
	DefaultFormat   = "json"
	DefaultWaitFor  = "load"

	// ProxyEnv seeds the proxy when neither the config file nor a flag sets one.
	ProxyEnv = "PAGECRAWL_PROXY"
)

// ErrConfigNotFound is returned when an explicitly named config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

var (
	ErrInvalidTimeout  = errors.New("invalid timeout: must be positive")
	ErrInvalidDelay    = errors.New("invalid delay: must be non-negative")
	ErrInvalidMaxPages = errors.New("invalid max pages: must be at least 1")
)

// Config holds every setting the CLI needs. Zero values in the config file
// keep the defaults; flags are applied on top by the caller.
type Config struct {
	Engine     string        `yaml:"engine"`
	Timeout    time.Duration `yaml:"timeout"`
	Delay      time.Duration `yaml:"delay"`
	MaxPages   int           `yaml:"max_pages"`
	Proxy      string        `yaml:"proxy"`
	UserAgent  string        `yaml:"user_agent"`
	BrowserBin string        `yaml:"browser_bin"`
	ShowUI     bool          `yaml:"showui"`
	Policy     string        `yaml:"policy"`
	Format     string        `yaml:"format"`
	WaitFor    string        `yaml:"wait_for"`
	WaitTarget string        `yaml:"wait_target"`
}

// NewConfig returns the defaults, with the proxy taken from $PAGECRAWL_PROXY.
func NewConfig() *Config {
	return &Config{
		Engine:   DefaultEngine,
		Timeout:  DefaultTimeout,
		Delay:    DefaultDelay,
		MaxPages: DefaultMaxPages,
		Proxy:    os.Getenv(ProxyEnv),
		Format:   DefaultFormat,
		WaitFor:  DefaultWaitFor,
	}
}

// FindConfigFile returns explicit when set, otherwise the first
// pagecrawl/config.yaml found in the XDG config directories, or "".
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.yaml"))
	if err != nil {
		return ""
	}
	return path
}

// Load reads the config file at path over the defaults. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.merge(&file)
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Engine != "" {
		c.Engine = o.Engine
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.Delay != 0 {
		c.Delay = o.Delay
	}
	if o.MaxPages != 0 {
		c.MaxPages = o.MaxPages
	}
	if o.Proxy != "" {
		c.Proxy = o.Proxy
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.BrowserBin != "" {
		c.BrowserBin = o.BrowserBin
	}
	if o.ShowUI {
		c.ShowUI = true
	}
	if o.Policy != "" {
		c.Policy = o.Policy
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.WaitFor != "" {
		c.WaitFor = o.WaitFor
	}
	if o.WaitTarget != "" {
		c.WaitTarget = o.WaitTarget
	}
}

// Validate checks the numeric settings. Engine, format and wait strategy
// names are checked by the packages that own them.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	return nil
}
