package browser

import (
	"fmt"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config controls how the browser process is launched.
type Config struct {
	ProxyURL string // Proxy URL, empty for a direct connection
	Headless bool   // false shows the browser window
	Bin      string // Browser binary, empty to search the system
}

// Browser wraps a rod.Browser together with the launcher that owns its process.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// Lookup returns the browser binary New would launch, or an error when none
// is installed.
func Lookup(cfg Config) (string, error) {
	if cfg.Bin != "" {
		if _, err := os.Stat(cfg.Bin); err != nil {
			return "", fmt.Errorf("browser binary %s: %w", cfg.Bin, err)
		}
		return cfg.Bin, nil
	}
	path, ok := launcher.LookPath()
	if !ok {
		return "", fmt.Errorf("no Chrome or Chromium installation found")
	}
	return path, nil
}

// New launches a browser process and connects to it.
func New(cfg Config) (*Browser, error) {
	l := launcher.New().Headless(cfg.Headless)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{
		browser:  b,
		launcher: l,
	}, nil
}

// NewPage opens a blank tab.
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Close closes the browser and kills its process.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}
