package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Config selects and configures a render engine.
type Config struct {
	Engine     string
	Headless   bool
	ProxyURL   string
	BrowserBin string
	UserAgent  string
}

// Factory builds a renderer. It returns an error when the engine cannot be
// used on this machine.
type Factory func(cfg Config, logger *log.Logger) (Renderer, error)

var registry = map[string]Factory{}

// Register makes an engine available under name.
func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// Engines lists the registered engine names.
func Engines() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open runs the capability check for cfg.Engine once. An engine that exists
// but cannot run yields an *Unavailable renderer rather than an error, so the
// caller can report it through the normal result channel.
func Open(cfg Config, logger *log.Logger) (Renderer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	name := strings.ToLower(cfg.Engine)
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (available: %s)", cfg.Engine, strings.Join(Engines(), ", "))
	}
	r, err := f(cfg, logger)
	if err != nil {
		logger.Debug("engine unavailable", "engine", name, "err", err)
		return &Unavailable{Engine: name, Reason: err}, nil
	}
	return r, nil
}
