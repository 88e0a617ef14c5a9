package render

import (
	"fmt"
	"time"
)

// WaitStrategy decides when a rendered page is considered ready.
type WaitStrategy string

const (
	WaitStrategyLoad    WaitStrategy = "load"    // Wait for the load event and network idle
	WaitStrategyElement WaitStrategy = "element" // Wait for a CSS selector to appear
	WaitStrategyTime    WaitStrategy = "time"    // Wait a fixed number of milliseconds
)

// ParseWaitStrategy validates a strategy name and its target.
func ParseWaitStrategy(name, target string) (WaitStrategy, error) {
	switch s := WaitStrategy(name); s {
	case WaitStrategyLoad:
		return s, nil
	case WaitStrategyElement:
		if target == "" {
			return "", fmt.Errorf("--wait-target is required when using 'element' wait strategy")
		}
		return s, nil
	case WaitStrategyTime:
		if _, err := waitDuration(target); err != nil {
			return "", err
		}
		return s, nil
	default:
		return "", fmt.Errorf("invalid wait strategy: %s", name)
	}
}

// waitDuration parses a millisecond count for the time strategy.
func waitDuration(target string) (time.Duration, error) {
	if target == "" {
		return 0, fmt.Errorf("--wait-target is required when using 'time' wait strategy")
	}
	d, err := time.ParseDuration(target + "ms")
	if err != nil {
		return 0, fmt.Errorf("invalid wait time '%s': %w", target, err)
	}
	return d, nil
}
