package render

import (
	"context"
	"fmt"
	"time"

	"pagecrawl/internal/browser"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

func init() {
	Register("rod", newRodRenderer)
}

// RodRenderer renders pages in a Chromium instance driven by rod. Each call
// launches its own browser and closes it before returning.
type RodRenderer struct {
	cfg    Config
	logger *log.Logger
}

func newRodRenderer(cfg Config, logger *log.Logger) (Renderer, error) {
	if _, err := browser.Lookup(browser.Config{Bin: cfg.BrowserBin}); err != nil {
		return nil, err
	}
	return &RodRenderer{cfg: cfg, logger: logger}, nil
}

func (r *RodRenderer) Name() string { return "rod" }

func (r *RodRenderer) Render(ctx context.Context, target string, opts Options) (*Page, error) {
	start := time.Now()
	timeout := opts.timeout()

	b, err := browser.New(browser.Config{
		ProxyURL: r.cfg.ProxyURL,
		Headless: r.cfg.Headless,
		Bin:      r.cfg.BrowserBin,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			r.logger.Warn("failed to close browser", "url", target, "err", err)
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create page: %w", ErrFetchFailed, err)
	}
	page = page.Context(ctx)
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Debug("failed to close page", "url", target, "err", err)
		}
	}()

	if r.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.UserAgent}); err != nil {
			return nil, fmt.Errorf("%w: failed to set user agent: %w", ErrFetchFailed, err)
		}
	}

	if err := page.Timeout(timeout).Navigate(target); err != nil {
		return nil, fmt.Errorf("%w: failed to navigate: %w", ErrFetchFailed, err)
	}

	if err := rodWait(page.Timeout(timeout), opts.WaitFor, opts.WaitTarget); err != nil {
		return nil, fmt.Errorf("%w: wait strategy failed: %w", ErrFetchFailed, err)
	}

	// Let script-driven pages finish populating content before reading it.
	if opts.WaitFor == WaitStrategyLoad || opts.WaitFor == "" {
		wait := page.Timeout(timeout).WaitRequestIdle(
			500*time.Millisecond, nil, nil,
			[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia},
		)
		wait()
	}

	rendered, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read page HTML: %w", ErrFetchFailed, err)
	}
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read page info: %w", ErrFetchFailed, err)
	}

	result, err := BuildPage(rendered, info.URL, info.Title, opts.Extraction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	result.Metadata["engine"] = r.Name()
	result.Metadata["load_time_ms"] = time.Since(start).Milliseconds()
	return result, nil
}

func rodWait(page *rod.Page, strategy WaitStrategy, target string) error {
	switch strategy {
	case WaitStrategyElement:
		if _, err := page.Element(target); err != nil {
			return fmt.Errorf("failed to wait for element '%s': %w", target, err)
		}
	case WaitStrategyTime:
		d, err := waitDuration(target)
		if err != nil {
			return err
		}
		time.Sleep(d)
	default:
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("failed to wait for page load: %w", err)
		}
	}
	return nil
}
