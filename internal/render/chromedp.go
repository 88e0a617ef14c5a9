package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"
)

// chromeNames are the executables searched on PATH when no binary is configured.
var chromeNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

func init() {
	Register("chromedp", newChromedpRenderer)
}

// ChromedpRenderer renders pages through the Chrome DevTools Protocol using
// chromedp. Each call starts and tears down its own browser process.
type ChromedpRenderer struct {
	cfg    Config
	bin    string
	logger *log.Logger
}

func newChromedpRenderer(cfg Config, logger *log.Logger) (Renderer, error) {
	bin, err := findChrome(cfg.BrowserBin)
	if err != nil {
		return nil, err
	}
	return &ChromedpRenderer{cfg: cfg, bin: bin, logger: logger}, nil
}

func findChrome(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("browser binary %s: %w", configured, err)
		}
		return configured, nil
	}
	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no Chrome or Chromium installation found")
}

func (r *ChromedpRenderer) Name() string { return "chromedp" }

func (r *ChromedpRenderer) Render(ctx context.Context, target string, opts Options) (*Page, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.ExecPath(r.bin),
	)
	if r.cfg.ProxyURL != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(r.cfg.ProxyURL))
	}
	if r.cfg.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(r.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	defer func() {
		if err := chromedp.Cancel(browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("failed to close browser", "url", target, "err", err)
		}
	}()

	tasks := chromedp.Tasks{chromedp.Navigate(target)}
	switch opts.WaitFor {
	case WaitStrategyElement:
		tasks = append(tasks, chromedp.WaitVisible(opts.WaitTarget, chromedp.ByQuery))
	case WaitStrategyTime:
		d, err := waitDuration(opts.WaitTarget)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		tasks = append(tasks, chromedp.Sleep(d))
	default:
		tasks = append(tasks, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	var rendered, title, location string
	tasks = append(tasks,
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Location(&location),
	)

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	result, err := BuildPage(rendered, location, title, opts.Extraction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	result.Metadata["engine"] = r.Name()
	result.Metadata["load_time_ms"] = time.Since(start).Milliseconds()
	return result, nil
}
