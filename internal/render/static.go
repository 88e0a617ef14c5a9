package render

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"
)

func init() {
	Register("static", newStaticRenderer)
}

// StaticRenderer fetches pages over plain HTTP with colly. It runs no
// JavaScript, so it works without a browser installed.
type StaticRenderer struct {
	cfg    Config
	logger *log.Logger
}

func newStaticRenderer(cfg Config, logger *log.Logger) (Renderer, error) {
	return &StaticRenderer{cfg: cfg, logger: logger}, nil
}

func (r *StaticRenderer) Name() string { return "static" }

func (r *StaticRenderer) Render(ctx context.Context, target string, opts Options) (*Page, error) {
	start := time.Now()

	var collectorOpts []colly.CollectorOption
	if r.cfg.UserAgent != "" {
		collectorOpts = append(collectorOpts, colly.UserAgent(r.cfg.UserAgent))
	}
	c := colly.NewCollector(collectorOpts...)
	c.SetRequestTimeout(opts.timeout())
	if r.cfg.ProxyURL != "" {
		if err := c.SetProxy(r.cfg.ProxyURL); err != nil {
			return nil, fmt.Errorf("%w: invalid proxy: %w", ErrFetchFailed, err)
		}
	}

	var (
		body     []byte
		finalURL string
		fetchErr error
	)
	c.OnResponse(func(resp *colly.Response) {
		body = resp.Body
		finalURL = resp.Request.URL.String()
	})
	c.OnError(func(resp *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", resp.StatusCode, err)
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, fetchErr)
	}
	if finalURL == "" {
		finalURL = target
	}

	result, err := BuildPage(string(body), finalURL, "", opts.Extraction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	result.Metadata["engine"] = r.Name()
	result.Metadata["load_time_ms"] = time.Since(start).Milliseconds()
	r.logger.Debug("static fetch complete", "url", finalURL, "bytes", len(body))
	return result, nil
}
