package crawl

import (
	"context"
	"fmt"
	"io"
	"time"

	"pagecrawl/internal/pagination"
	"pagecrawl/internal/render"

	"github.com/charmbracelet/log"
)

// DefaultDelay is the pause between consecutive page fetches.
const DefaultDelay = time.Second

// Session tracks one pagination crawl.
type Session struct {
	StartURL string
	MaxPages int
	Visited  map[string]bool
	Pages    []*render.Page
}

func newSession(startURL string, maxPages int) *Session {
	return &Session{
		StartURL: startURL,
		MaxPages: maxPages,
		Visited:  make(map[string]bool),
	}
}

// Crawler follows pagination links page by page.
type Crawler struct {
	renderer render.Renderer
	detector *pagination.Detector
	logger   *log.Logger
	delay    time.Duration
	sleep    func(time.Duration)
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithDelay sets the pause between page fetches.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) { c.delay = d }
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// New creates a Crawler that renders with r and finds next pages with d.
func New(r render.Renderer, d *pagination.Detector, opts ...Option) *Crawler {
	c := &Crawler{
		renderer: r,
		detector: d,
		logger:   log.New(io.Discard),
		delay:    DefaultDelay,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl renders startURL and follows the best next-page link until maxPages
// pages are collected, no link is found, or a link was already visited.
//
// A failure on the first page is returned as is. A failure on a later page
// ends the crawl and the pages collected so far are merged.
func (c *Crawler) Crawl(ctx context.Context, startURL string, maxPages int, opts render.Options) (doc *Document, err error) {
	if maxPages < 1 {
		return nil, fmt.Errorf("max pages must be at least 1, got %d", maxPages)
	}
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("error during pagination scraping: %v", r)
		}
	}()

	s := newSession(startURL, maxPages)
	current := startURL

	for current != "" && len(s.Pages) < s.MaxPages && !s.Visited[current] {
		s.Visited[current] = true
		c.logger.Info("scraping page", "page", len(s.Pages)+1, "url", current)

		page, err := c.renderer.Render(ctx, current, opts)
		if err != nil {
			if len(s.Pages) == 0 {
				return nil, err
			}
			c.logger.Warn("stopping pagination after failed page", "url", current, "err", err)
			break
		}
		s.Pages = append(s.Pages, page)

		if len(s.Pages) >= s.MaxPages {
			break
		}

		next, err := c.nextURL(page.HTML, current)
		if err != nil {
			c.logger.Warn("pagination detection failed", "url", current, "err", err)
			break
		}
		current = next
		if current != "" && !s.Visited[current] {
			c.sleep(c.delay)
		}
	}

	c.logger.Info("pagination finished", "pages", len(s.Pages), "max_pages", s.MaxPages)
	return Merge(s), nil
}

// nextURL runs the detector on a page and picks the link to follow.
func (c *Crawler) nextURL(html, baseURL string) (string, error) {
	cands, err := c.detector.Candidates(html, baseURL)
	if err != nil {
		return "", err
	}
	return SelectNext(cands, c.detector.Policy()), nil
}

// SelectNext prefers the highest-ranked candidate whose anchor text reads as
// "next" in any supported language, falling back to the top candidate.
func SelectNext(cands []pagination.Candidate, policy *pagination.Policy) string {
	if len(cands) == 0 {
		return ""
	}
	for _, cand := range cands {
		if policy.HasStrongNext(cand.Texts...) {
			return cand.URL
		}
	}
	return cands[0].URL
}
