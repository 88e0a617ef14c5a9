package render

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRendererUnavailable is returned when the selected engine cannot run
	// on this machine at all.
	ErrRendererUnavailable = errors.New("renderer unavailable")
	// ErrFetchFailed wraps every failure to load or read a single page.
	ErrFetchFailed = errors.New("failed to scrape URL")
)

// DefaultTimeout bounds a single render when Options.Timeout is unset.
const DefaultTimeout = 40 * time.Second

// Page is the rendered content of a single URL. It is not modified after
// the renderer returns it.
type Page struct {
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Markdown       string         `json:"markdown"`
	HTML           string         `json:"html"`
	CleanedHTML    string         `json:"cleaned_html"`
	StructuredData map[string]any `json:"json"`
	Media          map[string]any `json:"media"`
	Links          map[string]any `json:"links"`
	Metadata       map[string]any `json:"metadata"`
}

func (p *Page) ToMarkdown() string { return p.Markdown }

func (p *Page) ToHTML() string { return p.HTML }

// Options are the per-render settings.
type Options struct {
	Timeout    time.Duration
	WaitFor    WaitStrategy
	WaitTarget string
	Extraction *ExtractionConfig
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Renderer fetches a URL, executes it the way the engine can, and returns
// the extracted page.
type Renderer interface {
	Name() string
	Render(ctx context.Context, url string, opts Options) (*Page, error)
}
