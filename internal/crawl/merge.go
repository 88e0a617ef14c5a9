package crawl

import (
	"fmt"
	"strings"

	"pagecrawl/internal/render"
)

const (
	markdownBreak = "\n\n--- PAGE BREAK ---\n\n"
	htmlBreak     = "\n\n<!-- PAGE BREAK -->\n\n"
)

// Document is the combined result of a pagination crawl. It serializes with
// the same keys as a single render.Page.
type Document struct {
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

func (d *Document) ToMarkdown() string { return d.Markdown }

func (d *Document) ToHTML() string { return d.HTML }

// Merge combines the pages of a session into one Document.
func Merge(s *Session) *Document {
	var (
		markdown = make([]string, 0, len(s.Pages))
		rawHTML  = make([]string, 0, len(s.Pages))
		cleaned  = make([]string, 0, len(s.Pages))
		urls     = make([]string, 0, len(s.Pages))
	)

	doc := &Document{
		URL:   s.StartURL,
		Media: map[string]any{},
		Links: map[string]any{},
	}
	if len(s.Pages) > 0 {
		doc.Title = s.Pages[0].Title
	}

	for i, p := range s.Pages {
		title := p.Title
		if title == "" {
			title = "Untitled"
		}
		markdown = append(markdown, fmt.Sprintf("# Page %d - %s\n\n*Source: %s*\n\n", i+1, title, p.URL)+p.Markdown)

		header := fmt.Sprintf("<!-- PAGE %d: %s - %s -->\n\n", i+1, title, p.URL)
		rawHTML = append(rawHTML, header+p.HTML)
		cleaned = append(cleaned, header+p.CleanedHTML)

		urls = append(urls, p.URL)

		for k, v := range p.Media {
			doc.Media[k] = v
		}
		for k, v := range p.Links {
			doc.Links[k] = v
		}
	}

	doc.Markdown = strings.Join(markdown, markdownBreak)
	doc.HTML = strings.Join(rawHTML, htmlBreak)
	doc.CleanedHTML = strings.Join(cleaned, htmlBreak)

	doc.StructuredData = mergeStructured(s.Pages)
	doc.StructuredData["pagination_info"] = map[string]any{
		"pages_scraped": len(s.Pages),
		"urls_scraped":  urls,
		"total_results": len(s.Pages),
	}
	doc.Metadata = map[string]any{
		"pagination": map[string]any{
			"pages_scraped":       len(s.Pages),
			"max_pages_requested": s.MaxPages,
			"urls":                urls,
		},
	}
	return doc
}

// mergeStructured shallow-merges the extracted data of every page. A key seen
// on more than one page becomes the list of its values in page order.
func mergeStructured(pages []*render.Page) map[string]any {
	merged := map[string]any{}
	coalesced := map[string]bool{}
	for _, p := range pages {
		for k, v := range p.StructuredData {
			prev, ok := merged[k]
			switch {
			case !ok:
				merged[k] = v
			case coalesced[k]:
				merged[k] = append(prev.([]any), v)
			default:
				merged[k] = []any{prev, v}
				coalesced[k] = true
			}
		}
	}
	return merged
}
