package render

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelector lists elements dropped from cleaned_html and markdown.
const noiseSelector = "script, style, noscript, iframe, svg, template, link, meta, object, embed"

// BuildPage turns rendered HTML into a Page. All engines funnel through it so
// the output shape does not depend on how the page was fetched. Invalid UTF-8
// bytes are dropped.
func BuildPage(rawHTML, pageURL, title string, extraction *ExtractionConfig) (*Page, error) {
	rawHTML = strings.ToValidUTF8(rawHTML, "")
	title = strings.ToValidUTF8(title, "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	structured, err := extraction.Extract(doc, rawHTML)
	if err != nil {
		return nil, err
	}

	page := &Page{
		URL:            pageURL,
		Title:          title,
		HTML:           rawHTML,
		StructuredData: structured,
		Media:          extractMedia(doc, base),
		Links:          extractLinks(doc, base),
		Metadata:       extractMetadata(doc, title),
	}

	cleaned, err := cleanHTML(doc)
	if err != nil {
		return nil, err
	}
	page.CleanedHTML = cleaned

	markdown, err := toMarkdown(cleaned)
	if err != nil {
		return nil, err
	}
	page.Markdown = markdown

	return page, nil
}

// cleanHTML strips scripts, styles, embeds and comments and returns the body.
// It mutates doc.
func cleanHTML(doc *goquery.Document) (string, error) {
	doc.Find(noiseSelector).Remove()
	for _, n := range doc.Nodes {
		removeComments(n)
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	out, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render cleaned HTML: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

func toMarkdown(cleaned string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

func extractMedia(doc *goquery.Document, base *url.URL) map[string]any {
	collect := func(selector string) []map[string]string {
		items := []map[string]string{}
		seen := map[string]bool{}
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			src := resolve(base, s.AttrOr("src", ""))
			if src == "" || seen[src] {
				return
			}
			seen[src] = true
			item := map[string]string{"src": src}
			if alt := strings.TrimSpace(s.AttrOr("alt", "")); alt != "" {
				item["alt"] = alt
			}
			items = append(items, item)
		})
		return items
	}

	return map[string]any{
		"images": collect("img[src]"),
		"videos": collect("video[src], video source[src]"),
		"audios": collect("audio[src], audio source[src]"),
	}
}

func extractLinks(doc *goquery.Document, base *url.URL) map[string]any {
	internal := []map[string]string{}
	external := []map[string]string{}
	seen := map[string]bool{}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.AttrOr("href", ""))
		lower := strings.ToLower(raw)
		if raw == "" || strings.HasPrefix(raw, "#") ||
			strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
			return
		}
		href := resolve(base, raw)
		if href == "" || seen[href] {
			return
		}
		seen[href] = true

		link := map[string]string{
			"href": href,
			"text": strings.Join(strings.Fields(s.Text()), " "),
		}
		u, err := url.Parse(href)
		if err == nil && strings.EqualFold(u.Hostname(), base.Hostname()) {
			internal = append(internal, link)
		} else {
			external = append(external, link)
		}
	})

	return map[string]any{
		"internal": internal,
		"external": external,
	}
}

func extractMetadata(doc *goquery.Document, title string) map[string]any {
	meta := map[string]any{}
	if title != "" {
		meta["title"] = title
	}
	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		key := s.AttrOr("name", "")
		if key == "" {
			key = s.AttrOr("property", "")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return
		}
		if _, exists := meta[key]; !exists {
			meta[key] = strings.TrimSpace(s.AttrOr("content", ""))
		}
	})
	if lang, ok := doc.Find("html").Attr("lang"); ok && lang != "" {
		meta["language"] = lang
	}
	return meta
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
