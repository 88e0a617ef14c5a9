package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
)

// ExtractionConfig names the structured fields to pull out of each page.
// Every map goes from output key to expression.
type ExtractionConfig struct {
	Selectors map[string]string `json:"selectors" yaml:"selectors"`
	XPath     map[string]string `json:"xpath" yaml:"xpath"`
	Regex     map[string]string `json:"regex" yaml:"regex"`
}

// ParseExtractionConfig decodes a JSON extraction config. Anything that is
// not a JSON object yields nil.
func ParseExtractionConfig(arg string) *ExtractionConfig {
	var cfg ExtractionConfig
	if err := json.Unmarshal([]byte(arg), &cfg); err != nil {
		return nil
	}
	return &cfg
}

// Extract evaluates the CSS selectors, XPath expressions and regular
// expressions against the page. One match is stored as a string, several as
// a list; keys without matches are omitted. Invalid expressions are reported
// as an error.
func (c *ExtractionConfig) Extract(doc *goquery.Document, rawHTML string) (map[string]any, error) {
	extracted := make(map[string]any)
	if c == nil {
		return extracted, nil
	}

	for name, selector := range c.Selectors {
		sel, err := cascadia.Compile(selector)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q for %s: %w", selector, name, err)
		}
		var values []string
		doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
			values = append(values, strings.TrimSpace(s.Text()))
		})
		store(extracted, name, values)
	}

	if len(c.XPath) > 0 {
		root, err := htmlquery.Parse(strings.NewReader(rawHTML))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML for XPath: %w", err)
		}
		for name, expr := range c.XPath {
			nodes, err := htmlquery.QueryAll(root, expr)
			if err != nil {
				return nil, fmt.Errorf("invalid XPath %q for %s: %w", expr, name, err)
			}
			values := make([]string, 0, len(nodes))
			for _, n := range nodes {
				values = append(values, strings.TrimSpace(htmlquery.InnerText(n)))
			}
			store(extracted, name, values)
		}
	}

	for name, pattern := range c.Regex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q for %s: %w", pattern, name, err)
		}
		store(extracted, name, re.FindAllString(rawHTML, -1))
	}

	return extracted, nil
}

func store(extracted map[string]any, name string, values []string) {
	switch len(values) {
	case 0:
	case 1:
		extracted[name] = values[0]
	default:
		extracted[name] = values
	}
}
