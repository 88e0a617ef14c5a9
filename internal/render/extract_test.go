package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractionConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		arg  string
		nil  bool
	}{
		{"object", `{"selectors":{"title":"h1"}}`, false},
		{"unknown fields", `{"schema":{"name":"x"}}`, false},
		{"not json", `--verbose`, true},
		{"json array", `[1,2]`, true},
		{"json string", `"h1"`, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := ParseExtractionConfig(tt.arg)
			assert.Equal(t, tt.nil, cfg == nil)
		})
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	require.NoError(t, err)

	cfg := &ExtractionConfig{
		Selectors: map[string]string{
			"heading": "h1",
			"items":   "li.item",
			"missing": ".nothing-here",
		},
		XPath: map[string]string{
			"first_cell": "//table//td[1]",
		},
		Regex: map[string]string{
			"image_files": `[a-z]\.png`,
		},
	}

	got, err := cfg.Extract(doc, articleHTML)
	require.NoError(t, err)

	assert.Equal(t, "Widgets", got["heading"])
	assert.Equal(t, []string{"Alpha", "Beta"}, got["items"])
	assert.Equal(t, "Alpha", got["first_cell"])
	assert.Equal(t, []string{"a.png", "a.png"}, got["image_files"])
	assert.NotContains(t, got, "missing")
}

func TestExtractInvalidExpressions(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	require.NoError(t, err)

	_, err = (&ExtractionConfig{Regex: map[string]string{"bad": "(["}}).Extract(doc, articleHTML)
	assert.Error(t, err)

	_, err = (&ExtractionConfig{XPath: map[string]string{"bad": "//*["}}).Extract(doc, articleHTML)
	assert.Error(t, err)

	_, err = (&ExtractionConfig{Selectors: map[string]string{"bad": "div["}}).Extract(doc, articleHTML)
	assert.Error(t, err)
}

func TestExtractNilConfig(t *testing.T) {
	t.Parallel()

	var cfg *ExtractionConfig
	got, err := cfg.Extract(nil, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
