package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>Widgets - Page 1</title>
  <meta name="description" content="All the widgets">
  <meta property="og:type" content="website">
  <style>body { color: red; }</style>
  <script>console.log("tracking")</script>
</head>
<body>
  <!-- header comment -->
  <h1>Widgets</h1>
  <p class="intro">Browse our <a href="/catalog">catalog</a> or visit <a href="https://other.test/x">partners</a>.</p>
  <img src="/img/a.png" alt="Widget A">
  <img src="/img/a.png" alt="duplicate">
  <video><source src="clip.mp4"></video>
  <table>
    <tr><th>Name</th><th>Price</th></tr>
    <tr><td>Alpha</td><td>10</td></tr>
  </table>
  <ul class="items"><li class="item">Alpha</li><li class="item">Beta</li></ul>
  <a href="#top">top</a>
  <a href="mailto:sales@shop.test">mail</a>
  <noscript>enable js</noscript>
</body>
</html>`

func TestBuildPage(t *testing.T) {
	t.Parallel()

	page, err := BuildPage(articleHTML, "https://shop.test/widgets", "", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test/widgets", page.URL)
	assert.Equal(t, "Widgets - Page 1", page.Title)
	assert.Equal(t, articleHTML, page.HTML)
	assert.Empty(t, page.StructuredData)

	t.Run("cleaned html drops noise", func(t *testing.T) {
		assert.NotContains(t, page.CleanedHTML, "tracking")
		assert.NotContains(t, page.CleanedHTML, "color: red")
		assert.NotContains(t, page.CleanedHTML, "header comment")
		assert.NotContains(t, page.CleanedHTML, "enable js")
		assert.Contains(t, page.CleanedHTML, "<h1>Widgets</h1>")
	})

	t.Run("markdown", func(t *testing.T) {
		assert.Contains(t, page.Markdown, "# Widgets")
		assert.Regexp(t, `\|\s*Name\s*\|\s*Price\s*\|`, page.Markdown)
		assert.NotContains(t, page.Markdown, "tracking")
	})

	t.Run("media is resolved and deduplicated", func(t *testing.T) {
		images := page.Media["images"].([]map[string]string)
		require.Len(t, images, 1)
		assert.Equal(t, "https://shop.test/img/a.png", images[0]["src"])
		assert.Equal(t, "Widget A", images[0]["alt"])

		videos := page.Media["videos"].([]map[string]string)
		require.Len(t, videos, 1)
		assert.Equal(t, "https://shop.test/clip.mp4", videos[0]["src"])
	})

	t.Run("links are split by host", func(t *testing.T) {
		internal := page.Links["internal"].([]map[string]string)
		external := page.Links["external"].([]map[string]string)
		require.Len(t, internal, 1)
		require.Len(t, external, 1)
		assert.Equal(t, "https://shop.test/catalog", internal[0]["href"])
		assert.Equal(t, "catalog", internal[0]["text"])
		assert.Equal(t, "https://other.test/x", external[0]["href"])
	})

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, "All the widgets", page.Metadata["description"])
		assert.Equal(t, "website", page.Metadata["og:type"])
		assert.Equal(t, "en", page.Metadata["language"])
		assert.Equal(t, "Widgets - Page 1", page.Metadata["title"])
	})
}

func TestBuildPageKeepsGivenTitle(t *testing.T) {
	t.Parallel()

	page, err := BuildPage(articleHTML, "https://shop.test/widgets", "Rendered title", nil)
	require.NoError(t, err)
	assert.Equal(t, "Rendered title", page.Title)
}

func TestBuildPageInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := BuildPage(articleHTML, "http://[::1", "", nil)
	assert.Error(t, err)
}

func TestBuildPageWithoutBody(t *testing.T) {
	t.Parallel()

	page, err := BuildPage("plain text only", "https://shop.test/", "", nil)
	require.NoError(t, err)
	assert.True(t, strings.Contains(page.Markdown, "plain text only"))
}

func TestBuildPageDropsInvalidUTF8(t *testing.T) {
	t.Parallel()

	page, err := BuildPage("<html><head><title>Caf\xe9</title></head><body><p>ok \xff\xfe done</p></body></html>",
		"https://shop.test/", "", nil)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(page.HTML))
	assert.True(t, utf8.ValidString(page.Markdown))
	assert.Equal(t, "Caf", page.Title)
	assert.Regexp(t, `ok\s+done`, page.Markdown)
}
