package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRenderer(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>List</title></head><body><h2>Items</h2><a rel="next" href="/list?page=2">Next</a></body></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r, err := Open(Config{Engine: "static", UserAgent: "pagecrawl-test"}, nil)
	require.NoError(t, err)
	require.Equal(t, "static", r.Name())

	t.Run("renders page", func(t *testing.T) {
		t.Parallel()

		page, err := r.Render(context.Background(), srv.URL+"/list", Options{
			Extraction: &ExtractionConfig{Selectors: map[string]string{"heading": "h2"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "List", page.Title)
		assert.Equal(t, srv.URL+"/list", page.URL)
		assert.Contains(t, page.Markdown, "## Items")
		assert.Equal(t, "Items", page.StructuredData["heading"])
		assert.Equal(t, "static", page.Metadata["engine"])
	})

	t.Run("http error is a fetch failure", func(t *testing.T) {
		t.Parallel()

		_, err := r.Render(context.Background(), srv.URL+"/missing", Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFetchFailed))
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("unknown engine", func(t *testing.T) {
		t.Parallel()

		_, err := Open(Config{Engine: "lynx"}, nil)
		assert.Error(t, err)
	})

	t.Run("missing browser binary yields unavailable renderer", func(t *testing.T) {
		t.Parallel()

		for _, engine := range []string{"rod", "chromedp"} {
			r, err := Open(Config{Engine: engine, BrowserBin: "/nonexistent/chrome"}, nil)
			require.NoError(t, err)

			u, ok := r.(*Unavailable)
			require.True(t, ok, "engine %s", engine)
			assert.Equal(t, engine, u.Name())
			assert.Contains(t, u.Message(), "--engine static")

			_, err = r.Render(context.Background(), "http://x.test/", Options{})
			assert.True(t, errors.Is(err, ErrRendererUnavailable))
		}
	})

	t.Run("engines are registered", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []string{"chromedp", "rod", "static"}, Engines())
	})
}

func TestParseWaitStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"load", "", false},
		{"element", "#content", false},
		{"element", "", true},
		{"time", "1500", false},
		{"time", "", true},
		{"time", "soon", true},
		{"idle", "", true},
	}
	for _, tt := range tests {
		_, err := ParseWaitStrategy(tt.name, tt.target)
		assert.Equal(t, tt.wantErr, err != nil, "%s/%s", tt.name, tt.target)
	}
}
