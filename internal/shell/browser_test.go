package shell

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkoos/internal/config"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Darko
    Home </title>
  <style>body { color: red; }</style>
  <script>var hidden = "do not show";</script>
</head>
<body>
  <h1>Welcome</h1>
  <p>First   paragraph with <b>bold</b> text.</p>
  <div>Second<br>line &amp; more</div>
  <noscript>enable scripts</noscript>
</body>
</html>`

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML(strings.NewReader(samplePage))
	require.NoError(t, err)

	assert.Equal(t, "Darko Home", page.Title)
	assert.Equal(t, "Welcome\nFirst paragraph with bold text.\nSecond\nline & more", page.Text)
	assert.NotContains(t, page.Text, "do not show")
	assert.NotContains(t, page.Text, "color")
	assert.NotContains(t, page.Text, "enable scripts")
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "https://example.com", false},
		{"  http://example.com/a?b=c ", "http://example.com/a?b=c", false},
		{"ftp://example.com", "", true},
		{"file:///etc/passwd", "", true},
		{"http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, samplePage)
	})
	mux.HandleFunc("/other", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head><title>Other</title></head><body>elsewhere</body></html>")
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newPageServer(t)

	page, err := Fetch(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Darko Home", page.Title)
	assert.Equal(t, srv.URL, page.URL)

	t.Run("NotFound", func(t *testing.T) {
		srv404 := httptest.NewServer(http.NotFoundHandler())
		defer srv404.Close()

		_, err := Fetch(context.Background(), srv404.Client(), srv404.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("Timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := Fetch(ctx, srv.Client(), srv.URL+"/slow")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestBrowserWindow(t *testing.T) {
	srv := newPageServer(t)

	m, out, _ := setupSession(t, script(
		"Secret",
		"4",
		"home",
		"go "+srv.URL+"/other",
		"back",
		"go ftp://nowhere",
		"close",
		"shutdown",
	), func(cfg *config.Config) {
		cfg.Browser.Home = srv.URL
	})

	require.NoError(t, m.Run())

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "Darko Home\n"), "home page shown again after back")
	assert.Contains(t, got, "elsewhere")
	assert.Contains(t, got, `Error: unsupported scheme "ftp"`)
}
