package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, TierHTTP, result.Tier)
	assert.Equal(t, "text/html", result.ContentType)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_UnsupportedScheme(t *testing.T) {
	_, err := URL(context.Background(), "ftp://example.com/file", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html><body>gone</body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Contains(t, result.HTML, "gone")

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "https://example.com/", r.Header.Get("Referer"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	opts := &Options{UserAgent: "custom-agent", Headers: map[string]string{"Referer": "https://example.com/"}}
	_, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
}

func TestPostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		_, _ = w.Write([]byte("<p>" + r.PostForm.Get("q") + "</p>"))
	}))
	defer server.Close()

	result, err := PostForm(context.Background(), server.URL, map[string][]string{"q": {"garden tools"}}, nil)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "garden tools")
}

func TestHTTPFetcher_SetsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><script>var x;</script><p>Hello   world</p></body></html>"))
	}))
	defer server.Close()

	f := &HTTPFetcher{}
	result, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", result.Text)
}

func TestExtractMainText_WithMainElement(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Main Content</h1>
				<p>This is the main text.</p>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := ExtractMainText(html, DefaultTextSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Main Content")
	assert.Contains(t, text, "This is the main text.")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer")
}

func TestExtractMainText_WithArticleElement(t *testing.T) {
	html := `<html><body><div class="sidebar">Side</div><article><p>Article body</p></article></body></html>`

	text, err := ExtractMainText(html, DefaultTextSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Article body", text)
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	html := `<html><body><div><p>Just a paragraph</p></div></body></html>`

	text, err := ExtractMainText(html, DefaultTextSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Just a paragraph", text)
}

func TestExtractMainText_ExtraNoise(t *testing.T) {
	html := `<html><body><main><div class="promo">Buy now</div><p>Content</p></main></body></html>`

	text, err := ExtractMainText(html, DefaultTextSelectors(), ".promo")
	require.NoError(t, err)
	assert.Equal(t, "Content", text)
}

func TestBodyText(t *testing.T) {
	html := `<html><head><title>T</title><style>p{}</style></head><body>
		<h1>Heading</h1>
		<p>First   paragraph.</p>
		<noscript>enable js</noscript>
	</body></html>`

	assert.Equal(t, "Heading First paragraph.", BodyText(html, 0))
	assert.Equal(t, "Heading", BodyText(html, 7))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "Прив", Truncate("Привіт", 4))
}

func TestCleanWhitespace(t *testing.T) {
	assert.Equal(t, "a\nb", cleanWhitespace("  a  \n\n   \n b "))
	assert.Equal(t, "", cleanWhitespace(strings.Repeat("\n", 3)))
}
