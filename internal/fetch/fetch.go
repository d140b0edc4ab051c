// Package fetch retrieves web pages through a fallback chain of a headless
// browser and a plain HTTP client, with helpers for turning HTML into text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default per-page timeout.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is a desktop Chrome user agent; several sites serve
// stripped pages to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// Scraping tiers, used in results, logs and metrics.
const (
	TierBrowser = "browser"
	TierHTTP    = "http"
	TierCache   = "cache"
)

// Result holds the raw and processed content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	Text        string
	ContentType string
	StatusCode  int
	Tier        string
}

// Fetcher retrieves a single page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Client    *http.Client // optional, for tests and shared transports
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (o *Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: o.Timeout}
}

// URL retrieves HTML content from a URL with GET.
// For non-200 responses the result is returned together with an *Error.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	return do(req, opts)
}

// PostForm submits a URL-encoded form and returns the response page.
func PostForm(ctx context.Context, urlStr string, form url.Values, opts *Options) (*Result, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(req, opts)
}

func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &Error{URL: urlStr, Message: fmt.Sprintf("unsupported scheme %q", parsedURL.Scheme)}
	}
	return nil
}

func do(req *http.Request, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	urlStr := req.URL.String()

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := opts.client().Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Tier:        TierHTTP,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return result, nil
}

// HTTPFetcher is the plain HTTP tier as a Fetcher.
type HTTPFetcher struct {
	Options *Options
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	result, err := URL(ctx, urlStr, f.Options)
	if result != nil {
		result.Text = BodyText(result.HTML, 0)
	}
	return result, err
}
