package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/metrics"
)

// Chain fetches a page with the headless browser first and falls back to
// plain HTTP. Once the browser fails to launch, it is skipped for the rest
// of the chain's lifetime.
type Chain struct {
	renderer    Renderer
	options     *Options
	browserDown atomic.Bool
}

// NewChain builds a fallback chain. A nil renderer disables the browser tier.
func NewChain(renderer Renderer, opts *Options) *Chain {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Chain{renderer: renderer, options: opts}
}

// BrowserAvailable reports whether the browser tier is still in play.
func (c *Chain) BrowserAvailable() bool {
	return c.renderer != nil && !c.browserDown.Load()
}

// Renderer returns the browser tier, or nil when it is disabled or down.
func (c *Chain) Renderer() Renderer {
	if !c.BrowserAvailable() {
		return nil
	}
	return c.renderer
}

// Fetch implements Fetcher.
func (c *Chain) Fetch(ctx context.Context, url string) (*Result, error) {
	logger := logging.Component("fetch")

	if c.BrowserAvailable() {
		started := time.Now()
		html, err := c.renderer.Render(ctx, url)
		if err == nil {
			metrics.ObserveFetch(TierBrowser, metrics.OutcomeSuccess, started)
			return &Result{
				URL:        url,
				HTML:       html,
				Text:       BodyText(html, 0),
				StatusCode: 200,
				Tier:       TierBrowser,
			}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrBrowserUnavailable) {
			c.browserDown.Store(true)
		}
		metrics.ObserveFetch(TierBrowser, metrics.OutcomeFallback, started)
		logger.Warn().Err(err).Str("url", url).Msg("browser fetch failed, falling back to http")
	}

	started := time.Now()
	result, err := URL(ctx, url, c.options)
	if result != nil {
		result.Text = BodyText(result.HTML, 0)
	}
	if err != nil {
		metrics.ObserveFetch(TierHTTP, metrics.OutcomeFailure, started)
		logger.Warn().Err(err).Str("url", url).Msg("http fetch failed")
		return result, err
	}
	metrics.ObserveFetch(TierHTTP, metrics.OutcomeSuccess, started)
	return result, nil
}
