package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultBrowserTimeout bounds a single page render.
const DefaultBrowserTimeout = 30 * time.Second

// Renderer renders a page in a JavaScript-capable engine and returns its HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	UserAgent string
	Timeout   time.Duration
	Settle    time.Duration // extra wait after the body is ready
	ExecPath  string        // optional Chrome binary
}

func (o BrowserOptions) withDefaults() BrowserOptions {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultBrowserTimeout
	}
	return o
}

// Browser is a long-lived headless Chrome. Each Render opens a new tab.
type Browser struct {
	opts          BrowserOptions
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// NewBrowser launches headless Chrome. Launch failures wrap ErrBrowserUnavailable.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, &Error{Message: "browser launch failed", Cause: errors.Join(ErrBrowserUnavailable, err)}
	}

	return &Browser{
		opts:          opts,
		browserCtx:    browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
	}, nil
}

// Render navigates a fresh tab to url and returns the rendered document.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.opts.Timeout)
	defer cancelTimeout()

	// The tab hangs off the browser context, so follow the caller's cancellation too.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if b.opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(b.opts.Settle))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}
	return html, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// LazyBrowser launches Chrome on first use. A failed launch is remembered
// and every later Render returns ErrBrowserUnavailable without retrying.
type LazyBrowser struct {
	opts BrowserOptions

	mu        sync.Mutex
	browser   *Browser
	launchErr error
}

// NewLazyBrowser creates a browser that starts on the first Render.
func NewLazyBrowser(opts BrowserOptions) *LazyBrowser {
	return &LazyBrowser{opts: opts}
}

func (l *LazyBrowser) get(ctx context.Context) (*Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browser != nil {
		return l.browser, nil
	}
	if l.launchErr != nil {
		return nil, l.launchErr
	}

	// The browser outlives the request that happened to start it.
	browser, err := NewBrowser(context.WithoutCancel(ctx), l.opts)
	if err != nil {
		l.launchErr = err
		return nil, err
	}
	l.browser = browser
	return browser, nil
}

// Render implements Renderer.
func (l *LazyBrowser) Render(ctx context.Context, url string) (string, error) {
	browser, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return browser.Render(ctx, url)
}

// Close stops the browser if it was started.
func (l *LazyBrowser) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser != nil {
		l.browser.Close()
		l.browser = nil
	}
}
