// Package sitemap indexes a site's pages from its XML sitemap.
package sitemap

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/metrics"
	"github.com/jonathan/seo-content-machine/internal/types"
	"golang.org/x/sync/errgroup"
)

// Defaults for Options.
const (
	DefaultMaxPages = 20
	DefaultWorkers  = 10
	// MaxDepth bounds how many sitemap indexes are followed.
	MaxDepth = 3
)

// Options configures Ingest.
type Options struct {
	MaxPages int
	Workers  int
	Timeout  time.Duration
	// Fetcher retrieves the pages. Defaults to the plain HTTP tier.
	Fetcher fetch.Fetcher
	// HTTP is used for the sitemap documents themselves.
	HTTP *fetch.Options
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Timeout <= 0 {
		o.Timeout = fetch.DefaultTimeout
	}
	if o.HTTP == nil {
		o.HTTP = fetch.DefaultOptions()
		o.HTTP.Timeout = o.Timeout
	}
	if o.Fetcher == nil {
		o.Fetcher = &fetch.HTTPFetcher{Options: o.HTTP}
	}
	return o
}

// Ingest reads the sitemap at sitemapURL and returns the title and H1 of the
// first MaxPages pages, in sitemap order. Only pages answering 200 are kept.
// An unreadable root sitemap is an error; failing pages are skipped.
func Ingest(ctx context.Context, sitemapURL string, opts Options) ([]types.Page, error) {
	opts = opts.withDefaults()
	log := logging.Component("sitemap")

	locs, err := collect(ctx, sitemapURL, opts, 0)
	if err != nil {
		return nil, err
	}
	if len(locs) > opts.MaxPages {
		locs = locs[:opts.MaxPages]
	}
	log.Info().Str("sitemap", sitemapURL).Int("pages", len(locs)).Msg("fetching sitemap pages")

	results := make([]*types.Page, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, loc := range locs {
		g.Go(func() error {
			results[i] = fetchPage(gctx, opts, loc)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := make([]types.Page, 0, len(results))
	for _, page := range results {
		if page != nil {
			pages = append(pages, *page)
		}
	}
	return pages, nil
}

// collect returns the page locations of a sitemap, following indexes up to
// MaxDepth. Duplicates keep their first position.
func collect(ctx context.Context, sitemapURL string, opts Options, depth int) ([]string, error) {
	result, err := fetch.URL(ctx, sitemapURL, opts.HTTP)
	if err != nil {
		return nil, &Error{URL: sitemapURL, Message: "failed to fetch sitemap", Cause: err}
	}
	doc, err := Parse([]byte(result.HTML))
	if err != nil {
		return nil, &Error{URL: sitemapURL, Message: "failed to parse sitemap", Cause: err}
	}
	if !doc.IsIndex() {
		return dedupe(doc.Pages), nil
	}

	log := logging.Component("sitemap")
	if depth+1 >= MaxDepth {
		log.Warn().Str("sitemap", sitemapURL).Int("depth", depth).Msg("sitemap index too deep, skipping children")
		return []string{}, nil
	}

	var locs []string
	for _, child := range doc.Sitemaps {
		childLocs, err := collect(ctx, child, opts, depth+1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("sitemap", child).Msg("skipping child sitemap")
			continue
		}
		locs = append(locs, childLocs...)
		if len(locs) >= opts.MaxPages {
			break
		}
	}
	return dedupe(locs), nil
}

func dedupe(locs []string) []string {
	seen := make(map[string]bool, len(locs))
	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		if !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	return out
}

func fetchPage(ctx context.Context, opts Options, url string) *types.Page {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	result, err := opts.Fetcher.Fetch(ctx, url)
	if err != nil || result.StatusCode != http.StatusOK {
		metrics.SitemapPages.WithLabelValues(metrics.OutcomeFailure).Inc()
		logging.Component("sitemap").Warn().Err(err).Str("url", url).Msg("failed to fetch page")
		return nil
	}

	page, err := ParsePage(url, result.HTML)
	if err != nil {
		metrics.SitemapPages.WithLabelValues(metrics.OutcomeFailure).Inc()
		logging.Component("sitemap").Warn().Err(err).Str("url", url).Msg("failed to parse page")
		return nil
	}
	metrics.SitemapPages.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return &page
}

// ParsePage reads the <title> and first <h1> of a page, both trimmed.
func ParsePage(url, html string) (types.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.Page{}, err
	}
	return types.Page{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		H1:    strings.TrimSpace(doc.Find("h1").First().Text()),
	}, nil
}
