// Package serp looks up the top organic results for a topic and classifies
// the search intent behind them.
package serp

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/metrics"
	"github.com/jonathan/seo-content-machine/internal/types"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Search tiers.
const (
	TierAPI        = "customsearch"
	TierGoogle     = "google"
	TierDuckDuckGo = "duckduckgo"
)

// DefaultLimit is the number of results kept.
const DefaultLimit = 5

// Public endpoints.
const (
	GoogleSearchURL   = "https://www.google.com/search"
	DuckDuckGoHTMLURL = "https://html.duckduckgo.com/html/"
	duckDuckGoReferer = "https://duckduckgo.com/"
)

// Options configures a Searcher.
type Options struct {
	APIKey   string // Custom Search API key; the API tier needs both key and CX
	CX       string
	Renderer fetch.Renderer // headless Google; nil skips the tier
	HTTP     *fetch.Options
	Limit    int

	// Endpoint overrides, used by tests.
	APIEndpoint   string
	GoogleURL     string
	DuckDuckGoURL string
}

// Searcher runs a search through the API, headless Google and DuckDuckGo
// tiers, stopping at the first tier that yields results.
type Searcher struct {
	api      *customsearch.Service
	cx       string
	renderer fetch.Renderer
	httpOpts *fetch.Options
	limit    int
	google   string
	ddg      string
}

// NewSearcher builds a Searcher.
func NewSearcher(ctx context.Context, opts Options) (*Searcher, error) {
	s := &Searcher{
		cx:       opts.CX,
		renderer: opts.Renderer,
		httpOpts: opts.HTTP,
		limit:    opts.Limit,
		google:   opts.GoogleURL,
		ddg:      opts.DuckDuckGoURL,
	}
	if s.limit <= 0 {
		s.limit = DefaultLimit
	}
	if s.google == "" {
		s.google = GoogleSearchURL
	}
	if s.ddg == "" {
		s.ddg = DuckDuckGoHTMLURL
	}
	if s.httpOpts == nil {
		s.httpOpts = fetch.DefaultOptions()
	}

	if opts.APIKey != "" && opts.CX != "" {
		clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
		if opts.APIEndpoint != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(opts.APIEndpoint))
		}
		svc, err := customsearch.NewService(ctx, clientOpts...)
		if err != nil {
			return nil, &Error{Tier: TierAPI, Message: "failed to create customsearch service", Cause: err}
		}
		s.api = svc
	}
	return s, nil
}

type tier struct {
	name string
	run  func(ctx context.Context, topic string) ([]types.SearchResult, error)
}

func (s *Searcher) tiers() []tier {
	var tiers []tier
	if s.api != nil {
		tiers = append(tiers, tier{TierAPI, s.searchAPI})
	}
	if s.renderer != nil {
		tiers = append(tiers, tier{TierGoogle, s.searchGoogle})
	}
	return append(tiers, tier{TierDuckDuckGo, s.searchDuckDuckGo})
}

// Search returns up to Limit results. When every tier fails or comes back
// empty the result is empty; only context errors are returned.
func (s *Searcher) Search(ctx context.Context, topic string) ([]types.SearchResult, error) {
	logger := logging.Component("serp")

	for _, t := range s.tiers() {
		results, err := t.run(ctx, topic)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch {
		case err != nil:
			metrics.SearchTotal.WithLabelValues(t.name, metrics.OutcomeFailure).Inc()
			logger.Warn().Err(err).Str("tier", t.name).Str("topic", topic).Msg("search tier failed")
		case len(results) == 0:
			metrics.SearchTotal.WithLabelValues(t.name, metrics.OutcomeFallback).Inc()
			logger.Warn().Str("tier", t.name).Str("topic", topic).Msg("search tier returned no results")
		default:
			metrics.SearchTotal.WithLabelValues(t.name, metrics.OutcomeSuccess).Inc()
			return results, nil
		}
	}

	logger.Warn().Str("topic", topic).Msg("all search tiers failed")
	return []types.SearchResult{}, nil
}

func (s *Searcher) searchAPI(ctx context.Context, topic string) ([]types.SearchResult, error) {
	resp, err := s.api.Cse.List().Cx(s.cx).Q(topic).Num(int64(s.limit)).Context(ctx).Do()
	if err != nil {
		return nil, &Error{Tier: TierAPI, Message: "search failed", Cause: err}
	}

	results := make([]types.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		results = append(results, types.SearchResult{URL: item.Link, Title: item.Title})
		if len(results) == s.limit {
			break
		}
	}
	return results, nil
}

func (s *Searcher) searchGoogle(ctx context.Context, topic string) ([]types.SearchResult, error) {
	searchURL := s.google + "?q=" + url.QueryEscape(topic)
	html, err := s.renderer.Render(ctx, searchURL)
	if err != nil {
		return nil, &Error{Tier: TierGoogle, Message: "render failed", Cause: err}
	}
	return ParseGoogleResults(html, s.limit)
}

func (s *Searcher) searchDuckDuckGo(ctx context.Context, topic string) ([]types.SearchResult, error) {
	opts := *s.httpOpts
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	headers := map[string]string{"Referer": duckDuckGoReferer}
	for k, v := range s.httpOpts.Headers {
		headers[k] = v
	}
	opts.Headers = headers

	result, err := fetch.PostForm(ctx, s.ddg, url.Values{"q": {topic}}, &opts)
	if err != nil {
		return nil, &Error{Tier: TierDuckDuckGo, Message: "request failed", Cause: err}
	}
	return ParseDuckDuckGoResults(result.HTML, s.limit)
}

// ParseGoogleResults reads organic results from a Google results page.
// Titles come from "div.g h3" and URLs from the enclosing link.
func ParseGoogleResults(html string, limit int) ([]types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{Tier: TierGoogle, Message: "failed to parse results page", Cause: err}
	}

	var results []types.SearchResult
	doc.Find("div.g h3").EachWithBreak(func(_ int, h3 *goquery.Selection) bool {
		href, _ := h3.Closest("a").Attr("href")
		title := strings.TrimSpace(h3.Text())
		if title != "" && strings.HasPrefix(href, "http") {
			results = append(results, types.SearchResult{URL: href, Title: title})
		}
		return len(results) < limit
	})
	return results, nil
}

// ParseDuckDuckGoResults reads results from the DuckDuckGo HTML endpoint.
func ParseDuckDuckGoResults(html string, limit int) ([]types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{Tier: TierDuckDuckGo, Message: "failed to parse results page", Cause: err}
	}

	var results []types.SearchResult
	doc.Find("a.result__a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		title := strings.Join(strings.Fields(a.Text()), " ")
		if href != "" && title != "" {
			results = append(results, types.SearchResult{URL: decodeDuckDuckGoLink(href), Title: title})
		}
		return len(results) < limit
	})
	return results, nil
}

// decodeDuckDuckGoLink unwraps //duckduckgo.com/l/?uddg=<target> redirects.
func decodeDuckDuckGoLink(href string) string {
	raw := href
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Hostname(), "duckduckgo.com") || !strings.HasPrefix(u.Path, "/l/") {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
