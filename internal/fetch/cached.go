package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"golang.org/x/sync/errgroup"
)

// PageStore is the page cache. *db.DB satisfies it.
type PageStore interface {
	ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error)
	GetFreshCrawledPage(ctx context.Context, pageURL string, maxAge time.Duration) (*db.CrawledPage, error)
	UpsertCrawledPage(ctx context.Context, page *db.CrawledPage) error
	RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error
	ExpireCrawledPage(ctx context.Context, pageURL string) error
}

// CachedFetcher wraps a Fetcher with database-backed caching.
type CachedFetcher struct {
	store     PageStore
	fetcher   Fetcher
	cacheTTL  time.Duration
	skipCache bool
	project   string
	pageType  string
	workers   int
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Project   string // stored with each page
	PageType  string
	Workers   int // FetchMultiple concurrency
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: db.DefaultPageCacheTTL,
		PageType: db.PageTypeOther,
		Workers:  4,
	}
}

// NewCachedFetcher creates a new cached fetcher. A nil store disables caching.
func NewCachedFetcher(store PageStore, fetcher Fetcher, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = db.DefaultPageCacheTTL
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &CachedFetcher{
		store:     store,
		fetcher:   fetcher,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
		project:   config.Project,
		pageType:  config.PageType,
		workers:   config.Workers,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
	PageID    uuid.UUID
}

// Fetch implements Fetcher.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	res, err := f.FetchCached(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// FetchCached retrieves a URL, serving it from cache when a fresh copy exists.
func (f *CachedFetcher) FetchCached(ctx context.Context, urlStr string) (*CachedResult, error) {
	useCache := !f.skipCache && f.store != nil

	if useCache {
		shouldSkip, reason, err := f.store.ShouldSkipURL(ctx, urlStr)
		if err != nil {
			return nil, fmt.Errorf("failed to check skip status: %w", err)
		}
		if shouldSkip {
			return nil, &Error{URL: urlStr, Message: fmt.Sprintf("URL skipped: %s", reason)}
		}

		cached, err := f.store.GetFreshCrawledPage(ctx, urlStr, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if cached != nil {
			return &CachedResult{
				Result: &Result{
					URL:        cached.URL,
					HTML:       derefString(cached.RawHTML),
					Text:       derefString(cached.ParsedText),
					StatusCode: derefInt(cached.HTTPStatus),
					Tier:       TierCache,
				},
				FromCache: true,
				PageID:    cached.ID,
			}, nil
		}
	}

	result, err := f.fetcher.Fetch(ctx, urlStr)
	if err != nil {
		if f.store != nil && ctx.Err() == nil {
			statusCode := 0
			if result != nil {
				statusCode = result.StatusCode
			}
			if recErr := f.store.RecordFailedFetch(ctx, urlStr, statusCode, err.Error()); recErr != nil {
				logging.Component("fetch").Warn().Err(recErr).Str("url", urlStr).Msg("failed to record fetch failure")
			}
		}
		return nil, err
	}

	out := &CachedResult{Result: result}
	if f.store == nil {
		return out, nil
	}

	page := &db.CrawledPage{
		URL:         urlStr,
		RawHTML:     &result.HTML,
		ParsedText:  &result.Text,
		HTTPStatus:  &result.StatusCode,
		FetchStatus: db.FetchStatusSuccess,
	}
	if f.project != "" {
		page.Project = &f.project
	}
	if f.pageType != "" {
		page.PageType = &f.pageType
	}
	if result.Tier != "" {
		page.FetchTier = &result.Tier
	}
	if err := f.store.UpsertCrawledPage(ctx, page); err != nil {
		// The fetch itself succeeded.
		logging.Component("fetch").Warn().Err(err).Str("url", urlStr).Msg("failed to cache page")
		return out, nil
	}
	out.PageID = page.ID
	return out, nil
}

// FetchMultiple fetches URLs concurrently. Results keep the input order;
// a failed fetch leaves a nil result and its error at the same index.
func (f *CachedFetcher) FetchMultiple(ctx context.Context, urls []string) ([]*CachedResult, []error) {
	results := make([]*CachedResult, len(urls))
	errs := make([]error, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, u := range urls {
		g.Go(func() error {
			res, err := f.FetchCached(gctx, u)
			results[i] = res
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}

// InvalidateCache marks a cached page as stale, forcing a re-fetch on next request.
func (f *CachedFetcher) InvalidateCache(ctx context.Context, urlStr string) error {
	if f.store == nil {
		return nil
	}
	return f.store.ExpireCrawledPage(ctx, urlStr)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
