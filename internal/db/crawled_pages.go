package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const crawledPageColumns = `id, project, url, page_type, raw_html, parsed_text, content_hash,
	http_status, fetch_tier, fetch_status, error_message, is_permanent_failure, retry_count, retry_after,
	fetched_at, expires_at, last_accessed_at, created_at, updated_at`

func scanCrawledPage(row pgx.Row) (*CrawledPage, error) {
	var p CrawledPage
	err := row.Scan(&p.ID, &p.Project, &p.URL, &p.PageType, &p.RawHTML, &p.ParsedText, &p.ContentHash,
		&p.HTTPStatus, &p.FetchTier, &p.FetchStatus, &p.ErrorMessage, &p.IsPermanentFailure, &p.RetryCount, &p.RetryAfter,
		&p.FetchedAt, &p.ExpiresAt, &p.LastAccessedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCrawledPageByURL retrieves a cached page by URL
func (db *DB) GetCrawledPageByURL(ctx context.Context, pageURL string) (*CrawledPage, error) {
	p, err := scanCrawledPage(db.pool.QueryRow(ctx,
		`SELECT `+crawledPageColumns+` FROM crawled_pages WHERE url = $1`,
		pageURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get crawled page: %w", err)
	}
	return p, nil
}

// GetFreshCrawledPage retrieves a page only if it is recent, unexpired and was successful
func (db *DB) GetFreshCrawledPage(ctx context.Context, pageURL string, maxAge time.Duration) (*CrawledPage, error) {
	page, err := db.GetCrawledPageByURL(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	if !page.IsFresh(maxAge) || page.IsExpired() {
		return nil, nil
	}
	if page.FetchStatus != FetchStatusSuccess {
		return nil, nil
	}

	_ = db.TouchCrawledPage(ctx, page.ID)

	return page, nil
}

// ShouldSkipURL checks if a URL failed permanently or is inside its retry backoff
func (db *DB) ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error) {
	page, err := db.GetCrawledPageByURL(ctx, pageURL)
	if err != nil {
		return false, "", err
	}
	if page == nil {
		return false, "", nil
	}

	if page.IsPermanentFailure {
		reason := "permanent failure"
		if page.ErrorMessage != nil {
			reason = *page.ErrorMessage
		}
		return true, reason, nil
	}

	if page.RetryAfter != nil && time.Now().Before(*page.RetryAfter) {
		return true, "retry backoff", nil
	}

	return false, "", nil
}

// UpsertCrawledPage inserts or updates a crawled page (for successful fetches)
func (db *DB) UpsertCrawledPage(ctx context.Context, page *CrawledPage) error {
	var contentHash *string
	if page.RawHTML != nil {
		hash := HashContent(*page.RawHTML)
		contentHash = &hash
	}

	expiresAt := page.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(DefaultPageCacheTTL)
		expiresAt = &t
	}

	fetchStatus := page.FetchStatus
	if fetchStatus == "" {
		fetchStatus = FetchStatusSuccess
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO crawled_pages (project, url, page_type, raw_html, parsed_text, content_hash,
		                            http_status, fetch_tier, fetch_status, error_message, is_permanent_failure,
		                            retry_count, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, NOW(), $12)
		 ON CONFLICT (url) DO UPDATE SET
		     project = COALESCE($1, crawled_pages.project),
		     page_type = COALESCE($3, crawled_pages.page_type),
		     raw_html = $4,
		     parsed_text = $5,
		     content_hash = $6,
		     http_status = $7,
		     fetch_tier = $8,
		     fetch_status = $9,
		     error_message = $10,
		     is_permanent_failure = $11,
		     retry_count = 0,
		     retry_after = NULL,
		     fetched_at = NOW(),
		     expires_at = $12,
		     updated_at = NOW()
		 RETURNING id, fetched_at, created_at, updated_at`,
		page.Project, page.URL, page.PageType, page.RawHTML, page.ParsedText, contentHash,
		page.HTTPStatus, page.FetchTier, fetchStatus, page.ErrorMessage, page.IsPermanentFailure, expiresAt,
	).Scan(&page.ID, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert crawled page: %w", err)
	}
	return nil
}

// RecordFailedFetch records a failed fetch attempt.
// Transient failures back off 1 min * 5^retry_count, capped at 2 hours;
// permanent failures (404/410/451) are never retried.
func (db *DB) RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error {
	fetchStatus := FetchStatusFromHTTP(httpStatus)
	if httpStatus == 0 {
		fetchStatus = FetchStatusError
	}
	isPermanent := IsPermanentHTTPStatus(httpStatus)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO crawled_pages (url, http_status, fetch_status, error_message, is_permanent_failure, retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, 1,
		         CASE WHEN $5 THEN NULL ELSE NOW() + INTERVAL '1 minute' END,
		         NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     http_status = $2,
		     fetch_status = $3,
		     error_message = $4,
		     is_permanent_failure = $5 OR crawled_pages.is_permanent_failure,
		     retry_count = crawled_pages.retry_count + 1,
		     retry_after = CASE
		         WHEN $5 OR crawled_pages.is_permanent_failure THEN NULL
		         ELSE NOW() + LEAST(
		             INTERVAL '1 minute' * POWER(5, LEAST(crawled_pages.retry_count, 3)),
		             INTERVAL '2 hours'
		         )
		     END,
		     fetched_at = NOW(),
		     updated_at = NOW()`,
		pageURL, httpStatus, fetchStatus, errorMsg, isPermanent,
	)
	if err != nil {
		return fmt.Errorf("failed to record failed fetch: %w", err)
	}
	return nil
}

// TouchCrawledPage updates the last_accessed_at timestamp
func (db *DB) TouchCrawledPage(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE crawled_pages SET last_accessed_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch crawled page: %w", err)
	}
	return nil
}

// ExpireCrawledPage marks a cached page stale so the next fetch goes to the network.
func (db *DB) ExpireCrawledPage(ctx context.Context, pageURL string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE crawled_pages SET expires_at = NOW() - INTERVAL '1 second', updated_at = NOW() WHERE url = $1`,
		pageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to expire crawled page: %w", err)
	}
	return nil
}

// DeleteExpiredPages removes pages that have passed their expires_at
func (db *DB) DeleteExpiredPages(ctx context.Context) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM crawled_pages WHERE expires_at < NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pages: %w", err)
	}
	return result.RowsAffected(), nil
}
