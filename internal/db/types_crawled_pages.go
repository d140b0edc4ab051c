package db

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// CrawledPage represents a cached web page
type CrawledPage struct {
	ID          uuid.UUID `json:"id"`
	Project     *string   `json:"project,omitempty"`
	URL         string    `json:"url"`
	PageType    *string   `json:"page_type,omitempty"`
	RawHTML     *string   `json:"-"` // large
	ParsedText  *string   `json:"parsed_text,omitempty"`
	ContentHash *string   `json:"content_hash,omitempty"`
	HTTPStatus  *int      `json:"http_status,omitempty"`
	FetchTier   *string   `json:"fetch_tier,omitempty"`
	// Error tracking
	FetchStatus        string     `json:"fetch_status"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
	IsPermanentFailure bool       `json:"is_permanent_failure"`
	RetryCount         int        `json:"retry_count"`
	RetryAfter         *time.Time `json:"retry_after,omitempty"`
	// Timestamps
	FetchedAt      time.Time  `json:"fetched_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PageType constants for crawled pages
const (
	PageTypeCompetitor = "competitor"
	PageTypeBrand      = "brand"
	PageTypeSitemap    = "sitemap"
	PageTypeOther      = "other"
)

// FetchStatus constants for crawled pages
const (
	FetchStatusSuccess  = "success"   // fetched
	FetchStatusError    = "error"     // generic, may retry
	FetchStatusNotFound = "not_found" // 404/410, permanent
	FetchStatusTimeout  = "timeout"   // may retry
	FetchStatusBlocked  = "blocked"   // 403/429
)

// DefaultPageCacheTTL is the default time-to-live for cached pages (7 days)
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// Retry backoff for transient failures: 1m, 5m, 25m, then capped at 2h.
const (
	RetryInitialBackoff = 1 * time.Minute
	RetryBackoffFactor  = 5
	RetryMaxBackoff     = 2 * time.Hour
)

// RetryBackoff returns the wait before the next attempt after retryCount
// failures. It mirrors the SQL used by RecordFailedFetch.
func RetryBackoff(retryCount int) time.Duration {
	if retryCount > 3 {
		retryCount = 3
	}
	wait := RetryInitialBackoff
	for i := 0; i < retryCount; i++ {
		wait *= RetryBackoffFactor
	}
	if wait > RetryMaxBackoff {
		return RetryMaxBackoff
	}
	return wait
}

// IsPermanentHTTPStatus returns true for status codes that indicate permanent failure
func IsPermanentHTTPStatus(status int) bool {
	switch status {
	case 404, 410, 451:
		return true
	default:
		return false
	}
}

// FetchStatusFromHTTP determines fetch status from HTTP status code
func FetchStatusFromHTTP(status int) string {
	switch {
	case status >= 200 && status < 300:
		return FetchStatusSuccess
	case status == 404 || status == 410:
		return FetchStatusNotFound
	case status == 403 || status == 429:
		return FetchStatusBlocked
	default:
		return FetchStatusError
	}
}

// HashContent computes SHA-256 hash of content for change detection
func HashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// IsExpired returns true if the page cache has expired
func (p *CrawledPage) IsExpired() bool {
	if p.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*p.ExpiresAt)
}

// IsFresh returns true if the page was fetched within maxAge
func (p *CrawledPage) IsFresh(maxAge time.Duration) bool {
	return time.Since(p.FetchedAt) < maxAge
}
