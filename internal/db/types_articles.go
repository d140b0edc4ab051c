package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// Article is a generated article and its publishing artifacts.
type Article struct {
	ID        uuid.UUID          `json:"id"`
	RunID     *uuid.UUID         `json:"run_id,omitempty"`
	Project   string             `json:"project"`
	Topic     string             `json:"topic"`
	Status    string             `json:"status"`
	Outline   *types.Outline     `json:"outline,omitempty"`
	Markdown  string             `json:"markdown"`
	HTML      string             `json:"html"`
	Metadata  *types.Metadata    `json:"metadata,omitempty"`
	Schema    string             `json:"schema,omitempty"`
	SEOScore  *int               `json:"seo_score,omitempty"`
	Audit     *types.AuditResult `json:"audit,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Article statuses
const (
	ArticleStatusDraft   = "draft"
	ArticleStatusCoded   = "coded"
	ArticleStatusAudited = "audited"
)

// ArticleFilters holds optional filters for listing articles
type ArticleFilters struct {
	Project string
	Status  string
	Limit   int
}
