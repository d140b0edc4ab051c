package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a pipeline run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Project     string     `json:"project"`
	Topic       string     `json:"topic"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// Artifact steps written by the article pipeline
const (
	StepSERP        = "serp"
	StepCompetitors = "competitors"
	StepOutline     = "outline"
	StepDraft       = "draft"
	StepHTML        = "html"
	StepAudit       = "audit"
	StepRewrite     = "rewrite"
)

// Artifact categories
const (
	CategoryResearch = "research"
	CategoryContent  = "content"
	CategoryReview   = "review"
)
