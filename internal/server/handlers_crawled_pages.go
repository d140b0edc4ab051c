package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/seo-content-machine/internal/db"
)

// CrawledPageResponse represents a cached page (without raw_html by default)
type CrawledPageResponse struct {
	ID                 uuid.UUID `json:"id"`
	Project            *string   `json:"project,omitempty"`
	URL                string    `json:"url"`
	PageType           *string   `json:"page_type,omitempty"`
	ParsedText         *string   `json:"parsed_text,omitempty"`
	ContentHash        *string   `json:"content_hash,omitempty"`
	HTTPStatus         *int      `json:"http_status,omitempty"`
	FetchTier          *string   `json:"fetch_tier,omitempty"`
	FetchStatus        string    `json:"fetch_status"`
	ErrorMessage       *string   `json:"error_message,omitempty"`
	IsPermanentFailure bool      `json:"is_permanent_failure"`
	RetryCount         int       `json:"retry_count"`
	RetryAfter         *string   `json:"retry_after,omitempty"` // RFC 3339
	FetchedAt          string    `json:"fetched_at"`
	ExpiresAt          *string   `json:"expires_at,omitempty"`
	LastAccessedAt     string    `json:"last_accessed_at"`
	CreatedAt          string    `json:"created_at"`
	UpdatedAt          string    `json:"updated_at"`
	RawHTML            *string   `json:"raw_html,omitempty"` // only with include_html=true
}

// handleGetCrawledPageByURL returns the cached copy of ?url=
func (s *Server) handleGetCrawledPageByURL(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}

	page, err := s.svc.DB.GetCrawledPageByURL(r.Context(), pageURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if page == nil {
		s.errorResponse(w, http.StatusNotFound, "Crawled page not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, crawledPageResponse(page, r.URL.Query().Get("include_html") == "true"))
}

func crawledPageResponse(page *db.CrawledPage, includeHTML bool) CrawledPageResponse {
	resp := CrawledPageResponse{
		ID:                 page.ID,
		Project:            page.Project,
		URL:                page.URL,
		PageType:           page.PageType,
		ParsedText:         page.ParsedText,
		ContentHash:        page.ContentHash,
		HTTPStatus:         page.HTTPStatus,
		FetchTier:          page.FetchTier,
		FetchStatus:        page.FetchStatus,
		ErrorMessage:       page.ErrorMessage,
		IsPermanentFailure: page.IsPermanentFailure,
		RetryCount:         page.RetryCount,
		FetchedAt:          page.FetchedAt.Format(time.RFC3339),
		ExpiresAt:          formatTime(page.ExpiresAt),
		RetryAfter:         formatTime(page.RetryAfter),
		LastAccessedAt:     page.LastAccessedAt.Format(time.RFC3339),
		CreatedAt:          page.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          page.UpdatedAt.Format(time.RFC3339),
	}
	if includeHTML {
		resp.RawHTML = page.RawHTML
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
