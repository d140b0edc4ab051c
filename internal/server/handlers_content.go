package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/pipeline"
	"github.com/jonathan/seo-content-machine/internal/seo"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

// loadBrand reads an existing workspace. CMS falls back to the server
// default when the project metadata names none.
func (s *Server) loadBrand(w http.ResponseWriter, r *http.Request, name string) (pipeline.Brand, bool) {
	if _, err := s.svc.Projects.Meta(name); err != nil {
		s.fail(w, r, err)
		return pipeline.Brand{}, false
	}
	brand, err := pipeline.LoadBrand(s.svc.Projects, name)
	if err != nil {
		s.fail(w, r, err)
		return pipeline.Brand{}, false
	}
	if brand.CMS == "" {
		brand.CMS = s.cfg.CMS
	}
	return brand, true
}

// brandToV returns tov, or the project's saved guide when tov is empty.
func (s *Server) brandToV(w http.ResponseWriter, r *http.Request, projectName, tov string) (string, bool) {
	if tov != "" || projectName == "" {
		return tov, true
	}
	brand, ok := s.loadBrand(w, r, projectName)
	return brand.ToV, ok
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Writer != nil, "writer") {
		return
	}
	var req types.OutlineRequest
	if !s.decode(w, r, &req) {
		return
	}
	tov, ok := s.brandToV(w, r, req.Project, req.ToV)
	if !ok {
		return
	}

	outline, err := s.svc.Writer.GenerateOutline(r.Context(), types.ResearchData{
		Topic:              req.Topic,
		Intent:             req.Intent,
		CompetitorOutlines: req.CompetitorOutlines,
	}, tov)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, outline)
}

// WriteResponse is the drafted article.
type WriteResponse struct {
	Markdown      string          `json:"markdown"`
	InternalLinks []types.PageRef `json:"internal_links,omitempty"`
	ArchivePath   string          `json:"archive_path,omitempty"`
	ArticleID     string          `json:"article_id,omitempty"`
}

// handleWriteArticle drafts an article from an outline using the project's
// voice, reference styling and related pages. With save set the draft is
// archived in the workspace and stored when a database is configured.
func (s *Server) handleWriteArticle(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Writer != nil, "writer") {
		return
	}
	var req types.WriteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Outline.Title == "" || len(req.Outline.Sections) == 0 {
		s.fail(w, r, &ErrValidation{Field: "outline", Message: "title and at least one section are required"})
		return
	}
	brand, ok := s.loadBrand(w, r, req.Project)
	if !ok {
		return
	}
	if req.ToV != "" {
		brand.ToV = req.ToV
	}

	var patterns types.ReferencePatterns
	if brand.Reference != "" {
		p, err := writer.AnalyzeReference(brand.Reference)
		if err != nil {
			logging.Component("http").Warn().Err(err).Str("project", req.Project).Msg("failed to analyze reference HTML")
		}
		patterns = p
	}

	var links []types.PageRef
	if s.svc.Pages != nil {
		refs, err := s.svc.Pages.QuerySimilar(r.Context(), req.Project, req.Outline.Title, pipeline.DefaultLinkCandidates)
		if err != nil {
			logging.Component("http").Warn().Err(err).Str("project", req.Project).Msg("internal link lookup failed")
		}
		links = refs
	}

	keywords := req.Keywords
	if len(keywords) > pipeline.ArticleKeywords {
		keywords = keywords[:pipeline.ArticleKeywords]
	}

	markdown, err := s.svc.Writer.WriteArticle(r.Context(), types.ArticleRequest{
		Outline:           req.Outline,
		ToV:               brand.ToV,
		Keywords:          keywords,
		ReferencePatterns: patterns,
		InternalLinks:     links,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := WriteResponse{Markdown: markdown, InternalLinks: links}
	if req.Save {
		path, err := s.svc.Projects.SaveArticle(req.Project, req.Outline.Title, markdown, time.Now())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.ArchivePath = path

		if s.svc.DB != nil {
			outline := req.Outline
			article := &db.Article{
				Project:  req.Project,
				Topic:    req.Outline.Title,
				Status:   db.ArticleStatusDraft,
				Outline:  &outline,
				Markdown: markdown,
			}
			if err := s.svc.DB.CreateArticle(r.Context(), article); err != nil {
				s.fail(w, r, err)
				return
			}
			resp.ArticleID = article.ID.String()
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleRewriteArticle(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Writer != nil, "writer") {
		return
	}
	var req types.RewriteRequest
	if !s.decode(w, r, &req) {
		return
	}
	articleID, ok := s.articleRef(w, r, req.ArticleID)
	if !ok {
		return
	}
	tov, ok := s.brandToV(w, r, req.Project, req.ToV)
	if !ok {
		return
	}

	markdown, err := s.svc.Writer.RewriteArticle(r.Context(), req.Article, req.Feedback, tov)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := map[string]string{"markdown": markdown}
	if articleID != uuid.Nil {
		// The stored HTML no longer matches; the article goes back to draft.
		if err := s.svc.DB.UpdateArticleContent(r.Context(), articleID, markdown, "", nil, ""); err != nil {
			s.fail(w, r, err)
			return
		}
		resp["article_id"] = articleID.String()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// articleRef parses an optional article_id. Setting one requires the
// database.
func (s *Server) articleRef(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	if raw == "" {
		return uuid.Nil, true
	}
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "article_id", Message: "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// handleCode converts a Markdown draft into publishable CMS HTML.
func (s *Server) handleCode(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Coder != nil, "coder") {
		return
	}
	var req types.CodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	brand, ok := s.loadBrand(w, r, req.Project)
	if !ok {
		return
	}

	coded, err := pipeline.CodeArticle(r.Context(), s.svc.Coder, pipeline.CodeInput{
		Brand:    brand,
		Title:    req.Title,
		Markdown: req.Markdown,
		FAQ:      req.FAQ,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, coded)
}

// AuditResponse is a scored article with its grade and rewrite instructions.
type AuditResponse struct {
	Audit     types.AuditResult `json:"audit"`
	Grade     types.Grade       `json:"grade"`
	Feedback  string            `json:"rewrite_feedback"`
	ArticleID string            `json:"article_id,omitempty"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req types.AuditRequest
	if !s.decode(w, r, &req) {
		return
	}
	articleID, ok := s.articleRef(w, r, req.ArticleID)
	if !ok {
		return
	}

	audit, err := seo.CalculateScore(req.HTML, req.Keywords, types.SEORules{ForbiddenPhrases: req.ForbiddenPhrases})
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "html", Message: err.Error()})
		return
	}
	resp := AuditResponse{
		Audit:    audit,
		Grade:    seo.Grade(audit.Score),
		Feedback: writer.AuditFeedback(audit),
	}
	if articleID != uuid.Nil {
		if err := s.svc.DB.UpdateArticleAudit(r.Context(), articleID, &audit); err != nil {
			s.fail(w, r, err)
			return
		}
		resp.ArticleID = articleID.String()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
