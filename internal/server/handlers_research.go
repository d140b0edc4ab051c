package server

import (
	"net/http"

	"github.com/jonathan/seo-content-machine/internal/coder"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/strategist"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// handleTopics proposes article topics. With a project, the indexed brand
// pages are passed along so existing content is not duplicated.
func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	var req types.TopicsRequest
	if !s.decode(w, r, &req) {
		return
	}

	contextData := req.Context
	if req.Project != "" && s.svc.Pages != nil {
		refs, err := s.svc.Pages.GetAllPages(r.Context(), req.Project)
		if err != nil {
			logging.Component("http").Warn().Err(err).Str("project", req.Project).Msg("page index unavailable for topic context")
		} else {
			pages := make([]types.Page, 0, len(refs))
			for _, ref := range refs {
				pages = append(pages, types.Page{URL: ref.URL, Title: ref.Title})
			}
			if pageContext := strategist.BuildTopicContext(pages); pageContext != "" {
				contextData += "\n" + pageContext
			}
		}
	}

	ideas, err := s.svc.Strategist.GenerateTopicIdeas(r.Context(), req.Niche, req.Count, contextData)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"topics": ideas})
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	var req types.KeywordsRequest
	if !s.decode(w, r, &req) {
		return
	}

	keywords, err := s.svc.Strategist.GenerateKeywords(r.Context(), req.Topic, req.Count)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"keywords": keywords})
}

func (s *Server) handleSERP(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.SERP != nil, "SERP analyzer") {
		return
	}
	var req types.TopicRequest
	if !s.decode(w, r, &req) {
		return
	}

	analysis, err := s.svc.SERP.AnalyzeSERP(r.Context(), req.Topic)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

// handleCompetitors outlines competitor pages. Pages that fail to load are
// reported inline rather than failing the request.
func (s *Server) handleCompetitors(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Competitors != nil, "competitor analyzer") {
		return
	}
	var req types.CompetitorsRequest
	if !s.decode(w, r, &req) {
		return
	}

	outlines := s.svc.Competitors.AnalyzeCompetitors(r.Context(), req.URLs)
	if err := r.Context().Err(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"competitors": outlines})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	var req types.TextRequest
	if !s.decode(w, r, &req) {
		return
	}

	entities, err := s.svc.Strategist.ExtractEntities(r.Context(), req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"entities": entities})
}

// handleFAQ suggests questions for a topic along with their FAQPage schema.
func (s *Server) handleFAQ(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	var req types.TopicRequest
	if !s.decode(w, r, &req) {
		return
	}

	questions, err := s.svc.Strategist.SuggestFAQ(r.Context(), req.Topic)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	schema, err := coder.GenerateSchema(types.FAQItems(questions))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"questions": questions,
		"schema":    schema,
	})
}
