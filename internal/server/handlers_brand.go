package server

import (
	"net/http"

	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// projectParam returns the ?project= query value after checking the
// workspace exists. An empty value means nothing should be saved.
func (s *Server) projectParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	brand := r.URL.Query().Get("project")
	if brand == "" {
		return "", true
	}
	if _, err := s.svc.Projects.Meta(brand); err != nil {
		s.fail(w, r, err)
		return "", false
	}
	return brand, true
}

// saveProjectFile stores generated text in a workspace when brand is set.
// "Error: ..." text from a failed generation is returned to the caller but
// never replaces a saved file.
func (s *Server) saveProjectFile(w http.ResponseWriter, r *http.Request, brand, name, content string) (saved, ok bool) {
	if brand == "" || llm.IsErrorText(content) {
		return false, true
	}
	if err := s.svc.Projects.SaveFile(brand, name, content); err != nil {
		s.fail(w, r, err)
		return false, false
	}
	return true, true
}

// handleToV generates a tone-of-voice guide, saving it with ?project=.
func (s *Server) handleToV(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	brand, ok := s.projectParam(w, r)
	if !ok {
		return
	}
	var req types.BrandBrief
	if !s.decode(w, r, &req) {
		return
	}

	tov, err := s.svc.Strategist.GenerateToV(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, ok := s.saveProjectFile(w, r, brand, project.ToVFile, tov)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"tov": tov, "saved": saved})
}

// handleRefineToV edits a guide. With a project and no current text the
// saved guide is refined and replaced.
func (s *Server) handleRefineToV(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	var req types.RefineToVRequest
	if !s.decode(w, r, &req) {
		return
	}

	current := req.Current
	if req.Project != "" {
		if _, err := s.svc.Projects.Meta(req.Project); err != nil {
			s.fail(w, r, err)
			return
		}
		if current == "" {
			saved, err := s.svc.Projects.ToV(req.Project)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			current = saved
		}
	}
	if current == "" {
		s.fail(w, r, &ErrValidation{Field: "current", Message: "required when the project has no saved tone of voice"})
		return
	}

	tov, err := s.svc.Strategist.RefineToV(r.Context(), current, req.Instructions)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, ok := s.saveProjectFile(w, r, req.Project, project.ToVFile, tov)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"tov": tov, "saved": saved})
}

func (s *Server) handleCompetitorToV(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	var req types.URLRequest
	if !s.decode(w, r, &req) {
		return
	}

	profile, err := s.svc.Strategist.AnalyzeCompetitorToV(r.Context(), req.URL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

func (s *Server) handleAudience(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	brand, ok := s.projectParam(w, r)
	if !ok {
		return
	}
	var req types.AudienceBrief
	if !s.decode(w, r, &req) {
		return
	}

	personas, err := s.svc.Strategist.GenerateAudience(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, ok := s.saveProjectFile(w, r, brand, project.AudienceFile, personas)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"personas": personas, "saved": saved})
}

func (s *Server) handleCJM(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Strategist != nil, "strategist") {
		return
	}
	brand, ok := s.projectParam(w, r)
	if !ok {
		return
	}
	var req types.CJMRequest
	if !s.decode(w, r, &req) {
		return
	}

	cjm, err := s.svc.Strategist.GenerateCJM(r.Context(), req.Name, req.Industry, req.Personas)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, ok := s.saveProjectFile(w, r, brand, project.CJMFile, cjm)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"cjm": cjm, "saved": saved})
}
