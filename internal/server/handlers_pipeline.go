package server

import (
	"net/http"

	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/pipeline"
)

// pipelineDeps wires the configured services into a run. The page index
// and database are optional.
func (s *Server) pipelineDeps() (pipeline.Deps, error) {
	switch {
	case s.svc.SERP == nil:
		return pipeline.Deps{}, &ErrUnavailable{Service: "SERP analyzer"}
	case s.svc.Competitors == nil:
		return pipeline.Deps{}, &ErrUnavailable{Service: "competitor analyzer"}
	case s.svc.Strategist == nil:
		return pipeline.Deps{}, &ErrUnavailable{Service: "strategist"}
	case s.svc.Writer == nil:
		return pipeline.Deps{}, &ErrUnavailable{Service: "writer"}
	case s.svc.Coder == nil:
		return pipeline.Deps{}, &ErrUnavailable{Service: "coder"}
	}

	deps := pipeline.Deps{
		SERP:        s.svc.SERP,
		Competitors: s.svc.Competitors,
		Strategist:  s.svc.Strategist,
		Writer:      s.svc.Writer,
		Coder:       s.svc.Coder,
		Projects:    s.svc.Projects,
	}
	if s.svc.Pages != nil {
		deps.Pages = s.svc.Pages
	}
	if s.svc.DB != nil {
		deps.Store = s.svc.DB
	}
	return deps, nil
}

// pipelineRequest decodes a run request and fills unset tuning fields from
// the server config. CMS falls back to the server default only when the
// project metadata names none.
func (s *Server) pipelineRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	var req pipeline.Request
	if !s.decode(w, r, &req) {
		return req, false
	}
	meta, err := s.svc.Projects.Meta(req.Project)
	if err != nil {
		s.fail(w, r, err)
		return req, false
	}

	if req.TargetScore == 0 {
		req.TargetScore = s.cfg.TargetScore
	}
	if req.MaxRewrites == 0 {
		req.MaxRewrites = s.cfg.MaxRewrites
	}
	if req.CMS == "" && meta.CMS == "" {
		req.CMS = s.cfg.CMS
	}
	return req, true
}

// handlePipeline runs the full workflow and returns the final article.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	deps, err := s.pipelineDeps()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, ok := s.pipelineRequest(w, r)
	if !ok {
		return
	}

	result, err := pipeline.Run(r.Context(), req, deps, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handlePipelineStream runs the workflow, streaming step events over SSE
// and finishing with a complete or error event.
func (s *Server) handlePipelineStream(w http.ResponseWriter, r *http.Request) {
	deps, err := s.pipelineDeps()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, ok := s.pipelineRequest(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log := logging.Component("http").With().Str("project", req.Project).Str("topic", req.Topic).Logger()
	progress := func(event pipeline.ProgressEvent) {
		// The result goes out once, as the complete event.
		if event.Step == pipeline.StepComplete {
			return
		}
		if err := sse.WriteEvent(EventStep, event); err != nil {
			log.Debug().Err(err).Msg("failed to write progress event")
		}
	}

	result, err := pipeline.Run(r.Context(), req, deps, progress)
	if err != nil {
		log.Warn().Err(err).Msg("streamed pipeline failed")
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(result)
}
