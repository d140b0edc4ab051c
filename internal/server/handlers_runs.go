package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/pipeline/steps"
)

// RunStepsStatus groups the workflow steps of a run by progress
type RunStepsStatus struct {
	Completed []string `json:"completed"`
	Available []string `json:"available"`
	Blocked   []string `json:"blocked"`
}

// RunResponse is a run with its artifacts and step progress
type RunResponse struct {
	Run       *db.Run              `json:"run"`
	Artifacts []db.ArtifactSummary `json:"artifacts"`
	Steps     RunStepsStatus       `json:"steps"`
}

// ArtifactResponse is one stored step output. Content holds JSON
// artifacts; Text holds Markdown and HTML.
type ArtifactResponse struct {
	RunID   string `json:"run_id"`
	Step    string `json:"step"`
	Content any    `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
}

// pathUUID parses a UUID path value.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "must be a valid UUID"}
	}
	return id, nil
}

// handleListRuns lists runs, newest first, filtered by ?project= and ?status=
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	runs, err := s.svc.DB.ListRuns(r.Context(), db.RunFilters{
		Project: r.URL.Query().Get("project"),
		Status:  r.URL.Query().Get("status"),
		Limit:   limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns a run, its artifacts and which steps are done,
// available or blocked
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}
	runID, err := pathUUID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	run, err := s.svc.DB.GetRun(r.Context(), runID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if run == nil {
		s.fail(w, r, &ErrNotFound{Resource: "run", ID: runID.String()})
		return
	}

	artifacts, err := s.svc.DB.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if artifacts == nil {
		artifacts = []db.ArtifactSummary{}
	}

	completed := steps.Completed(artifacts)
	done := []string{}
	for _, name := range steps.Order {
		if completed[name] {
			done = append(done, name)
		}
	}

	s.jsonResponse(w, http.StatusOK, RunResponse{
		Run:       run,
		Artifacts: artifacts,
		Steps: RunStepsStatus{
			Completed: done,
			Available: steps.GetAvailableSteps(completed),
			Blocked:   steps.GetBlockedSteps(completed),
		},
	})
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}
	runID, err := pathUUID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DB.DeleteRun(r.Context(), runID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetRunArtifact returns the latest artifact a run stored for a step
func (s *Server) handleGetRunArtifact(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}
	runID, err := pathUUID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	step := r.PathValue("step")
	if _, ok := steps.StepRegistry[step]; !ok {
		s.fail(w, r, &ErrValidation{Field: "step", Message: "unknown step " + step})
		return
	}

	resp := ArtifactResponse{RunID: runID.String(), Step: step}
	content, err := s.svc.DB.GetArtifact(r.Context(), runID, step)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if content != nil {
		resp.Content = json.RawMessage(content)
	} else {
		text, err := s.svc.DB.GetTextArtifact(r.Context(), runID, step)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Text = text
	}
	if resp.Content == nil && resp.Text == "" {
		s.fail(w, r, &ErrNotFound{Resource: "artifact", ID: runID.String() + "/" + step})
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
