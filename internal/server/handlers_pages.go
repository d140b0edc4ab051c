package server

import (
	"net/http"

	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/sitemap"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// maxAssetBytes bounds asset uploads.
const maxAssetBytes = 32 << 20

// ProjectResponse describes a brand workspace.
type ProjectResponse struct {
	Meta   types.ProjectMeta `json:"meta"`
	Path   string            `json:"path"`
	Assets []string          `json:"assets"`
	Pages  *int              `json:"indexed_pages,omitempty"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Projects.List()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"projects": names, "count": len(names)})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectMeta
	if !s.decode(w, r, &req) {
		return
	}

	path, err := s.svc.Projects.Create(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]string{"brand": req.BrandName, "path": path})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	brand := r.PathValue("brand")
	meta, err := s.svc.Projects.Meta(brand)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path, _ := s.svc.Projects.Path(brand)
	assets, err := s.svc.Projects.AssetNames(brand)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := ProjectResponse{Meta: meta, Path: path, Assets: assets}
	if s.svc.Pages != nil {
		n, err := s.svc.Pages.Count(r.Context(), brand)
		if err != nil {
			logging.Component("http").Warn().Err(err).Str("project", brand).Msg("failed to count indexed pages")
		} else {
			resp.Pages = &n
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleDeleteProject removes the workspace and its page index.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	brand := r.PathValue("brand")
	deleted, err := s.svc.Projects.Delete(brand)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !deleted {
		s.fail(w, r, &ErrNotFound{Resource: "project", ID: brand})
		return
	}
	if s.svc.Pages != nil {
		if err := s.svc.Pages.DeleteCollection(r.Context(), brand); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadAssets stores multipart "file" parts under the project's
// assets directory.
func (s *Server) handleUploadAssets(w http.ResponseWriter, r *http.Request) {
	brand := r.PathValue("brand")
	if _, err := s.svc.Projects.Meta(brand); err != nil {
		s.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAssetBytes)
	if err := r.ParseMultipartForm(maxAssetBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		s.fail(w, r, &ErrValidation{Field: "file", Message: "at least one file is required"})
		return
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		path, err := s.svc.Projects.SaveAsset(brand, fh.Filename, f)
		_ = f.Close()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		saved = append(saved, path)
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"saved": saved})
}

// handleSitemapIngest crawls a sitemap and indexes its pages for the
// project. The project's sitemap_url is used when the request has none.
func (s *Server) handleSitemapIngest(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Pages != nil, "page index") {
		return
	}
	var req types.SitemapIngestRequest
	if !s.decode(w, r, &req) {
		return
	}
	meta, err := s.svc.Projects.Meta(req.Project)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sitemapURL := req.SitemapURL
	if sitemapURL == "" {
		sitemapURL = meta.SitemapURL
	}
	if sitemapURL == "" {
		s.fail(w, r, &ErrValidation{Field: "sitemap_url", Message: "required when the project has none"})
		return
	}

	opts := s.cfg.Sitemap
	if req.MaxPages > 0 {
		opts.MaxPages = req.MaxPages
	}
	pages, err := sitemap.Ingest(r.Context(), sitemapURL, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	indexed, err := s.svc.Pages.AddPages(r.Context(), req.Project, pages)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	logging.Component("http").Info().Str("project", req.Project).Int("pages", len(pages)).Int("indexed", indexed).Msg("sitemap ingested")
	s.jsonResponse(w, http.StatusOK, types.SitemapIngestResponse{Pages: pages, Indexed: indexed})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Pages != nil, "page index") {
		return
	}
	brand := r.PathValue("brand")
	pages, err := s.svc.Pages.GetAllPages(r.Context(), brand)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"pages": pages, "count": len(pages)})
}

// handleSimilarPages returns the n indexed pages closest to ?q=.
func (s *Server) handleSimilarPages(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.Pages != nil, "page index") {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.fail(w, r, &ErrValidation{Field: "q", Message: "query parameter is required"})
		return
	}
	n, err := queryInt(r, "n", 5)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	pages, err := s.svc.Pages.QuerySimilar(r.Context(), r.PathValue("brand"), query, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"pages": pages})
}
