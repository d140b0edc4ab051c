package server

import (
	"net/http"

	"github.com/jonathan/seo-content-machine/internal/db"
)

// handleListArticles lists stored articles, filtered by ?project= and ?status=
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	articles, err := s.svc.DB.ListArticles(r.Context(), db.ArticleFilters{
		Project: r.URL.Query().Get("project"),
		Status:  r.URL.Query().Get("status"),
		Limit:   limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if articles == nil {
		articles = []db.Article{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"articles": articles, "count": len(articles)})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	article, err := s.svc.DB.GetArticle(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if article == nil {
		s.fail(w, r, &ErrNotFound{Resource: "article", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, article)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if !s.require(w, r, s.svc.DB != nil, "database") {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.DB.DeleteArticle(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
