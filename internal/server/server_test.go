package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-content-machine/internal/coder"
	"github.com/jonathan/seo-content-machine/internal/config"
	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/seo"
	"github.com/jonathan/seo-content-machine/internal/server/ratelimit"
	"github.com/jonathan/seo-content-machine/internal/strategist"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

type staticSERP struct{}

func (staticSERP) AnalyzeSERP(_ context.Context, topic string) (*types.SERPAnalysis, error) {
	return &types.SERPAnalysis{
		Topic:       topic,
		Competitors: []types.SearchResult{{URL: "https://rival.test/" + topic, Title: topic}},
		Intent:      "Informational",
	}, nil
}

type staticCompetitors struct{}

func (staticCompetitors) AnalyzeCompetitors(_ context.Context, urls []string) []types.CompetitorOutline {
	out := make([]types.CompetitorOutline, 0, len(urls))
	for _, u := range urls {
		out = append(out, types.CompetitorOutline{URL: u, H1: "Rival", Structure: []string{"H2: Basics"}})
	}
	return out
}

type testServer struct {
	*Server
	llm      *llm.MockClient
	projects *project.Manager
}

// newTestServer builds a server on a mock model with a temporary project
// directory and no database or page index. Rate limiting is off unless
// cfg sets it.
func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()

	projects, err := project.NewManager(t.TempDir())
	require.NoError(t, err)

	client := &llm.MockClient{
		GenerateContentFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "## Bread\n\nSourdough bread needs time and a warm kitchen.", nil
		},
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = &ratelimit.Config{Enabled: false}
	}

	s, err := New(cfg, Services{
		Strategist:  strategist.New(client, nil, "English"),
		Writer:      writer.New(client, "English"),
		SERP:        staticSERP{},
		Competitors: staticCompetitors{},
		Coder:       coder.New(nil, ""),
		Projects:    projects,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &testServer{Server: s, llm: client, projects: projects}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) createProject(t *testing.T, meta types.ProjectMeta) {
	t.Helper()
	_, err := ts.projects.Create(meta)
	require.NoError(t, err)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNew_RequiresProjects(t *testing.T) {
	_, err := New(Config{}, Services{})
	assert.Error(t, err)
}

func TestNew_InvalidAuthConfig(t *testing.T) {
	projects, err := project.NewManager(t.TempDir())
	require.NoError(t, err)
	_, err = New(Config{Auth: &config.AuthConfig{Secret: "short", ExpirationHours: 1}}, Services{Projects: projects})
	assert.ErrorContains(t, err, "invalid auth config")
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody[map[string]string](t, w))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.do(t, http.MethodGet, "/health", nil)

	w := ts.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="GET /health"`)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, Config{Auth: &config.AuthConfig{Secret: testSecret, ExpirationHours: 1}})

	w := ts.do(t, http.MethodOptions, "/keywords", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestAuth(t *testing.T) {
	auth := &config.AuthConfig{Secret: testSecret, ExpirationHours: 1, Issuer: config.DefaultTokenIssuer}
	ts := newTestServer(t, Config{Auth: auth})
	token, err := NewTokenService(auth).GenerateToken("ci")
	require.NoError(t, err)

	t.Run("public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", nil).Code)
	})
	t.Run("missing token", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/keywords", types.KeywordsRequest{Topic: "coffee"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
	t.Run("bad token", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/keywords", types.KeywordsRequest{Topic: "coffee"}, "Authorization", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
	t.Run("valid token", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/keywords", types.KeywordsRequest{Topic: "coffee"}, "Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	}})

	first := ts.do(t, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := ts.do(t, http.MethodGet, "/projects", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody[map[string]any](t, second)["error"])
}

func TestRateLimit_PerSubject(t *testing.T) {
	auth := &config.AuthConfig{Secret: testSecret, ExpirationHours: 1, Issuer: config.DefaultTokenIssuer}
	ts := newTestServer(t, Config{Auth: auth, RateLimit: &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	}})
	tokens := NewTokenService(auth)
	ci, err := tokens.GenerateToken("ci")
	require.NoError(t, err)
	editor, err := tokens.GenerateToken("editor")
	require.NoError(t, err)

	// httptest requests share one RemoteAddr, so only the subject tells them apart.
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/projects", nil, "Authorization", "Bearer "+ci).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodGet, "/projects", nil, "Authorization", "Bearer "+ci).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/projects", nil, "Authorization", "Bearer "+editor).Code)
}

func TestDecodeErrors(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"empty body", nil, "Request body is required"},
		{"malformed", "{", "Invalid request body"},
		{"validation", types.KeywordsRequest{}, "Topic"},
		{"out of range", types.KeywordsRequest{Topic: "coffee", Count: 1000}, "Count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/keywords", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody[map[string]string](t, w)["error"], tt.message)
		})
	}
}

func TestUnavailableServices(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/runs", nil},
		{http.MethodGet, "/articles", nil},
		{http.MethodGet, "/articles/00000000-0000-0000-0000-000000000001", nil},
		{http.MethodGet, "/crawled-pages/by-url?url=https://x.test", nil},
		{http.MethodGet, "/projects/Bakery/pages", nil},
		{http.MethodPost, "/sitemap/ingest", types.SitemapIngestRequest{Project: "Bakery"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
		})
	}
}

func TestProjectLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(t, http.MethodPost, "/projects", types.ProjectMeta{BrandName: "Bakery", CMS: "OpenCart"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Bakery"}, decodeBody[map[string]any](t, w)["projects"])

	w = ts.do(t, http.MethodGet, "/projects/Bakery", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[ProjectResponse](t, w)
	assert.Equal(t, "OpenCart", got.Meta.CMS)
	assert.Empty(t, got.Assets)
	assert.Nil(t, got.Pages)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/projects/Missing", nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/projects/Bakery", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/projects/Bakery", nil).Code)
}

func TestCreateProject_Invalid(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(t, http.MethodPost, "/projects", types.ProjectMeta{BrandName: "Bakery", URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAssets(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "../sourdough loaf.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/projects/Bakery/assets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	names, err := ts.projects.AssetNames("Bakery")
	require.NoError(t, err)
	assert.Equal(t, []string{"sourdough loaf.jpg"}, names)
}

func TestKeywords(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.llm.GenerateJSONFunc = func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return `[{"keyword":"sourdough starter","type":"Head"}]`, nil
	}

	w := ts.do(t, http.MethodPost, "/keywords", types.KeywordsRequest{Topic: "sourdough", Count: 1})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[map[string][]types.Keyword](t, w)
	assert.Equal(t, []types.Keyword{{Keyword: "sourdough starter", Type: types.KeywordHead}}, got["keywords"])
}

func TestFAQ(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.llm.GenerateJSONFunc = func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return `["How long does proofing take?"]`, nil
	}

	w := ts.do(t, http.MethodPost, "/faq", types.TopicRequest{Topic: "sourdough"})

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[map[string]any](t, w)
	assert.Equal(t, []any{"How long does proofing take?"}, got["questions"])
	assert.Contains(t, got["schema"], `"FAQPage"`)
}

func TestSERPAndCompetitors(t *testing.T) {
	ts := newTestServer(t, Config{})
	w := ts.do(t, http.MethodPost, "/serp", types.TopicRequest{Topic: "bread"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Informational", decodeBody[types.SERPAnalysis](t, w).Intent)

	w = ts.do(t, http.MethodPost, "/competitors", types.CompetitorsRequest{URLs: []string{"https://rival.test/bread"}})
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[map[string][]types.CompetitorOutline](t, w)
	require.Len(t, got["competitors"], 1)
	assert.Equal(t, "Rival", got["competitors"][0].H1)

	w = ts.do(t, http.MethodPost, "/competitors", types.CompetitorsRequest{URLs: []string{"not-a-url"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToV_SavesToProject(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})
	ts.llm.GenerateContentFunc = func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return "# Voice\n\nWarm.", nil
	}

	w := ts.do(t, http.MethodPost, "/tov?project=Bakery", types.BrandBrief{Name: "Bakery", Industry: "Food"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decodeBody[map[string]any](t, w)["saved"])
	tov, err := ts.projects.ToV("Bakery")
	require.NoError(t, err)
	assert.Equal(t, "# Voice\n\nWarm.", tov)

	w = ts.do(t, http.MethodPost, "/tov?project=Missing", types.BrandBrief{Name: "Bakery", Industry: "Food"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefineToV_UsesSavedGuide(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, ts.projects.SaveToV("Bakery", "Formal."))
	ts.llm.GenerateContentFunc = func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		return "Refined.", nil
	}

	w := ts.do(t, http.MethodPost, "/tov/refine", types.RefineToVRequest{Project: "Bakery", Instructions: "Be warmer"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, ts.llm.LastPrompt(), "Formal.")
	tov, err := ts.projects.ToV("Bakery")
	require.NoError(t, err)
	assert.Equal(t, "Refined.", tov)

	w = ts.do(t, http.MethodPost, "/tov/refine", types.RefineToVRequest{Instructions: "Be warmer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToV_ModelFailureKeepsSavedGuide(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, ts.projects.SaveToV("Bakery", "Formal."))
	ts.llm.GenerateContentFunc = func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return "", errors.New("quota exhausted")
	}

	w := ts.do(t, http.MethodPost, "/tov?project=Bakery", types.BrandBrief{Name: "Bakery", Industry: "Food"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "Error: quota exhausted", body["tov"])
	assert.Equal(t, false, body["saved"])
	tov, err := ts.projects.ToV("Bakery")
	require.NoError(t, err)
	assert.Equal(t, "Formal.", tov)
}

func TestCJM_SavesToProject(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})
	ts.llm.GenerateContentFunc = func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return "| Stage | Action |", nil
	}

	w := ts.do(t, http.MethodPost, "/cjm?project=Bakery", types.CJMRequest{Name: "Bakery", Industry: "Food", Personas: "Anna"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	content, ok, err := ts.projects.ReadFile("Bakery", project.CJMFile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "| Stage | Action |", content)
}

func TestOutline_Fallback(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(t, http.MethodPost, "/outline", types.OutlineRequest{Topic: "rye bread"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.FallbackOutline("rye bread"), decodeBody[types.Outline](t, w))
}

func TestWriteArticle(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})
	require.NoError(t, ts.projects.SaveToV("Bakery", "Friendly and precise."))
	outline := types.Outline{Title: "Sourdough basics", Sections: []types.OutlineSection{{Heading: "Starter"}}}

	w := ts.do(t, http.MethodPost, "/articles", types.WriteRequest{
		Project:  "Bakery",
		Outline:  outline,
		Keywords: []string{"kw1", "kw2", "kw3", "kw4", "kw5", "kw6"},
		Save:     true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[WriteResponse](t, w)
	assert.Contains(t, got.Markdown, "## Bread")
	assert.Empty(t, got.ArticleID, "no database configured")
	require.NotEmpty(t, got.ArchivePath)
	saved, err := os.ReadFile(got.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, got.Markdown, string(saved))
	assert.Equal(t, filepath.Join(ts.projects.BaseDir(), "Bakery", project.ArticlesDir), filepath.Dir(got.ArchivePath))

	prompt := ts.llm.LastPrompt()
	assert.Contains(t, prompt, "Friendly and precise.")
	assert.Contains(t, prompt, "kw1, kw2, kw3, kw4, kw5")
	assert.NotContains(t, prompt, "kw6")
}

func TestWriteArticle_Validation(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})

	w := ts.do(t, http.MethodPost, "/articles", types.WriteRequest{Project: "Bakery"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/articles", types.WriteRequest{
		Project: "Missing",
		Outline: types.Outline{Title: "T", Sections: []types.OutlineSection{{Heading: "H"}}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRewriteArticle(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(t, http.MethodPost, "/articles/rewrite", types.RewriteRequest{Article: "Old.", Feedback: "Add keywords", ToV: "Calm."})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decodeBody[map[string]string](t, w)["markdown"], "Sourdough")
	assert.Contains(t, ts.llm.LastPrompt(), "Add keywords")
}

func TestArticleID_NeedsDatabase(t *testing.T) {
	ts := newTestServer(t, Config{})
	id := "0b7c1b5e-5d7e-4c1a-9a43-3f1c7e0d2a11"

	w := ts.do(t, http.MethodPost, "/articles/rewrite", types.RewriteRequest{Article: "Old.", Feedback: "Shorter", ArticleID: id})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, ts.llm.Prompts, "nothing is generated for an article that cannot be stored")

	w = ts.do(t, http.MethodPost, "/audit", types.AuditRequest{HTML: "<h1>Bread</h1>", ArticleID: id})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = ts.do(t, http.MethodPost, "/audit", types.AuditRequest{HTML: "<h1>Bread</h1>", ArticleID: "42"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCode(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})

	w := ts.do(t, http.MethodPost, "/code", types.CodeRequest{
		Project:  "Bakery",
		Title:    "Bread",
		Markdown: "## Bread\n\nSourdough needs time.",
		FAQ:      []types.FAQItem{{Question: "How long to proof?", Answer: "Overnight."}},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[types.CodeResponse](t, w)
	assert.Contains(t, got.HTML, "<h2>Bread</h2>")
	assert.Contains(t, got.HTML, `<script type="application/ld+json">`)
	assert.Contains(t, got.Schema, "Overnight.")
	assert.Equal(t, "Bread", got.Metadata.MetaTitle)
}

func TestAudit(t *testing.T) {
	ts := newTestServer(t, Config{})
	html := "<h1>Bread</h1><p>Sourdough bread needs time.</p>"
	keywords := []string{"sourdough", "rye"}
	want, err := seo.CalculateScore(html, keywords, types.SEORules{})
	require.NoError(t, err)

	w := ts.do(t, http.MethodPost, "/audit", types.AuditRequest{HTML: html, Keywords: keywords})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[AuditResponse](t, w)
	assert.Equal(t, want.Score, got.Audit.Score)
	assert.Equal(t, seo.Grade(want.Score), got.Grade)
	assert.Contains(t, got.Feedback, "rye")
}

func TestPipeline(t *testing.T) {
	ts := newTestServer(t, Config{MaxRewrites: -1})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})

	w := ts.do(t, http.MethodPost, "/pipeline", map[string]any{"project": "Bakery", "topic": "sourdough"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[map[string]any](t, w)
	assert.Equal(t, "sourdough", got["topic"])
	assert.Contains(t, got["html"], "<h2>Bread</h2>")
	assert.Equal(t, float64(0), got["rewrites"])
	assert.NotEmpty(t, got["archive_path"])
}

func TestPipeline_Validation(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/pipeline", map[string]any{"project": "Bakery"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/pipeline", map[string]any{"project": "Missing", "topic": "x"}).Code)
}

func TestPipelineStream(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.createProject(t, types.ProjectMeta{BrandName: "Bakery"})

	w := ts.do(t, http.MethodPost, "/pipeline/stream", map[string]any{"project": "Bakery", "topic": "sourdough", "max_rewrites": 1})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: step\ndata: {\"step\":\"serp\",\"status\":\"started\"")
	assert.NotContains(t, body, "event: error")
	assert.Equal(t, 1, strings.Count(body, "event: complete"))
	assert.NotContains(t, body, `"step":"complete"`)

	last := body[strings.LastIndex(body, "event: complete"):]
	assert.Contains(t, last, `"topic":"sourdough"`)
}

func TestPipelineStream_Unavailable(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.svc.Writer = nil

	w := ts.do(t, http.MethodPost, "/pipeline/stream", map[string]any{"project": "Bakery", "topic": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPathUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/runs/x", nil)
	req.SetPathValue("id", "x")
	_, err := pathUUID(req, "id")
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))

	req.SetPathValue("id", "00000000-0000-0000-0000-000000000001")
	id, err := pathUUID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", id.String())
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?n=3&bad=-1&word=abc", nil)

	n, err := queryInt(req, "n", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = queryInt(req, "missing", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = queryInt(req, "bad", 5)
	assert.Error(t, err)
	_, err = queryInt(req, "word", 5)
	assert.Error(t, err)
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w}

	assert.Equal(t, http.StatusOK, rec.code())
	rec.WriteHeader(http.StatusTeapot)
	rec.Flush()
	assert.Equal(t, http.StatusTeapot, rec.code())
	assert.True(t, w.Flushed)
	assert.Same(t, w, rec.Unwrap())
}
