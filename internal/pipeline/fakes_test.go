package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/types"
)

type fakeSERP struct {
	calls    int
	analysis *types.SERPAnalysis
	err      error
}

func (f *fakeSERP) AnalyzeSERP(_ context.Context, topic string) (*types.SERPAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.analysis != nil {
		return f.analysis, nil
	}
	return &types.SERPAnalysis{
		Topic:        topic,
		Competitors:  []types.SearchResult{{Title: "Rival", URL: "https://rival.test/coffee"}},
		Intent:       "Informational",
		SERPFeatures: []string{},
	}, nil
}

type fakeCompetitors struct {
	urls []string
}

func (f *fakeCompetitors) AnalyzeCompetitors(_ context.Context, urls []string) []types.CompetitorOutline {
	f.urls = urls
	outlines := make([]types.CompetitorOutline, len(urls))
	for i, u := range urls {
		outlines[i] = types.CompetitorOutline{URL: u, H1: "Rival coffee", Structure: []string{"H2: Beans"}}
	}
	return outlines
}

type fakeStrategist struct {
	keywordCalls int
	keywords     []types.Keyword
	faq          []string
}

func (f *fakeStrategist) GenerateKeywords(_ context.Context, topic string, _ int) ([]types.Keyword, error) {
	f.keywordCalls++
	if f.keywords != nil {
		return f.keywords, nil
	}
	return []types.Keyword{{Keyword: "coffee", Type: types.KeywordHead}}, nil
}

func (f *fakeStrategist) SuggestFAQ(_ context.Context, topic string) ([]string, error) {
	if f.faq != nil {
		return f.faq, nil
	}
	return []string{"What is " + topic + "?"}, nil
}

type fakeWriter struct {
	outline  types.Outline
	drafts   []string // returned by WriteArticle then RewriteArticle in turn
	writeErr error

	requests  []types.ArticleRequest
	feedbacks []string
	calls     int
}

func (f *fakeWriter) GenerateOutline(_ context.Context, research types.ResearchData, _ string) (types.Outline, error) {
	if f.outline.Title != "" {
		return f.outline, nil
	}
	return types.Outline{
		Title:    "Guide to " + research.Topic,
		Sections: []types.OutlineSection{{Heading: "Brewing", Subheadings: []string{}, Notes: "how"}},
		FAQ:      []string{"How fresh should beans be?"},
	}, nil
}

func (f *fakeWriter) next() string {
	d := f.drafts[min(f.calls, len(f.drafts)-1)]
	f.calls++
	return d
}

func (f *fakeWriter) WriteArticle(_ context.Context, req types.ArticleRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.writeErr != nil {
		return "", f.writeErr
	}
	return f.next(), nil
}

func (f *fakeWriter) RewriteArticle(_ context.Context, _, feedback, _ string) (string, error) {
	f.feedbacks = append(f.feedbacks, feedback)
	return f.next(), nil
}

type fakePages struct {
	similar []types.PageRef
	all     []types.PageRef
}

func (f *fakePages) QuerySimilar(_ context.Context, _, _ string, n int) ([]types.PageRef, error) {
	if len(f.similar) > n {
		return f.similar[:n], nil
	}
	return f.similar, nil
}

func (f *fakePages) GetAllPages(_ context.Context, _ string) ([]types.PageRef, error) {
	return f.all, nil
}

type fakeStore struct {
	mu        sync.Mutex
	runID     uuid.UUID
	status    string
	artifacts []string
	articles  []*db.Article
}

func (f *fakeStore) CreateRun(_ context.Context, _, _ string) (uuid.UUID, error) {
	f.runID = uuid.New()
	return f.runID, nil
}

func (f *fakeStore) CompleteRun(_ context.Context, _ uuid.UUID, status string) error {
	f.status = status
	return nil
}

func (f *fakeStore) SaveArtifact(_ context.Context, _ uuid.UUID, step, _ string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts = append(f.artifacts, step)
	return nil
}

func (f *fakeStore) SaveTextArtifact(_ context.Context, _ uuid.UUID, step, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts = append(f.artifacts, step)
	return nil
}

func (f *fakeStore) CreateArticle(_ context.Context, a *db.Article) error {
	a.ID = uuid.New()
	f.articles = append(f.articles, a)
	return nil
}
