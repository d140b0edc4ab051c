package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/seo-content-machine/internal/coder"
	"github.com/jonathan/seo-content-machine/internal/competitors"
	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/serp"
	"github.com/jonathan/seo-content-machine/internal/strategist"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/jonathan/seo-content-machine/internal/vectordb"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

// SERPAnalyzer researches the search results for a topic.
type SERPAnalyzer interface {
	AnalyzeSERP(ctx context.Context, topic string) (*types.SERPAnalysis, error)
}

// CompetitorAnalyzer extracts competitor page outlines.
type CompetitorAnalyzer interface {
	AnalyzeCompetitors(ctx context.Context, urls []string) []types.CompetitorOutline
}

// KeywordGenerator supplies keywords and FAQ questions.
type KeywordGenerator interface {
	GenerateKeywords(ctx context.Context, topic string, n int) ([]types.Keyword, error)
	SuggestFAQ(ctx context.Context, topic string) ([]string, error)
}

// ArticleWriter drafts and rewrites articles.
type ArticleWriter interface {
	GenerateOutline(ctx context.Context, research types.ResearchData, tov string) (types.Outline, error)
	WriteArticle(ctx context.Context, req types.ArticleRequest) (string, error)
	RewriteArticle(ctx context.Context, article, feedback, tov string) (string, error)
}

// PageIndex finds existing brand pages related to a topic.
type PageIndex interface {
	QuerySimilar(ctx context.Context, brand, query string, n int) ([]types.PageRef, error)
}

// HTMLCoder post-processes CMS HTML.
type HTMLCoder interface {
	InjectAssets(fragment string, assetNames []string) (string, error)
	InjectInternalLinks(ctx context.Context, fragment, brand string) (string, error)
}

// Store persists runs, step artifacts and finished articles.
type Store interface {
	CreateRun(ctx context.Context, project, topic string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	CreateArticle(ctx context.Context, a *db.Article) error
}

// Deps are the collaborators of a run. Pages, Projects and Store are optional.
type Deps struct {
	SERP        SERPAnalyzer
	Competitors CompetitorAnalyzer
	Strategist  KeywordGenerator
	Writer      ArticleWriter
	Coder       HTMLCoder
	Pages       PageIndex
	Projects    *project.Manager
	Store       Store
	Now         func() time.Time
}

func (d Deps) validate() error {
	var errs []error
	if d.SERP == nil {
		errs = append(errs, errors.New("pipeline: SERP analyzer is required"))
	}
	if d.Competitors == nil {
		errs = append(errs, errors.New("pipeline: competitor analyzer is required"))
	}
	if d.Strategist == nil {
		errs = append(errs, errors.New("pipeline: keyword generator is required"))
	}
	if d.Writer == nil {
		errs = append(errs, errors.New("pipeline: writer is required"))
	}
	if d.Coder == nil {
		errs = append(errs, errors.New("pipeline: coder is required"))
	}
	return errors.Join(errs...)
}

var (
	_ SERPAnalyzer       = (*serp.Analyzer)(nil)
	_ CompetitorAnalyzer = (*competitors.Analyzer)(nil)
	_ KeywordGenerator   = (*strategist.Strategist)(nil)
	_ ArticleWriter      = (*writer.Writer)(nil)
	_ HTMLCoder          = (*coder.Coder)(nil)
	_ PageIndex          = (*vectordb.Store)(nil)
	_ Store              = (*db.DB)(nil)
)
