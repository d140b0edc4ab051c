// Package pipeline runs the article workflow end to end: research, outline,
// draft, CMS HTML, audit and audit-driven rewrites.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/pipeline/steps"
	"github.com/jonathan/seo-content-machine/internal/seo"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

// Defaults for Request.
const (
	DefaultTargetScore    = 80
	DefaultMaxRewrites    = 2
	DefaultKeywordCount   = 20
	DefaultLinkCandidates = 5
	// ArticleKeywords is how many keywords the draft and audit use.
	ArticleKeywords = 5
)

// Progress statuses
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StepComplete is the step name of the final event.
const StepComplete = "complete"

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Status   string `json:"status"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Request configures one article run.
type Request struct {
	Project  string   `json:"project" validate:"required"`
	Topic    string   `json:"topic" validate:"required"`
	Keywords []string `json:"keywords,omitempty"`
	// Outline skips research when set.
	Outline *types.Outline `json:"outline,omitempty"`
	// ToV, ReferenceHTML and CMS default to the project's files and metadata.
	ToV              string   `json:"tov,omitempty"`
	ReferenceHTML    string   `json:"reference_html,omitempty"`
	CMS              string   `json:"cms,omitempty"`
	ForbiddenPhrases []string `json:"forbidden_phrases,omitempty"`
	TargetScore      int      `json:"target_score,omitempty" validate:"gte=0,lte=100"`
	// MaxRewrites of 0 uses DefaultMaxRewrites; negative disables rewrites.
	MaxRewrites    int `json:"max_rewrites,omitempty" validate:"lte=10"`
	KeywordCount   int `json:"keyword_count,omitempty" validate:"gte=0,lte=100"`
	LinkCandidates int `json:"link_candidates,omitempty" validate:"gte=0,lte=50"`
}

func (r Request) withDefaults() Request {
	if r.TargetScore == 0 {
		r.TargetScore = DefaultTargetScore
	}
	switch {
	case r.MaxRewrites == 0:
		r.MaxRewrites = DefaultMaxRewrites
	case r.MaxRewrites < 0:
		r.MaxRewrites = 0
	}
	if r.KeywordCount == 0 {
		r.KeywordCount = DefaultKeywordCount
	}
	if r.LinkCandidates == 0 {
		r.LinkCandidates = DefaultLinkCandidates
	}
	return r
}

// Result is the best article a run produced.
type Result struct {
	RunID       string                    `json:"run_id,omitempty"`
	ArticleID   string                    `json:"article_id,omitempty"`
	Topic       string                    `json:"topic"`
	SERP        *types.SERPAnalysis       `json:"serp,omitempty"`
	Competitors []types.CompetitorOutline `json:"competitors,omitempty"`
	Keywords    []string                  `json:"keywords"`
	Outline     types.Outline             `json:"outline"`
	Markdown    string                    `json:"markdown"`
	HTML        string                    `json:"html"`
	Metadata    types.Metadata            `json:"metadata"`
	Schema      string                    `json:"schema,omitempty"`
	Audit       types.AuditResult         `json:"audit"`
	Grade       types.Grade               `json:"grade"`
	Rewrites    int                       `json:"rewrites"`
	ArchivePath string                    `json:"archive_path,omitempty"`
}

// run carries the per-run state shared by the steps.
type run struct {
	req      Request
	deps     Deps
	progress ProgressCallback
	runID    uuid.UUID
	store    Store

	brand    Brand
	keywords []string
	faq      []types.FAQItem
}

// emitProgress calls the progress callback if configured
func (r *run) emitProgress(step, status, message string, content any) {
	if r.progress == nil {
		return
	}
	event := ProgressEvent{
		Step:     step,
		Status:   status,
		Category: steps.Category(step),
		Message:  message,
		Content:  content,
	}
	if r.runID != uuid.Nil {
		event.RunID = r.runID.String()
	}
	r.progress(event)
}

func (r *run) saveArtifact(ctx context.Context, step string, content any) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveArtifact(ctx, r.runID, step, steps.Category(step), content); err != nil {
		logging.Step(r.runID.String(), step).Warn().Err(err).Msg("failed to save artifact")
	}
}

func (r *run) saveTextArtifact(ctx context.Context, step, text string) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveTextArtifact(ctx, r.runID, step, steps.Category(step), text); err != nil {
		logging.Step(r.runID.String(), step).Warn().Err(err).Msg("failed to save artifact")
	}
}

// fail marks the run failed and returns err wrapped with the step name.
func (r *run) fail(ctx context.Context, step string, err error) error {
	r.emitProgress(step, StatusFailed, err.Error(), nil)
	if r.store != nil {
		if cerr := r.store.CompleteRun(context.WithoutCancel(ctx), r.runID, db.RunStatusFailed); cerr != nil {
			logging.Step(r.runID.String(), step).Warn().Err(cerr).Msg("failed to mark run failed")
		}
	}
	return fmt.Errorf("%s step failed: %w", step, err)
}

// Run executes the article workflow. Missing optional dependencies (page
// index, project workspace, store) are skipped; the audit loop keeps the
// best-scoring draft.
func Run(ctx context.Context, req Request, deps Deps, progress ProgressCallback) (*Result, error) {
	if err := types.ValidateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid pipeline request: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	req = req.withDefaults()

	r := &run{req: req, deps: deps, progress: progress}
	if err := r.loadProject(); err != nil {
		return nil, err
	}
	r.startRun(ctx)
	log := logging.Component("pipeline").With().Str("project", req.Project).Str("topic", req.Topic).Logger()
	log.Info().Msg("pipeline started")

	result := &Result{Topic: req.Topic}
	if r.runID != uuid.Nil {
		result.RunID = r.runID.String()
	}

	// Research and outline
	if req.Outline != nil {
		result.Outline = *req.Outline
		r.emitProgress(db.StepOutline, StatusCompleted, "Using supplied outline", result.Outline)
	} else {
		research, err := r.research(ctx, result)
		if err != nil {
			return nil, err
		}

		r.emitProgress(db.StepOutline, StatusStarted, "Generating outline", nil)
		outline, err := deps.Writer.GenerateOutline(ctx, research, r.brand.ToV)
		if err != nil {
			return nil, r.fail(ctx, db.StepOutline, err)
		}
		result.Outline = outline
		r.saveArtifact(ctx, db.StepOutline, outline)
		r.emitProgress(db.StepOutline, StatusCompleted, fmt.Sprintf("Outline with %d sections", len(outline.Sections)), outline)
	}

	// Draft
	r.emitProgress(db.StepDraft, StatusStarted, "Writing article", nil)
	if err := r.prepareKeywords(ctx); err != nil {
		return nil, r.fail(ctx, db.StepDraft, err)
	}
	result.Keywords = r.keywords
	markdown, err := deps.Writer.WriteArticle(ctx, types.ArticleRequest{
		Outline:           result.Outline,
		ToV:               r.brand.ToV,
		Keywords:          r.keywords,
		ReferencePatterns: r.referencePatterns(),
		InternalLinks:     r.linkCandidates(ctx),
	})
	if err != nil {
		return nil, r.fail(ctx, db.StepDraft, err)
	}
	r.saveTextArtifact(ctx, db.StepDraft, markdown)
	r.emitProgress(db.StepDraft, StatusCompleted, "Draft written", nil)

	// FAQ questions for the schema
	questions := result.Outline.FAQ
	if len(questions) == 0 {
		questions, err = deps.Strategist.SuggestFAQ(ctx, req.Topic)
		if err != nil {
			return nil, r.fail(ctx, db.StepHTML, err)
		}
	}
	r.faq = types.FAQItems(questions)

	best, err := r.codeAndAudit(ctx, result.Outline.Title, markdown)
	if err != nil {
		return nil, err
	}

	// Rewrite while under target, keeping the best draft
	for i := 0; i < req.MaxRewrites && best.audit.Score < req.TargetScore; i++ {
		r.emitProgress(db.StepRewrite, StatusStarted,
			fmt.Sprintf("Rewrite %d/%d (score %d < %d)", i+1, req.MaxRewrites, best.audit.Score, req.TargetScore), nil)

		rewritten, err := deps.Writer.RewriteArticle(ctx, best.markdown, writer.AuditFeedback(best.audit), r.brand.ToV)
		if err != nil {
			return nil, r.fail(ctx, db.StepRewrite, err)
		}
		result.Rewrites++

		candidate, err := r.codeAndAudit(ctx, result.Outline.Title, rewritten)
		if err != nil {
			return nil, err
		}
		r.saveTextArtifact(ctx, db.StepRewrite, rewritten)
		r.emitProgress(db.StepRewrite, StatusCompleted, fmt.Sprintf("Rewrite scored %d", candidate.audit.Score), candidate.audit)

		if candidate.audit.Score > best.audit.Score {
			best = candidate
		}
	}

	result.Markdown = best.markdown
	result.HTML = best.html
	result.Metadata = best.metadata
	result.Schema = best.schema
	result.Audit = best.audit
	result.Grade = seo.Grade(best.audit.Score)

	r.persist(ctx, result)
	r.emitProgress(StepComplete, StatusCompleted, fmt.Sprintf("Article ready, score %d", result.Audit.Score), result)
	log.Info().Int("score", result.Audit.Score).Int("rewrites", result.Rewrites).Msg("pipeline completed")
	return result, nil
}

// loadProject reads the brand workspace; request fields override it.
func (r *run) loadProject() error {
	brand, err := LoadBrand(r.deps.Projects, r.req.Project)
	if err != nil {
		return err
	}
	if r.req.ToV != "" {
		brand.ToV = r.req.ToV
	}
	if r.req.ReferenceHTML != "" {
		brand.Reference = r.req.ReferenceHTML
	}
	if r.req.CMS != "" {
		brand.CMS = r.req.CMS
	}
	r.brand = brand
	return nil
}

func (r *run) startRun(ctx context.Context) {
	if r.deps.Store == nil {
		return
	}
	id, err := r.deps.Store.CreateRun(ctx, r.req.Project, r.req.Topic)
	if err != nil {
		logging.Component("pipeline").Warn().Err(err).Msg("failed to create run, continuing without persistence")
		return
	}
	r.runID = id
	r.store = r.deps.Store
}

func (r *run) research(ctx context.Context, result *Result) (types.ResearchData, error) {
	r.emitProgress(db.StepSERP, StatusStarted, "Analyzing search results", nil)
	analysis, err := r.deps.SERP.AnalyzeSERP(ctx, r.req.Topic)
	if err != nil {
		return types.ResearchData{}, r.fail(ctx, db.StepSERP, err)
	}
	result.SERP = analysis
	r.saveArtifact(ctx, db.StepSERP, analysis)
	r.emitProgress(db.StepSERP, StatusCompleted,
		fmt.Sprintf("Found %d competitors, intent %s", len(analysis.Competitors), analysis.Intent), analysis)

	r.emitProgress(db.StepCompetitors, StatusStarted, "Scraping competitor outlines", nil)
	outlines := r.deps.Competitors.AnalyzeCompetitors(ctx, analysis.URLs())
	if err := ctx.Err(); err != nil {
		return types.ResearchData{}, r.fail(ctx, db.StepCompetitors, err)
	}
	result.Competitors = outlines
	r.saveArtifact(ctx, db.StepCompetitors, outlines)
	r.emitProgress(db.StepCompetitors, StatusCompleted, fmt.Sprintf("Analyzed %d competitor pages", len(outlines)), outlines)

	return types.ResearchData{
		Topic:              r.req.Topic,
		Intent:             analysis.Intent,
		CompetitorOutlines: outlines,
	}, nil
}

func (r *run) prepareKeywords(ctx context.Context) error {
	keywords := r.req.Keywords
	if len(keywords) == 0 {
		generated, err := r.deps.Strategist.GenerateKeywords(ctx, r.req.Topic, r.req.KeywordCount)
		if err != nil {
			return err
		}
		keywords = types.KeywordTexts(generated)
	}
	if len(keywords) > ArticleKeywords {
		keywords = keywords[:ArticleKeywords]
	}
	r.keywords = keywords
	return nil
}

func (r *run) referencePatterns() types.ReferencePatterns {
	if r.brand.Reference == "" {
		return nil
	}
	patterns, err := writer.AnalyzeReference(r.brand.Reference)
	if err != nil {
		logging.Component("pipeline").Warn().Err(err).Msg("failed to analyze reference HTML")
		return nil
	}
	return patterns
}

func (r *run) linkCandidates(ctx context.Context) []types.PageRef {
	if r.deps.Pages == nil {
		return nil
	}
	refs, err := r.deps.Pages.QuerySimilar(ctx, r.req.Project, r.req.Topic, r.req.LinkCandidates)
	if err != nil {
		logging.Component("pipeline").Warn().Err(err).Msg("internal link lookup failed, writing without links")
		return nil
	}
	return refs
}

type draft struct {
	markdown string
	html     string
	metadata types.Metadata
	schema   string
	audit    types.AuditResult
}

// codeAndAudit converts a draft to CMS HTML and scores it.
func (r *run) codeAndAudit(ctx context.Context, title, markdown string) (draft, error) {
	d := draft{markdown: markdown}

	r.emitProgress(db.StepHTML, StatusStarted, "Converting to HTML", nil)
	coded, err := CodeArticle(ctx, r.deps.Coder, CodeInput{
		Brand:    r.brand,
		Title:    title,
		Markdown: markdown,
		FAQ:      r.faq,
	})
	if err != nil {
		return d, r.fail(ctx, db.StepHTML, err)
	}
	d.html, d.metadata, d.schema = coded.HTML, coded.Metadata, coded.Schema
	r.saveTextArtifact(ctx, db.StepHTML, d.html)
	r.emitProgress(db.StepHTML, StatusCompleted, "HTML ready", nil)

	r.emitProgress(db.StepAudit, StatusStarted, "Scoring article", nil)
	d.audit, err = seo.CalculateScore(d.html, r.keywords, types.SEORules{ForbiddenPhrases: r.req.ForbiddenPhrases})
	if err != nil {
		return d, r.fail(ctx, db.StepAudit, err)
	}
	r.saveArtifact(ctx, db.StepAudit, d.audit)
	r.emitProgress(db.StepAudit, StatusCompleted, fmt.Sprintf("SEO score %d (%s)", d.audit.Score, seo.Grade(d.audit.Score)), d.audit)
	return d, nil
}

// persist archives the article; storage failures are logged, not returned.
func (r *run) persist(ctx context.Context, result *Result) {
	log := logging.Component("pipeline")
	now := time.Now()
	if r.deps.Now != nil {
		now = r.deps.Now()
	}

	if r.deps.Projects != nil {
		path, err := r.deps.Projects.SaveArticle(r.req.Project, r.req.Topic, result.Markdown, now)
		if err != nil {
			log.Warn().Err(err).Msg("failed to archive article")
		} else {
			result.ArchivePath = path
		}
	}

	if r.store == nil {
		return
	}
	score := result.Audit.Score
	audit := result.Audit
	metadata := result.Metadata
	outline := result.Outline
	runID := r.runID
	article := &db.Article{
		RunID:    &runID,
		Project:  r.req.Project,
		Topic:    r.req.Topic,
		Status:   db.ArticleStatusAudited,
		Outline:  &outline,
		Markdown: result.Markdown,
		HTML:     result.HTML,
		Metadata: &metadata,
		Schema:   result.Schema,
		SEOScore: &score,
		Audit:    &audit,
	}
	if err := r.store.CreateArticle(ctx, article); err != nil {
		log.Warn().Err(err).Msg("failed to store article")
	} else {
		result.ArticleID = article.ID.String()
	}
	if err := r.store.CompleteRun(ctx, r.runID, db.RunStatusCompleted); err != nil {
		log.Warn().Err(err).Msg("failed to complete run")
	}
}
