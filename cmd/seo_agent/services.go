package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/seo-content-machine/internal/coder"
	"github.com/jonathan/seo-content-machine/internal/competitors"
	"github.com/jonathan/seo-content-machine/internal/config"
	"github.com/jonathan/seo-content-machine/internal/db"
	"github.com/jonathan/seo-content-machine/internal/embedding"
	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/serp"
	"github.com/jonathan/seo-content-machine/internal/sitemap"
	"github.com/jonathan/seo-content-machine/internal/strategist"
	"github.com/jonathan/seo-content-machine/internal/vectordb"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

// services builds the components a command needs on first use and
// releases them in Close.
type services struct {
	cfg     *config.Config
	closers []func()

	llm      llm.Client
	browser  *fetch.LazyBrowser
	fetcher  fetch.Fetcher
	db       *db.DB
	dbOpened bool
	pages    *vectordb.Store
	projects *project.Manager
}

func newServices(cfg *config.Config) *services {
	return &services{cfg: cfg}
}

// Close releases everything opened so far, newest first.
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *services) Projects() (*project.Manager, error) {
	if s.projects != nil {
		return s.projects, nil
	}
	m, err := project.NewManager(s.cfg.ProjectsDir)
	if err != nil {
		return nil, err
	}
	s.projects = m
	return m, nil
}

// Language returns the output language of brand, falling back to the
// configured default.
func (s *services) Language(brand string) string {
	if brand == "" {
		return s.cfg.Language
	}
	projects, err := s.Projects()
	if err != nil {
		return s.cfg.Language
	}
	meta, err := projects.Meta(brand)
	if err != nil || meta.Language == "" {
		return s.cfg.Language
	}
	return meta.Language
}

func (s *services) LLM(ctx context.Context) (llm.Client, error) {
	if s.llm != nil {
		return s.llm, nil
	}
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig().WithOverrides(s.cfg.Models), s.cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	s.llm = client
	s.closers = append(s.closers, func() { _ = client.Close() })
	return client, nil
}

// DB connects to PostgreSQL. It returns nil without error when no database
// is configured.
func (s *services) DB(ctx context.Context) (*db.DB, error) {
	if s.dbOpened {
		return s.db, nil
	}
	s.dbOpened = true
	if s.cfg.DatabaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	s.db = database
	s.closers = append(s.closers, database.Close)
	return database, nil
}

func (s *services) httpOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if s.cfg.FetchTimeoutSeconds > 0 {
		opts.Timeout = time.Duration(s.cfg.FetchTimeoutSeconds) * time.Second
	}
	return opts
}

// renderer is the shared headless browser, or nil when disabled.
func (s *services) renderer() fetch.Renderer {
	if s.cfg.DisableBrowser {
		return nil
	}
	if s.browser == nil {
		s.browser = fetch.NewLazyBrowser(fetch.BrowserOptions{Timeout: s.httpOptions().Timeout * 3})
		s.closers = append(s.closers, s.browser.Close)
	}
	return s.browser
}

// Fetcher is the browser-then-HTTP chain, cached in PostgreSQL when a
// database is configured.
func (s *services) Fetcher(ctx context.Context) (fetch.Fetcher, error) {
	if s.fetcher != nil {
		return s.fetcher, nil
	}
	chain := fetch.NewChain(s.renderer(), s.httpOptions())

	database, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}
	if database != nil {
		s.fetcher = fetch.NewCachedFetcher(database, chain, nil)
	} else {
		s.fetcher = chain
	}
	return s.fetcher, nil
}

// Pages opens the brand page index.
func (s *services) Pages(ctx context.Context) (*vectordb.Store, error) {
	if s.pages != nil {
		return s.pages, nil
	}
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("the page index needs GEMINI_API_KEY for embeddings")
	}
	embedder, err := embedding.New(ctx, embedding.Config{
		Provider: embedding.ProviderGenAI,
		APIKey:   s.cfg.APIKey,
		Model:    s.cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}
	store, err := vectordb.Open(ctx, s.cfg.VectorDBPath, embedder)
	if err != nil {
		return nil, err
	}
	s.pages = store
	s.closers = append(s.closers, func() { _ = store.Close() })
	return store, nil
}

// OptionalPages is Pages for callers that work without the index.
func (s *services) OptionalPages(ctx context.Context) *vectordb.Store {
	store, err := s.Pages(ctx)
	if err != nil {
		logging.Component("cli").Warn().Err(err).Msg("page index unavailable, continuing without internal links")
		return nil
	}
	return store
}

func (s *services) Strategist(ctx context.Context, brand string) (*strategist.Strategist, error) {
	client, err := s.LLM(ctx)
	if err != nil {
		return nil, err
	}
	fetcher, err := s.Fetcher(ctx)
	if err != nil {
		return nil, err
	}
	return strategist.New(client, fetcher, s.Language(brand)), nil
}

func (s *services) Writer(ctx context.Context, brand string) (*writer.Writer, error) {
	client, err := s.LLM(ctx)
	if err != nil {
		return nil, err
	}
	return writer.New(client, s.Language(brand)), nil
}

func (s *services) SERP(ctx context.Context, brand string) (*serp.Analyzer, error) {
	client, err := s.LLM(ctx)
	if err != nil {
		return nil, err
	}
	searcher, err := serp.NewSearcher(ctx, serp.Options{
		APIKey:   s.cfg.SearchAPIKey,
		CX:       s.cfg.SearchEngineID,
		Renderer: s.renderer(),
		HTTP:     s.httpOptions(),
	})
	if err != nil {
		return nil, err
	}
	return serp.NewAnalyzer(searcher, client, s.Language(brand)), nil
}

func (s *services) Competitors(ctx context.Context) (*competitors.Analyzer, error) {
	fetcher, err := s.Fetcher(ctx)
	if err != nil {
		return nil, err
	}
	return competitors.NewAnalyzer(fetcher, s.cfg.CompetitorWorkers), nil
}

// Coder returns a Coder that links against pages when it is non-nil.
func (s *services) Coder(pages *vectordb.Store) *coder.Coder {
	if pages == nil {
		return coder.New(nil, s.cfg.AssetPathPrefix)
	}
	return coder.New(pages, s.cfg.AssetPathPrefix)
}

func (s *services) SitemapOptions() sitemap.Options {
	return sitemap.Options{
		MaxPages: s.cfg.SitemapMaxPages,
		Workers:  s.cfg.SitemapWorkers,
		Timeout:  s.httpOptions().Timeout,
		HTTP:     s.httpOptions(),
	}
}
