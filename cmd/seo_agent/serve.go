package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/config"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/server"
)

var (
	servePort   int
	serveNoAuth bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes every step of the article workflow as REST endpoints,
plus POST /pipeline/stream for a full run streamed over Server-Sent Events.

Bearer-token authentication is enabled when JWT_SECRET is set; mint tokens with "seo_agent token".
PostgreSQL (DATABASE_URL) is optional and enables the page cache, run history and article storage.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveNoAuth, "no-auth", false, "Serve without authentication even if JWT_SECRET is set")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logging.Component("cli")

	svc := newServices(appConfig)
	defer svc.Close()

	projects, err := svc.Projects()
	if err != nil {
		return err
	}
	database, err := svc.DB(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		if pruned, err := database.DeleteExpiredPages(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to prune expired crawled pages")
		} else if pruned > 0 {
			log.Info().Int64("pages", pruned).Msg("pruned expired crawled pages")
		}
	}
	strat, err := svc.Strategist(ctx, "")
	if err != nil {
		return err
	}
	write, err := svc.Writer(ctx, "")
	if err != nil {
		return err
	}
	serpAnalyzer, err := svc.SERP(ctx, "")
	if err != nil {
		return err
	}
	comp, err := svc.Competitors(ctx)
	if err != nil {
		return err
	}
	pages := svc.OptionalPages(ctx)

	services := server.Services{
		Strategist:  strat,
		Writer:      write,
		SERP:        serpAnalyzer,
		Competitors: comp,
		Coder:       svc.Coder(pages),
		Pages:       pages,
		Projects:    projects,
		DB:          database,
	}

	cfg := server.Config{
		Port:        servePort,
		CMS:         appConfig.CMS,
		Sitemap:     svc.SitemapOptions(),
		TargetScore: appConfig.TargetScore,
		MaxRewrites: appConfig.MaxRewrites,
	}
	if !serveNoAuth {
		auth, err := config.NewAuthConfig()
		if err != nil {
			log.Warn().Err(err).Msg("authentication disabled")
		} else {
			cfg.Auth = auth
		}
	}

	srv, err := server.New(cfg, services)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
