package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/sitemap"
)

var (
	ingestProject  string
	ingestURL      string
	ingestMaxPages int
	ingestOut      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest-sitemap",
	Short: "Crawl a sitemap into the project's page index",
	Long: `Reads the sitemap (following sitemap indexes), fetches up to --max-pages pages with a bounded
worker pool and indexes their titles for internal linking and topic ideas.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "", "Brand project (required)")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "Sitemap URL (defaults to the project's sitemap_url)")
	ingestCmd.Flags().IntVar(&ingestMaxPages, "max-pages", 0, "Maximum pages to fetch (defaults to sitemap_max_pages)")
	ingestCmd.Flags().StringVarP(&ingestOut, "out", "o", "", "Write the crawled pages as JSON to this file")
	markRequired(ingestCmd, "project")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	projects, err := svc.Projects()
	if err != nil {
		return err
	}
	meta, err := projects.Meta(ingestProject)
	if err != nil {
		return err
	}
	sitemapURL := ingestURL
	if sitemapURL == "" {
		sitemapURL = meta.SitemapURL
	}
	if sitemapURL == "" {
		return fmt.Errorf("--url is required when the project has no sitemap_url")
	}

	pagesIndex, err := svc.Pages(ctx)
	if err != nil {
		return err
	}

	opts := svc.SitemapOptions()
	if ingestMaxPages > 0 {
		opts.MaxPages = ingestMaxPages
	}
	pages, err := sitemap.Ingest(ctx, sitemapURL, opts)
	if err != nil {
		return err
	}
	indexed, err := pagesIndex.AddPages(ctx, ingestProject, pages)
	if err != nil {
		return err
	}

	if ingestOut != "" {
		if err := writeJSON(ingestOut, pages); err != nil {
			return err
		}
	}
	return writeOutput("", fmt.Sprintf("Crawled %d page(s), indexed %d for %s", len(pages), indexed, ingestProject))
}
