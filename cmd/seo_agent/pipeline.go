package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/observability"
	"github.com/jonathan/seo-content-machine/internal/pipeline"
	"github.com/jonathan/seo-content-machine/internal/types"
)

var (
	pipelineProject     string
	pipelineTopic       string
	pipelineKeywords    string
	pipelineOutlineFile string
	pipelineForbidden   string
	pipelineTargetScore int
	pipelineMaxRewrites int
	pipelineOut         string
	pipelineJSON        string
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full article workflow end-to-end",
	Long: `Orchestrates the whole process: SERP analysis -> competitor outlines -> outline -> draft ->
HTML -> SEO audit -> rewrites until the target score is reached (keeping the best draft).

The article is archived in the project's articles/ directory and, with a database, stored in
the articles table along with every step's artifacts.`,
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().StringVarP(&pipelineProject, "project", "p", "", "Brand project (required)")
	pipelineCmd.Flags().StringVarP(&pipelineTopic, "topic", "t", "", "Article topic (required)")
	pipelineCmd.Flags().StringVarP(&pipelineKeywords, "keywords", "k", "", "Comma separated keywords (generated when empty)")
	pipelineCmd.Flags().StringVar(&pipelineOutlineFile, "outline", "", "Outline JSON file; skips research")
	pipelineCmd.Flags().StringVar(&pipelineForbidden, "forbidden", "", "Comma separated phrases the article must not use")
	pipelineCmd.Flags().IntVar(&pipelineTargetScore, "target-score", 0, "SEO score that stops the rewrite loop (defaults to target_score)")
	pipelineCmd.Flags().IntVar(&pipelineMaxRewrites, "max-rewrites", 0, "Maximum rewrites, negative disables (defaults to max_rewrites)")
	pipelineCmd.Flags().StringVarP(&pipelineOut, "out", "o", "", "Output HTML file (default stdout)")
	pipelineCmd.Flags().StringVar(&pipelineJSON, "json", "", "Also write the full run result as JSON to this file")
	markRequired(pipelineCmd, "project", "topic")
	rootCmd.AddCommand(pipelineCmd)
}

// progressPrinter reports pipeline steps on w.
func progressPrinter(w io.Writer) pipeline.ProgressCallback {
	return func(event pipeline.ProgressEvent) {
		if event.Message == "" {
			_, _ = fmt.Fprintf(w, "[%s] %s\n", event.Step, event.Status)
			return
		}
		_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", event.Step, event.Status, event.Message)
	}
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	req := pipeline.Request{
		Project:          pipelineProject,
		Topic:            pipelineTopic,
		Keywords:         splitList(pipelineKeywords),
		ForbiddenPhrases: splitList(pipelineForbidden),
		TargetScore:      appConfig.TargetScore,
		MaxRewrites:      appConfig.MaxRewrites,
	}
	if cmd.Flags().Changed("target-score") {
		req.TargetScore = pipelineTargetScore
	}
	if cmd.Flags().Changed("max-rewrites") {
		req.MaxRewrites = pipelineMaxRewrites
	}
	if pipelineOutlineFile != "" {
		var outline types.Outline
		if err := readJSONFile(pipelineOutlineFile, &outline); err != nil {
			return err
		}
		req.Outline = &outline
	}

	svc := newServices(appConfig)
	defer svc.Close()

	projects, err := svc.Projects()
	if err != nil {
		return err
	}
	meta, err := projects.Meta(pipelineProject)
	if err != nil {
		return err
	}
	if meta.CMS == "" {
		req.CMS = appConfig.CMS
	}

	deps := pipeline.Deps{Projects: projects}
	if deps.SERP, err = svc.SERP(ctx, pipelineProject); err != nil {
		return err
	}
	if deps.Competitors, err = svc.Competitors(ctx); err != nil {
		return err
	}
	if deps.Strategist, err = svc.Strategist(ctx, pipelineProject); err != nil {
		return err
	}
	if deps.Writer, err = svc.Writer(ctx, pipelineProject); err != nil {
		return err
	}
	pages := svc.OptionalPages(ctx)
	deps.Coder = svc.Coder(pages)
	if pages != nil {
		deps.Pages = pages
	}
	database, err := svc.DB(ctx)
	if err != nil {
		return err
	}
	if database != nil {
		deps.Store = database
	}

	result, err := pipeline.Run(ctx, req, deps, progressPrinter(os.Stderr))
	if err != nil {
		return err
	}

	if verboseFlag {
		observability.NewPrinter(os.Stderr).PrintResult(result.SERP, result.Competitors, result.Outline, result.Audit)
	}
	if pipelineJSON != "" {
		if err := writeJSON(pipelineJSON, result); err != nil {
			return err
		}
	}
	if err := writeOutput(pipelineOut, result.HTML); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "Score %d (%s) after %d rewrite(s)\n", result.Audit.Score, result.Grade, result.Rewrites)
	if result.ArchivePath != "" {
		_, _ = fmt.Fprintf(os.Stderr, "Archived: %s\n", result.ArchivePath)
	}
	return nil
}
