package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/observability"
	"github.com/jonathan/seo-content-machine/internal/pipeline"
	"github.com/jonathan/seo-content-machine/internal/seo"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/jonathan/seo-content-machine/internal/writer"
)

var (
	contentProject   string
	contentTopic     string
	contentIn        string
	contentOut       string
	contentKeywords  string
	outlineResearch  bool
	writeOutlineFile string
	writePreview     bool
	writeSave        bool
	rewriteFeedback  string
	rewriteAuditFile string
	codeTitle        string
	codeFAQFile      string
	auditForbidden   string
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Generate an article outline",
	Long:  "Generates an outline in the project's voice. --research first analyzes the SERP and competitor headings.",
	RunE:  runOutline,
}

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Draft an article from an outline",
	Long: `Drafts Markdown from an outline JSON file using the project's tone of voice, reference styling
and related pages from the index. --preview renders the draft in the terminal.`,
	RunE: runWrite,
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Revise a draft with editor or audit feedback",
	RunE:  runRewrite,
}

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Convert a Markdown draft into CMS-ready HTML",
	Long: `Converts Markdown to HTML for the project's CMS, matches image alt text to uploaded assets,
links mentions of indexed pages and embeds the FAQPage schema. Metadata is printed as JSON.`,
	RunE: runCode,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Score article HTML for on-page SEO",
	RunE:  runAudit,
}

func init() {
	outlineCmd.Flags().StringVarP(&contentProject, "project", "p", "", "Brand project (required)")
	outlineCmd.Flags().StringVarP(&contentTopic, "topic", "t", "", "Article topic (required)")
	outlineCmd.Flags().BoolVar(&outlineResearch, "research", false, "Analyze the SERP and competitors first")
	outlineCmd.Flags().StringVarP(&contentOut, "out", "o", "", "Output JSON file (default stdout)")
	markRequired(outlineCmd, "project", "topic")

	writeCmd.Flags().StringVarP(&contentProject, "project", "p", "", "Brand project (required)")
	writeCmd.Flags().StringVar(&writeOutlineFile, "outline", "", "Outline JSON file (required)")
	writeCmd.Flags().StringVarP(&contentKeywords, "keywords", "k", "", "Comma separated keywords")
	writeCmd.Flags().StringVarP(&contentOut, "out", "o", "", "Output Markdown file (default stdout)")
	writeCmd.Flags().BoolVar(&writePreview, "preview", false, "Render the draft in the terminal")
	writeCmd.Flags().BoolVar(&writeSave, "save", false, "Archive the draft in the project's articles/")
	markRequired(writeCmd, "project", "outline")

	rewriteCmd.Flags().StringVarP(&contentProject, "project", "p", "", "Brand project for the tone of voice")
	rewriteCmd.Flags().StringVarP(&contentIn, "in", "i", "", "Markdown draft, or - for stdin (required)")
	rewriteCmd.Flags().StringVar(&rewriteFeedback, "feedback", "", "Editor instructions")
	rewriteCmd.Flags().StringVar(&rewriteAuditFile, "audit", "", "Audit JSON written by the audit command")
	rewriteCmd.Flags().StringVarP(&contentOut, "out", "o", "", "Output Markdown file (default stdout)")
	markRequired(rewriteCmd, "in")
	rewriteCmd.MarkFlagsOneRequired("feedback", "audit")

	codeCmd.Flags().StringVarP(&contentProject, "project", "p", "", "Brand project (required)")
	codeCmd.Flags().StringVarP(&contentIn, "in", "i", "", "Markdown draft, or - for stdin (required)")
	codeCmd.Flags().StringVar(&codeTitle, "title", "", "Article title for metadata (defaults to the first heading)")
	codeCmd.Flags().StringVar(&codeFAQFile, "faq", "", "FAQ JSON file: [{\"question\":...,\"answer\":...}]")
	codeCmd.Flags().StringVarP(&contentOut, "out", "o", "", "Output HTML file (default: full JSON on stdout)")
	markRequired(codeCmd, "project", "in")

	auditCmd.Flags().StringVarP(&contentIn, "in", "i", "", "Article HTML, or - for stdin (required)")
	auditCmd.Flags().StringVarP(&contentKeywords, "keywords", "k", "", "Comma separated keywords")
	auditCmd.Flags().StringVar(&auditForbidden, "forbidden", "", "Comma separated phrases that must not appear")
	auditCmd.Flags().StringVarP(&contentOut, "out", "o", "", "Output JSON file (default stdout)")
	markRequired(auditCmd, "in")

	rootCmd.AddCommand(outlineCmd, writeCmd, rewriteCmd, codeCmd, auditCmd)
}

// loadBrand reads the project workspace, with the configured CMS as the
// fallback.
func loadBrand(svc *services, name string) (pipeline.Brand, error) {
	projects, err := svc.Projects()
	if err != nil {
		return pipeline.Brand{}, err
	}
	if _, err := projects.Meta(name); err != nil {
		return pipeline.Brand{}, err
	}
	brand, err := pipeline.LoadBrand(projects, name)
	if err != nil {
		return brand, err
	}
	if brand.CMS == "" {
		brand.CMS = appConfig.CMS
	}
	return brand, nil
}

func runOutline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	brand, err := loadBrand(svc, contentProject)
	if err != nil {
		return err
	}
	w, err := svc.Writer(ctx, contentProject)
	if err != nil {
		return err
	}

	research := types.ResearchData{Topic: contentTopic}
	if outlineResearch {
		analyzer, err := svc.SERP(ctx, contentProject)
		if err != nil {
			return err
		}
		analysis, err := analyzer.AnalyzeSERP(ctx, contentTopic)
		if err != nil {
			return err
		}
		research.Intent = analysis.Intent
		if urls := analysis.URLs(); len(urls) > 0 {
			comp, err := svc.Competitors(ctx)
			if err != nil {
				return err
			}
			research.CompetitorOutlines = comp.AnalyzeCompetitors(ctx, urls)
		}
	}

	outline, err := w.GenerateOutline(ctx, research, brand.ToV)
	if err != nil {
		return err
	}
	return writeJSON(contentOut, outline)
}

// draftArticle writes the article for outline the way a pipeline run does:
// reference patterns from the brand's reference HTML, link candidates from
// the page index.
func draftArticle(ctx context.Context, svc *services, w *writer.Writer, brand pipeline.Brand, outline types.Outline, keywords []string) (string, error) {
	log := logging.Component("cli")

	var patterns types.ReferencePatterns
	if brand.Reference != "" {
		p, err := writer.AnalyzeReference(brand.Reference)
		if err != nil {
			log.Warn().Err(err).Msg("failed to analyze reference HTML")
		}
		patterns = p
	}

	var links []types.PageRef
	if pages := svc.OptionalPages(ctx); pages != nil {
		refs, err := pages.QuerySimilar(ctx, brand.Name, outline.Title, pipeline.DefaultLinkCandidates)
		if err != nil {
			log.Warn().Err(err).Msg("internal link lookup failed")
		}
		links = refs
	}

	if len(keywords) > pipeline.ArticleKeywords {
		keywords = keywords[:pipeline.ArticleKeywords]
	}
	return w.WriteArticle(ctx, types.ArticleRequest{
		Outline:           outline,
		ToV:               brand.ToV,
		Keywords:          keywords,
		ReferencePatterns: patterns,
		InternalLinks:     links,
	})
}

func runWrite(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	var outline types.Outline
	if err := readJSONFile(writeOutlineFile, &outline); err != nil {
		return err
	}
	if outline.Title == "" || len(outline.Sections) == 0 {
		return fmt.Errorf("outline needs a title and at least one section")
	}

	svc := newServices(appConfig)
	defer svc.Close()

	brand, err := loadBrand(svc, contentProject)
	if err != nil {
		return err
	}
	w, err := svc.Writer(ctx, contentProject)
	if err != nil {
		return err
	}

	markdown, err := draftArticle(ctx, svc, w, brand, outline, splitList(contentKeywords))
	if err != nil {
		return err
	}

	if writeSave {
		projects, _ := svc.Projects()
		path, err := projects.SaveArticle(contentProject, outline.Title, markdown, time.Now())
		if err != nil {
			return err
		}
		logging.Component("cli").Info().Str("path", path).Msg("article archived")
	}

	if writePreview {
		rendered, err := previewMarkdown(markdown)
		if err != nil {
			return err
		}
		if err := writeOutput("", rendered); err != nil {
			return err
		}
		if contentOut == "" {
			return nil
		}
	}
	return writeOutput(contentOut, markdown)
}

// previewMarkdown renders markdown for the terminal.
func previewMarkdown(markdown string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func runRewrite(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	article, err := readInput(contentIn)
	if err != nil {
		return err
	}

	feedback := rewriteFeedback
	if rewriteAuditFile != "" {
		var report auditReport
		if err := readJSONFile(rewriteAuditFile, &report); err != nil {
			return err
		}
		feedback = strings.TrimSpace(feedback + "\n\n" + report.Feedback)
	}

	svc := newServices(appConfig)
	defer svc.Close()

	var tov string
	if contentProject != "" {
		brand, err := loadBrand(svc, contentProject)
		if err != nil {
			return err
		}
		tov = brand.ToV
	}
	w, err := svc.Writer(ctx, contentProject)
	if err != nil {
		return err
	}

	markdown, err := w.RewriteArticle(ctx, article, feedback, tov)
	if err != nil {
		return err
	}
	return writeOutput(contentOut, markdown)
}

// firstHeading returns the text of the first Markdown heading in md.
func firstHeading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

func runCode(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	markdown, err := readInput(contentIn)
	if err != nil {
		return err
	}
	var faq []types.FAQItem
	if codeFAQFile != "" {
		if err := readJSONFile(codeFAQFile, &faq); err != nil {
			return err
		}
	}
	title := codeTitle
	if title == "" {
		title = firstHeading(markdown)
	}
	if title == "" && contentIn != "-" {
		title = strings.TrimSuffix(filepath.Base(contentIn), filepath.Ext(contentIn))
	}

	svc := newServices(appConfig)
	defer svc.Close()

	brand, err := loadBrand(svc, contentProject)
	if err != nil {
		return err
	}
	coded, err := pipeline.CodeArticle(ctx, svc.Coder(svc.OptionalPages(ctx)), pipeline.CodeInput{
		Brand:    brand,
		Title:    title,
		Markdown: markdown,
		FAQ:      faq,
	})
	if err != nil {
		return err
	}

	if contentOut == "" {
		return writeJSON("", coded)
	}
	if err := writeOutput(contentOut, coded.HTML); err != nil {
		return err
	}
	return writeJSON("", coded.Metadata)
}

// auditReport is what the audit command writes; rewrite --audit reads it.
type auditReport struct {
	Audit    types.AuditResult `json:"audit"`
	Grade    types.Grade       `json:"grade"`
	Feedback string            `json:"rewrite_feedback"`
}

func runAudit(_ *cobra.Command, _ []string) error {
	html, err := readInput(contentIn)
	if err != nil {
		return err
	}
	audit, err := seo.CalculateScore(html, splitList(contentKeywords), types.SEORules{
		ForbiddenPhrases: splitList(auditForbidden),
	})
	if err != nil {
		return err
	}
	if verboseFlag {
		observability.NewPrinter(os.Stderr).PrintAudit(audit)
	}
	return writeJSON(contentOut, auditReport{
		Audit:    audit,
		Grade:    seo.Grade(audit.Score),
		Feedback: writer.AuditFeedback(audit),
	})
}
