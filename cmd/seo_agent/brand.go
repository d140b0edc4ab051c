package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/types"
)

var (
	brandProject    string
	brandIndustry   string
	brandURL        string
	brandOut        string
	tovDocs         []string
	tovTone         string
	tovFormality    string
	tovTrait        string
	tovRefine       string
	tovCompetitor   string
	audienceModel   string
	audiencePersons int
)

var tovCmd = &cobra.Command{
	Use:   "tov",
	Short: "Generate, refine or benchmark a tone-of-voice guide",
	Long: `Writes the project's tone-of-voice guide (tov.md) from the brand website and optional
documents. --refine edits the saved guide instead; --competitor classifies a competitor's voice
and saves nothing.`,
	RunE: runToV,
}

var audienceCmd = &cobra.Command{
	Use:   "audience",
	Short: "Write customer personas for the project (audience.md)",
	RunE:  runAudience,
}

var cjmCmd = &cobra.Command{
	Use:   "cjm",
	Short: "Write a customer journey map from the saved personas (cjm.md)",
	RunE:  runCJM,
}

func init() {
	for _, c := range []*cobra.Command{tovCmd, audienceCmd, cjmCmd} {
		c.Flags().StringVarP(&brandProject, "project", "p", "", "Brand project (required)")
		c.Flags().StringVarP(&brandOut, "out", "o", "", "Also write the result to this file")
		markRequired(c, "project")
	}
	for _, c := range []*cobra.Command{tovCmd, audienceCmd} {
		c.Flags().StringVar(&brandIndustry, "industry", "", "Industry (defaults to the project's)")
		c.Flags().StringVar(&brandURL, "url", "", "Website to read (defaults to the project's)")
	}

	tovCmd.Flags().StringSliceVar(&tovDocs, "doc", nil, "Brand document to include (repeatable)")
	tovCmd.Flags().StringVar(&tovTone, "tone", "", "Desired emotional tone")
	tovCmd.Flags().StringVar(&tovFormality, "formality", "", "Desired formality level")
	tovCmd.Flags().StringVar(&tovTrait, "trait", "", "Unique trait of the brand voice")
	tovCmd.Flags().StringVar(&tovRefine, "refine", "", "Edit the saved guide with these instructions")
	tovCmd.Flags().StringVar(&tovCompetitor, "competitor", "", "Classify the tone of voice of this competitor URL")
	tovCmd.MarkFlagsMutuallyExclusive("refine", "competitor")

	audienceCmd.Flags().StringVar(&audienceModel, "business-model", "B2C", "B2B, B2C or both")
	audienceCmd.Flags().IntVar(&audiencePersons, "personas", 0, "Number of personas")

	rootCmd.AddCommand(tovCmd, audienceCmd, cjmCmd)
}

// brandMeta loads the project metadata with --industry and --url applied.
func brandMeta(svc *services) (*project.Manager, types.ProjectMeta, error) {
	projects, err := svc.Projects()
	if err != nil {
		return nil, types.ProjectMeta{}, err
	}
	meta, err := projects.Meta(brandProject)
	if err != nil {
		return nil, meta, err
	}
	if brandIndustry != "" {
		meta.Industry = brandIndustry
	}
	if brandURL != "" {
		meta.URL = brandURL
	}
	return projects, meta, nil
}

// saveBrandFile stores and prints generated Markdown. A failed generation is
// reported as an error and leaves the saved file alone.
func saveBrandFile(projects *project.Manager, name, content string) error {
	if llm.IsErrorText(content) {
		return fmt.Errorf("%s not saved: %s", name, strings.TrimPrefix(content, llm.ErrorPrefix))
	}
	if err := projects.SaveFile(brandProject, name, content); err != nil {
		return err
	}
	if brandOut != "" {
		if err := writeOutput(brandOut, content); err != nil {
			return err
		}
	}
	return writeOutput("", content)
}

func runToV(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	projects, meta, err := brandMeta(svc)
	if err != nil {
		return err
	}
	strat, err := svc.Strategist(ctx, brandProject)
	if err != nil {
		return err
	}

	switch {
	case tovCompetitor != "":
		profile, err := strat.AnalyzeCompetitorToV(ctx, tovCompetitor)
		if err != nil {
			return err
		}
		return writeJSON(brandOut, profile)

	case tovRefine != "":
		current, err := projects.ToV(brandProject)
		if err != nil {
			return err
		}
		tov, err := strat.RefineToV(ctx, current, tovRefine)
		if err != nil {
			return err
		}
		return saveBrandFile(projects, project.ToVFile, tov)
	}

	if meta.Industry == "" {
		return fmt.Errorf("--industry is required when the project has none")
	}
	brief := types.BrandBrief{
		Name:           meta.BrandName,
		Industry:       meta.Industry,
		URL:            meta.URL,
		EmotionalTone:  tovTone,
		FormalityLevel: tovFormality,
		UniqueTrait:    tovTrait,
	}
	for _, path := range tovDocs {
		text, err := readInput(path)
		if err != nil {
			return err
		}
		brief.Documents = append(brief.Documents, types.ReferenceDoc{Name: filepath.Base(path), Text: text})
	}

	tov, err := strat.GenerateToV(ctx, brief)
	if err != nil {
		return err
	}
	return saveBrandFile(projects, project.ToVFile, tov)
}

func runAudience(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	projects, meta, err := brandMeta(svc)
	if err != nil {
		return err
	}
	if meta.Industry == "" {
		return fmt.Errorf("--industry is required when the project has none")
	}
	strat, err := svc.Strategist(ctx, brandProject)
	if err != nil {
		return err
	}

	personas, err := strat.GenerateAudience(ctx, types.AudienceBrief{
		Name:          meta.BrandName,
		Industry:      meta.Industry,
		URL:           meta.URL,
		BusinessModel: audienceModel,
		Personas:      audiencePersons,
	})
	if err != nil {
		return err
	}
	return saveBrandFile(projects, project.AudienceFile, personas)
}

func runCJM(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	projects, meta, err := brandMeta(svc)
	if err != nil {
		return err
	}
	personas, ok, err := projects.ReadFile(brandProject, project.AudienceFile)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("project %s has no %s, run \"seo_agent audience\" first", brandProject, project.AudienceFile)
	}
	strat, err := svc.Strategist(ctx, brandProject)
	if err != nil {
		return err
	}

	cjm, err := strat.GenerateCJM(ctx, meta.BrandName, meta.Industry, personas)
	if err != nil {
		return err
	}
	return saveBrandFile(projects, project.CJMFile, cjm)
}
