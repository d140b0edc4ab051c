package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage brand workspaces",
	Long: `A project is a directory under projects_dir holding the brand's config.json, tone-of-voice
guide (tov.md), reference HTML, image assets and archived articles.`,
}

var (
	projectIndustry   string
	projectURL        string
	projectSitemapURL string
	projectCMS        string
	projectLanguage   string
)

var projectCreateCmd = &cobra.Command{
	Use:   "create <brand>",
	Short: "Create a brand workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List brand workspaces",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <brand>",
	Short: "Delete a brand workspace and its page index",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectIndustry, "industry", "", "Brand industry")
	projectCreateCmd.Flags().StringVar(&projectURL, "url", "", "Brand website")
	projectCreateCmd.Flags().StringVar(&projectSitemapURL, "sitemap-url", "", "Sitemap used by ingest-sitemap")
	projectCreateCmd.Flags().StringVar(&projectCMS, "cms", "", "Target CMS (defaults to the configured cms)")
	projectCreateCmd.Flags().StringVar(&projectLanguage, "language", "", "Output language (defaults to the configured language)")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(_ *cobra.Command, args []string) error {
	svc := newServices(appConfig)
	defer svc.Close()

	projects, err := svc.Projects()
	if err != nil {
		return err
	}
	cms := projectCMS
	if cms == "" {
		cms = appConfig.CMS
	}
	dir, err := projects.Create(types.ProjectMeta{
		BrandName:  args[0],
		Industry:   projectIndustry,
		URL:        projectURL,
		SitemapURL: projectSitemapURL,
		CMS:        cms,
		Language:   projectLanguage,
	})
	if err != nil {
		return err
	}
	return writeOutput("", fmt.Sprintf("Created project %s at %s", args[0], dir))
}

func runProjectList(_ *cobra.Command, _ []string) error {
	svc := newServices(appConfig)
	defer svc.Close()

	projects, err := svc.Projects()
	if err != nil {
		return err
	}
	names, err := projects.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := writeOutput("", name); err != nil {
			return err
		}
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	brand := args[0]
	svc := newServices(appConfig)
	defer svc.Close()

	projects, err := svc.Projects()
	if err != nil {
		return err
	}
	deleted, err := projects.Delete(brand)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("project %q does not exist", brand)
	}

	if pages := svc.OptionalPages(cmd.Context()); pages != nil {
		if err := pages.DeleteCollection(cmd.Context(), brand); err != nil {
			logging.Component("cli").Warn().Err(err).Str("project", brand).Msg("failed to delete page index")
		}
	}
	return writeOutput("", "Deleted project "+brand)
}
