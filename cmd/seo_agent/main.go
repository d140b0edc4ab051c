// Package main provides the seo_agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/config"
	"github.com/jonathan/seo-content-machine/internal/logging"
)

var (
	configPath  string
	apiKeyFlag  string
	dbURLFlag   string
	verboseFlag bool

	// appConfig is loaded before every command runs.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "seo_agent",
	Short: "SEO content machine",
	Long: `seo_agent researches topics, writes brand-voiced articles with Gemini, converts them to
CMS-ready HTML and scores them for on-page SEO. Every step is available as a subcommand and
through the REST API started by "seo_agent serve".`,
	SilenceUsage:      true,
	PersistentPreRunE: loadAppConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&dbURLFlag, "db-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

func loadAppConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = apiKeyFlag
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = dbURLFlag
	}
	if verboseFlag {
		cfg.Log.Level = "debug"
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	appConfig = cfg
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
