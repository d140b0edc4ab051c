// Package config provides configuration loading and validation for the CLI and API server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. It can be loaded from a
// JSON or YAML file; environment variables override file values.
type Config struct {
	// Credentials and storage
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty"`                   // Gemini API key
	DatabaseURL    string `json:"database_url,omitempty" yaml:"database_url,omitempty"`         // PostgreSQL connection URL
	SearchAPIKey   string `json:"search_api_key,omitempty" yaml:"search_api_key,omitempty"`     // Google Custom Search key
	SearchEngineID string `json:"search_engine_id,omitempty" yaml:"search_engine_id,omitempty"` // Google Custom Search CX
	ProjectsDir    string `json:"projects_dir,omitempty" yaml:"projects_dir,omitempty"`
	VectorDBPath   string `json:"vector_db_path,omitempty" yaml:"vector_db_path,omitempty"`

	// Content
	Language        string `json:"language,omitempty" yaml:"language,omitempty"` // output language for prompts
	CMS             string `json:"cms,omitempty" yaml:"cms,omitempty"`
	AssetPathPrefix string `json:"asset_path_prefix,omitempty" yaml:"asset_path_prefix,omitempty" validate:"omitempty,startswith=/"`

	// Models
	Models         map[string]string `json:"models,omitempty" yaml:"models,omitempty"` // tier -> model name
	EmbeddingModel string            `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`

	// Scraping
	DisableBrowser      bool `json:"disable_browser,omitempty" yaml:"disable_browser,omitempty"`
	FetchTimeoutSeconds int  `json:"fetch_timeout_seconds,omitempty" yaml:"fetch_timeout_seconds,omitempty" validate:"gte=0,lte=300"`
	SitemapMaxPages     int  `json:"sitemap_max_pages,omitempty" yaml:"sitemap_max_pages,omitempty" validate:"gte=0,lte=10000"`
	SitemapWorkers      int  `json:"sitemap_workers,omitempty" yaml:"sitemap_workers,omitempty" validate:"gte=0,lte=64"`
	CompetitorWorkers   int  `json:"competitor_workers,omitempty" yaml:"competitor_workers,omitempty" validate:"gte=0,lte=16"`

	// Article workflow
	MaxRewrites int `json:"max_rewrites,omitempty" yaml:"max_rewrites,omitempty" validate:"gte=0,lte=5"`
	TargetScore int `json:"target_score,omitempty" yaml:"target_score,omitempty" validate:"gte=0,lte=100"`

	Log logging.Config `json:"log,omitempty" yaml:"log,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ProjectsDir:         "projects",
		VectorDBPath:        "vector.db",
		Language:            "Ukrainian",
		CMS:                 "OpenCart",
		AssetPathPrefix:     "/image/catalog/assets/",
		EmbeddingModel:      "gemini-embedding-001",
		FetchTimeoutSeconds: 10,
		SitemapMaxPages:     20,
		SitemapWorkers:      10,
		CompetitorWorkers:   4,
		MaxRewrites:         2,
		TargetScore:         80,
		Log:                 logging.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Load builds the effective configuration: file values (if path is set) over
// defaults, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Defaults())
	merged.ApplyEnv()

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields with environment variables when they are set.
func (c *Config) ApplyEnv() {
	if v := cleanEnv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := cleanEnv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := cleanEnv("GOOGLE_SEARCH_API_KEY"); v != "" {
		c.SearchAPIKey = v
	}
	if v := cleanEnv("GOOGLE_SEARCH_CX"); v != "" {
		c.SearchEngineID = v
	}
	if v := cleanEnv("SEO_PROJECTS_DIR"); v != "" {
		c.ProjectsDir = v
	}
	if v := cleanEnv("SEO_VECTOR_DB"); v != "" {
		c.VectorDBPath = v
	}
	if v := cleanEnv("SEO_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := cleanEnv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := cleanEnv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// cleanEnv reads an environment variable and strips surrounding quotes,
// which .env files edited by hand often carry.
func cleanEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	v = strings.Trim(v, `"'`)
	return v
}

// Validate checks that the configuration has valid values.
// Required credentials are checked by the commands that need them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "pretty" {
		return fmt.Errorf("config error: 'log.format' must be json or pretty")
	}

	if c.ProjectsDir != "" {
		if info, err := os.Stat(c.ProjectsDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: projects_dir is not a directory: %s", c.ProjectsDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SearchAPIKey == "" {
		result.SearchAPIKey = defaults.SearchAPIKey
	}
	if result.SearchEngineID == "" {
		result.SearchEngineID = defaults.SearchEngineID
	}
	if result.ProjectsDir == "" {
		result.ProjectsDir = defaults.ProjectsDir
	}
	if result.VectorDBPath == "" {
		result.VectorDBPath = defaults.VectorDBPath
	}
	if result.Language == "" {
		result.Language = defaults.Language
	}
	if result.CMS == "" {
		result.CMS = defaults.CMS
	}
	if result.AssetPathPrefix == "" {
		result.AssetPathPrefix = defaults.AssetPathPrefix
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}

	// Int fields: use default if zero
	if result.FetchTimeoutSeconds == 0 {
		result.FetchTimeoutSeconds = defaults.FetchTimeoutSeconds
	}
	if result.SitemapMaxPages == 0 {
		result.SitemapMaxPages = defaults.SitemapMaxPages
	}
	if result.SitemapWorkers == 0 {
		result.SitemapWorkers = defaults.SitemapWorkers
	}
	if result.CompetitorWorkers == 0 {
		result.CompetitorWorkers = defaults.CompetitorWorkers
	}
	if result.MaxRewrites == 0 {
		result.MaxRewrites = defaults.MaxRewrites
	}
	if result.TargetScore == 0 {
		result.TargetScore = defaults.TargetScore
	}

	// Models: file entries win per tier
	if len(defaults.Models) > 0 {
		models := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			models[k] = v
		}
		for k, v := range result.Models {
			models[k] = v
		}
		result.Models = models
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
