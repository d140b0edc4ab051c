// Package llm wraps the Gemini generation API behind a small client interface
// with model tiers, retry with backoff, and helpers for JSON responses.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short extraction tasks: entities, FAQ questions, SERP intent
	TierLite ModelTier = "lite"
	// TierStandard is for structured output: topics, keywords, outlines, personas
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form prose: articles and rewrites
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, the only one implemented.
const ProviderGemini Provider = "gemini"

// Default sampling temperatures.
const (
	DefaultTextTemperature float32 = 0.7
	DefaultJSONTemperature float32 = 0.2
)

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string

	TextTemperature float32
	JSONTemperature float32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-flash",
		},
		TextTemperature: DefaultTextTemperature,
		JSONTemperature: DefaultJSONTemperature,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok && model != "" {
		return model
	}
	if model, ok := c.Models[TierLite]; ok && model != "" {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}

// WithOverrides applies tier -> model entries from configuration files.
// Unknown tier names are ignored.
func (c *Config) WithOverrides(models map[string]string) *Config {
	result := c
	for tier, model := range models {
		switch ModelTier(tier) {
		case TierLite, TierStandard, TierAdvanced:
			if model != "" {
				result = result.WithModel(ModelTier(tier), model)
			}
		}
	}
	return result
}
