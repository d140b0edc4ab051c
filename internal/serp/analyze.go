package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/prompts"
	"github.com/jonathan/seo-content-machine/internal/schemas"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// DefaultIntent is used when the model output cannot be read.
const DefaultIntent = "Informational"

// ResultSource returns search results for a topic. *Searcher satisfies it.
type ResultSource interface {
	Search(ctx context.Context, topic string) ([]types.SearchResult, error)
}

// Analyzer combines search results with an LLM intent classification.
type Analyzer struct {
	source   ResultSource
	client   llm.Client
	language string
}

// NewAnalyzer creates an Analyzer. An empty language uses prompts.DefaultLanguage.
func NewAnalyzer(source ResultSource, client llm.Client, language string) *Analyzer {
	return &Analyzer{source: source, client: client, language: language}
}

type intentResponse struct {
	Intent   string   `json:"intent"`
	Features []string `json:"features"`
}

// AnalyzeSERP searches for topic and classifies its intent and SERP features.
// The only errors returned are context errors.
func (a *Analyzer) AnalyzeSERP(ctx context.Context, topic string) (*types.SERPAnalysis, error) {
	results, err := a.source.Search(ctx, topic)
	if err != nil {
		return nil, err
	}

	analysis := &types.SERPAnalysis{
		Topic:        topic,
		Competitors:  results,
		Intent:       DefaultIntent,
		SERPFeatures: []string{},
	}

	intent, err := a.classify(ctx, topic, results)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Component("serp").Warn().Err(err).Str("topic", topic).Msg("intent analysis failed, using default")
		return analysis, nil
	}

	analysis.Intent = intent.Intent
	if intent.Features != nil {
		analysis.SERPFeatures = intent.Features
	}
	return analysis, nil
}

func (a *Analyzer) classify(ctx context.Context, topic string, results []types.SearchResult) (*intentResponse, error) {
	prompt, err := prompts.Render(prompts.StrategistFile, "serp-intent", map[string]string{
		"Topic":    topic,
		"Language": a.language,
		"Results":  formatResults(results),
	})
	if err != nil {
		return nil, err
	}

	text, err := a.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, err
	}

	cleaned := llm.CleanJSONBlock(text)
	if err := schemas.Validate(schemas.SERPIntent, cleaned); err != nil {
		return nil, err
	}
	var resp intentResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}
	return &resp, nil
}

func formatResults(results []types.SearchResult) string {
	if len(results) == 0 {
		return "(no results found)"
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, r.Title, r.URL)
	}
	return sb.String()
}
