package serp

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	results []types.SearchResult
}

func (s staticSource) Search(_ context.Context, _ string) ([]types.SearchResult, error) {
	return s.results, nil
}

func TestAnalyzeSERP(t *testing.T) {
	source := staticSource{results: []types.SearchResult{{URL: "https://a.example", Title: "Clay pots guide"}}}
	client := &llm.MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "```json\n{\"intent\": \"Commercial\", \"features\": [\"Images\", \"Video\"]}\n```", nil
		},
	}

	analysis, err := NewAnalyzer(source, client, "English").AnalyzeSERP(context.Background(), "clay pots")
	require.NoError(t, err)
	assert.Equal(t, "clay pots", analysis.Topic)
	assert.Equal(t, "Commercial", analysis.Intent)
	assert.Equal(t, []string{"Images", "Video"}, analysis.SERPFeatures)
	assert.Equal(t, source.results, analysis.Competitors)

	prompt := client.LastPrompt()
	assert.Contains(t, prompt, "clay pots")
	assert.Contains(t, prompt, "English")
	assert.Contains(t, prompt, "1. Clay pots guide (https://a.example)")
}

func TestAnalyzeSERP_FallbackOnBadJSON(t *testing.T) {
	client := &llm.MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "I think it is informational", nil
		},
	}

	analysis, err := NewAnalyzer(staticSource{}, client, "").AnalyzeSERP(context.Background(), "clay pots")
	require.NoError(t, err)
	assert.Equal(t, DefaultIntent, analysis.Intent)
	assert.Equal(t, []string{}, analysis.SERPFeatures)
}

func TestAnalyzeSERP_FallbackOnSchemaMismatch(t *testing.T) {
	client := &llm.MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return `{"features": ["Video"]}`, nil
		},
	}

	analysis, err := NewAnalyzer(staticSource{}, client, "").AnalyzeSERP(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, DefaultIntent, analysis.Intent)
}

func TestAnalyzeSERP_FallbackOnLLMError(t *testing.T) {
	client := &llm.MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "", errors.New("quota")
		},
	}

	analysis, err := NewAnalyzer(staticSource{}, client, "").AnalyzeSERP(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, DefaultIntent, analysis.Intent)
	assert.Empty(t, analysis.Competitors)
}

func TestFormatResults_Empty(t *testing.T) {
	assert.Equal(t, "(no results found)", formatResults(nil))
}
