package writer

import (
	"context"
	"testing"
	"time"

	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outlineClient(response string) *llm.MockClient {
	return &llm.MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return response, nil
		},
	}
}

func TestGenerateOutline(t *testing.T) {
	client := outlineClient(`{"title": "Clay Pots 101", "sections": [{"heading": "Why clay", "notes": "breathability"}]}`)
	w := New(client, "English")

	research := types.ResearchData{
		Topic:  "clay pots",
		Intent: "Commercial",
		CompetitorOutlines: []types.CompetitorOutline{
			{H1: "Best pots", Structure: []string{"H2: Clay", "H2: Plastic", "H3: Price", "H2: Care"}},
		},
	}
	outline, err := w.GenerateOutline(context.Background(), research, "Friendly voice")
	require.NoError(t, err)
	assert.Equal(t, "Clay Pots 101", outline.Title)
	require.Len(t, outline.Sections, 1)
	assert.Equal(t, []string{}, outline.Sections[0].Subheadings)
	assert.Equal(t, []string{}, outline.FAQ)

	prompt := client.LastPrompt()
	assert.Contains(t, prompt, `an article about "clay pots"`)
	assert.Contains(t, prompt, "- Intent: Commercial")
	assert.Contains(t, prompt, "- Best pots: H2: Clay, H2: Plastic, H3: Price...")
	assert.Contains(t, prompt, "Friendly voice")
	assert.Contains(t, prompt, "Write in English")
}

func TestGenerateOutline_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "Here is your outline: Intro, Body"},
		{"no sections", `{"title": "T", "sections": []}`},
		{"missing title", `{"sections": [{"heading": "A"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(outlineClient(tt.response), "")
			outline, err := w.GenerateOutline(context.Background(), types.ResearchData{Topic: "clay pots"}, "")
			require.NoError(t, err)
			assert.Equal(t, types.FallbackOutline("clay pots"), outline)
		})
	}
}

func TestGenerateOutline_DefaultIntent(t *testing.T) {
	client := outlineClient(`{}`)
	_, err := New(client, "").GenerateOutline(context.Background(), types.ResearchData{Topic: "x"}, "")
	require.NoError(t, err)
	assert.Contains(t, client.LastPrompt(), "- Intent: Informational")
}

func TestWriteArticle(t *testing.T) {
	client := &llm.MockClient{
		GenerateContentFunc: func(_ context.Context, _ string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierAdvanced, tier)
			return "## Intro\n\nText", nil
		},
	}
	w := New(client, "")

	req := types.ArticleRequest{
		Outline:  types.Outline{Title: "Clay Pots 101", Sections: []types.OutlineSection{{Heading: "Why clay"}}},
		ToV:      "Friendly",
		Keywords: []string{"clay pots", "terracotta"},
		ReferencePatterns: types.ReferencePatterns{
			"h2_class": {"title-lg"},
			"ul_class": {"list"},
			"ol_class": {"steps"},
		},
		InternalLinks: []types.PageRef{{URL: "https://shop.example/pots", Title: "Pots"}},
	}
	md, err := w.WriteArticle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "## Intro\n\nText", md)

	prompt := client.LastPrompt()
	assert.Contains(t, prompt, `"title": "Clay Pots 101"`)
	assert.Contains(t, prompt, "clay pots, terracotta")
	assert.Contains(t, prompt, "INTERNAL LINKING")
	assert.Contains(t, prompt, "- Pots: https://shop.example/pots")
	assert.Contains(t, prompt, "- List classes: list, steps")
	assert.Contains(t, prompt, `<h2 class="title-lg">Heading</h2>`)
	assert.Contains(t, prompt, `<img src="placeholder.jpg"`)
}

func TestWriteArticle_OptionalSectionsOmitted(t *testing.T) {
	client := &llm.MockClient{}
	_, err := New(client, "").WriteArticle(context.Background(), types.ArticleRequest{
		Outline:           types.FallbackOutline("x"),
		ReferencePatterns: types.ReferencePatterns{"h2_class": {}},
	})
	require.NoError(t, err)

	prompt := client.LastPrompt()
	assert.NotContains(t, prompt, "INTERNAL LINKING")
	assert.NotContains(t, prompt, "CSS CLASSES")
	assert.NotContains(t, prompt, "{{.")
}

func TestRewriteArticle(t *testing.T) {
	client := &llm.MockClient{
		GenerateContentFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "rewritten", nil
		},
	}
	out, err := New(client, "").RewriteArticle(context.Background(), "draft", "Fix these issues", "Friendly")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", out)
	assert.Contains(t, client.LastPrompt(), "draft")
	assert.Contains(t, client.LastPrompt(), "Fix these issues")
}

func TestAuditFeedback(t *testing.T) {
	audit := types.AuditResult{
		Feedback:        []string{"Missing H1 tag.", "No images found."},
		MissingKeywords: []string{"clay", "pots"},
	}
	assert.Equal(t,
		"Fix these issues:\nMissing H1 tag.\nNo images found.\n\nInclude missing keywords:\nclay, pots",
		AuditFeedback(audit))
}

func TestArchiveName(t *testing.T) {
	ts := time.Date(2026, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "20260305_140709_clay_pots_guide.md", ArchiveName("clay pots guide", ts))
	assert.Equal(t, "20260305_140709_article.md", ArchiveName("  ", ts))

	long := ArchiveName("глиняні горщики для кімнатних рослин та садових квітів на балконі", ts)
	assert.Equal(t, 16+50+3, len([]rune(long)))
}
