package strategist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/schemas"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// Defaults for optional brand brief fields.
const (
	DefaultEmotionalTone  = "Neutral"
	DefaultFormalityLevel = "Neutral"
	notSpecified          = "not specified"

	competitorTextLimit = 10000
	competitorPromptCap = 5000
)

// ErrEmptyContent is returned when a competitor site yields no text.
var ErrEmptyContent = errors.New("empty content")

// GenerateToV writes a Markdown tone-of-voice guide for a brand.
func (s *Strategist) GenerateToV(ctx context.Context, brief types.BrandBrief) (string, error) {
	if err := types.ValidateRequest(brief); err != nil {
		return "", fmt.Errorf("invalid brand brief: %w", err)
	}

	var contextBlock strings.Builder
	if brief.URL != "" {
		text, err := s.siteText(ctx, brief.URL, siteTextLimit)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logging.Component("strategist").Warn().Err(err).Str("url", brief.URL).Msg("brand site scrape failed")
			contextBlock.WriteString("Could not scrape website. ")
		} else {
			fmt.Fprintf(&contextBlock, "Website content:\n%s\n\n", text)
		}
	}

	docs := brief.Documents
	if len(docs) > maxDocuments {
		docs = docs[:maxDocuments]
	}
	if len(docs) > 0 {
		contextBlock.WriteString("\n\nAdditional brand materials:\n")
		for _, doc := range docs {
			fmt.Fprintf(&contextBlock, "\n--- %s ---\n%s\n", doc.Name, fetch.Truncate(doc.Text, documentLimit))
		}
	}

	return s.generateMarkdown(ctx, "tov", map[string]string{
		"BrandName":      brief.Name,
		"Industry":       brief.Industry,
		"EmotionalTone":  orDefault(brief.EmotionalTone, DefaultEmotionalTone),
		"FormalityLevel": orDefault(brief.FormalityLevel, DefaultFormalityLevel),
		"UniqueTrait":    orDefault(brief.UniqueTrait, notSpecified),
		"Context":        contextBlock.String(),
	})
}

// RefineToV applies free-form instructions to an existing guide.
func (s *Strategist) RefineToV(ctx context.Context, current, instructions string) (string, error) {
	return s.generateMarkdown(ctx, "tov-refine", map[string]string{
		"Current":      current,
		"Instructions": instructions,
	})
}

// BusinessType maps a business model selection to its prompt wording.
func BusinessType(model string) string {
	hasB2B := strings.Contains(model, "B2B")
	switch {
	case hasB2B && strings.Contains(model, "B2C"):
		return "B2B and B2C"
	case hasB2B:
		return "B2B (business to business)"
	default:
		return "B2C (business to consumer)"
	}
}

// GenerateAudience writes Markdown customer personas.
func (s *Strategist) GenerateAudience(ctx context.Context, brief types.AudienceBrief) (string, error) {
	if err := types.ValidateRequest(brief); err != nil {
		return "", fmt.Errorf("invalid audience brief: %w", err)
	}
	personas := brief.Personas
	if personas <= 0 {
		personas = DefaultPersonas
	}

	contextBlock := ""
	if brief.URL != "" {
		text, err := s.siteText(ctx, brief.URL, siteTextLimit)
		switch {
		case err == nil:
			contextBlock = fmt.Sprintf("Website content:\n%s\n\n", text)
		case ctx.Err() != nil:
			return "", ctx.Err()
		default:
			logging.Component("strategist").Warn().Err(err).Str("url", brief.URL).Msg("audience site scrape failed")
		}
	}

	return s.generateMarkdown(ctx, "audience", map[string]string{
		"Count":        strconv.Itoa(personas),
		"BrandName":    brief.Name,
		"Industry":     brief.Industry,
		"BusinessType": BusinessType(brief.BusinessModel),
		"Context":      contextBlock,
	})
}

// GenerateCJM builds a Markdown customer journey map table from personas.
func (s *Strategist) GenerateCJM(ctx context.Context, name, industry, personas string) (string, error) {
	truncated := fetch.Truncate(personas, personasLimit)
	if truncated != personas {
		truncated += "... (truncated)"
	}
	return s.generateMarkdown(ctx, "cjm", map[string]string{
		"BrandName": name,
		"Industry":  industry,
		"Personas":  truncated,
	})
}

// AnalyzeCompetitorToV classifies the tone of voice of a competitor site.
// Unusable model output yields the undetermined profile.
func (s *Strategist) AnalyzeCompetitorToV(ctx context.Context, url string) (types.ToVProfile, error) {
	text, err := s.siteText(ctx, url, competitorTextLimit)
	if err != nil {
		if ctx.Err() != nil {
			return types.ToVProfile{}, ctx.Err()
		}
		return types.ToVProfile{}, fmt.Errorf("could not scrape website: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return types.ToVProfile{}, ErrEmptyContent
	}

	prompt := llm.BuildExtractionPrompt(llm.CompetitorToVSchema(s.language), fetch.Truncate(text, competitorPromptCap))
	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return types.ToVProfile{}, err
	}

	profile, err := decodeProfile(raw)
	if err != nil {
		logging.Component("strategist").Warn().Err(err).Str("url", url).Msg("competitor ToV output unusable")
		return types.UndeterminedToVProfile(), nil
	}
	return profile, nil
}

func decodeProfile(raw string) (types.ToVProfile, error) {
	var profile types.ToVProfile
	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.ToVProfile, cleaned); err != nil {
		return profile, err
	}
	if err := llm.DecodeJSON(cleaned, &profile); err != nil {
		return profile, err
	}
	if profile.Values == nil {
		profile.Values = []string{}
	}
	return profile, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
