// Package strategist plans content: topic ideas, keywords, tone of voice,
// audience personas and customer journey maps.
package strategist

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/prompts"
	"github.com/jonathan/seo-content-machine/internal/schemas"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// Defaults and input limits, in runes.
const (
	DefaultTopicCount   = 10
	DefaultKeywordCount = 20
	DefaultPersonas     = 2

	topicContextLimit = 5000
	pageContextLimit  = 2000
	entityTextLimit   = 2000
	siteTextLimit     = 5000
	documentLimit     = 5000
	maxDocuments      = 3
	personasLimit     = 3000
)

// Strategist runs the planning operations against an LLM. Site text for
// tone-of-voice and audience work is read through the fetcher.
type Strategist struct {
	client   llm.Client
	fetcher  fetch.Fetcher
	language string
}

// New creates a Strategist. fetcher may be nil when no URLs will be given.
func New(client llm.Client, fetcher fetch.Fetcher, language string) *Strategist {
	if language == "" {
		language = prompts.DefaultLanguage
	}
	return &Strategist{client: client, fetcher: fetcher, language: language}
}

// Language is the output language of generated content.
func (s *Strategist) Language() string {
	return s.language
}

func (s *Strategist) render(key string, data map[string]string) (string, error) {
	data["Language"] = s.language
	return prompts.Render(prompts.StrategistFile, key, data)
}

// generateJSON renders a prompt, asks for JSON and decodes it into v,
// validating against schemaName first when it is set.
func (s *Strategist) generateJSON(ctx context.Context, key string, data map[string]string, tier llm.ModelTier, schemaName string, v any) error {
	prompt, err := s.render(key, data)
	if err != nil {
		return err
	}
	text, err := s.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return err
	}
	cleaned := llm.CleanJSONBlock(text)
	if schemaName != "" {
		if err := schemas.Validate(schemaName, cleaned); err != nil {
			return err
		}
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", key, err)
	}
	return nil
}

// generateMarkdown renders a prompt and returns the model's Markdown. A
// failed call comes back as "Error: ..." text for the caller to show;
// only prompt and context errors are returned as errors.
func (s *Strategist) generateMarkdown(ctx context.Context, key string, data map[string]string) (string, error) {
	prompt, err := s.render(key, data)
	if err != nil {
		return "", err
	}
	text := llm.GenerateWithFallback(ctx, s.client, prompt, llm.TierStandard, "")
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// fallback logs err and reports whether the caller should use its fallback.
// Context errors are not recoverable.
func fallback(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logging.Component("strategist").Warn().Err(err).Str("op", op).Msg("LLM output unusable, using fallback")
	return nil
}

// siteText fetches the visible text of url, cut to limit runes.
func (s *Strategist) siteText(ctx context.Context, url string, limit int) (string, error) {
	if s.fetcher == nil {
		return "", fmt.Errorf("no fetcher configured")
	}
	result, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	text := result.Text
	if text == "" {
		text = fetch.BodyText(result.HTML, 0)
	}
	return fetch.Truncate(text, limit), nil
}

// GenerateTopicIdeas proposes n article topics for a niche. contextData
// (competitor headings, existing pages) is optional.
func (s *Strategist) GenerateTopicIdeas(ctx context.Context, niche string, n int, contextData string) ([]types.TopicIdea, error) {
	if n <= 0 {
		n = DefaultTopicCount
	}
	contextBlock := ""
	if contextData != "" {
		contextBlock = "Based on the following competitor/existing content analysis:\n" +
			fetch.Truncate(contextData, topicContextLimit) + "\n"
	}

	var ideas []types.TopicIdea
	err := s.generateJSON(ctx, "topic-ideas", map[string]string{
		"Count":   strconv.Itoa(n),
		"Niche":   niche,
		"Context": contextBlock,
	}, llm.TierStandard, schemas.Topics, &ideas)
	if err != nil {
		if ctxErr := fallback(ctx, "topic-ideas", err); ctxErr != nil {
			return nil, ctxErr
		}
		ideas = make([]types.TopicIdea, n)
		for i := range ideas {
			ideas[i] = types.TopicIdea{
				Title:       fmt.Sprintf("Topic %d for %s", i+1, niche),
				Description: "Description unavailable",
			}
		}
	}
	return ideas, nil
}

// BuildTopicContext lists existing site pages so topic generation avoids them.
func BuildTopicContext(pages []types.Page) string {
	if len(pages) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&sb, "%s | %s | %s\n", p.URL, p.Title, p.H1)
	}
	return "Existing pages on site (DO NOT DUPLICATE):\n" + fetch.Truncate(sb.String(), pageContextLimit) + "\n"
}

// GenerateKeywords returns n keywords for topic, or the topic itself as a
// head term when the model output is unusable.
func (s *Strategist) GenerateKeywords(ctx context.Context, topic string, n int) ([]types.Keyword, error) {
	if n <= 0 {
		n = DefaultKeywordCount
	}
	var keywords []types.Keyword
	err := s.generateJSON(ctx, "keywords", map[string]string{
		"Count": strconv.Itoa(n),
		"Topic": topic,
	}, llm.TierStandard, schemas.Keywords, &keywords)
	if err != nil {
		if ctxErr := fallback(ctx, "keywords", err); ctxErr != nil {
			return nil, ctxErr
		}
		return []types.Keyword{{Keyword: topic, Type: types.KeywordHead}}, nil
	}
	return keywords, nil
}

// ExtractEntities lists products, brands and technical terms found in text.
func (s *Strategist) ExtractEntities(ctx context.Context, text string) ([]string, error) {
	var entities []string
	err := s.generateJSON(ctx, "entities", map[string]string{
		"Text": fetch.Truncate(text, entityTextLimit),
	}, llm.TierLite, "", &entities)
	if err != nil {
		if ctxErr := fallback(ctx, "entities", err); ctxErr != nil {
			return nil, ctxErr
		}
		return []string{}, nil
	}
	return entities, nil
}

// SuggestFAQ proposes five questions searchers ask about topic.
func (s *Strategist) SuggestFAQ(ctx context.Context, topic string) ([]string, error) {
	var questions []string
	err := s.generateJSON(ctx, "faq", map[string]string{"Topic": topic}, llm.TierLite, "", &questions)
	if err != nil {
		if ctxErr := fallback(ctx, "faq", err); ctxErr != nil {
			return nil, ctxErr
		}
		return []string{
			fmt.Sprintf("What is %s?", topic),
			fmt.Sprintf("How to use %s?", topic),
		}, nil
	}
	return questions, nil
}
