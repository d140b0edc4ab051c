// Package writer turns research into an outline and drafts or rewrites
// articles in Markdown.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/seo-content-machine/internal/competitors"
	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/llm"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/prompts"
	"github.com/jonathan/seo-content-machine/internal/schemas"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// DefaultIntent fills in research that carries no intent.
const DefaultIntent = "Informational"

// Writer drafts content with an LLM.
type Writer struct {
	client   llm.Client
	language string
}

// New creates a Writer. An empty language uses prompts.DefaultLanguage.
func New(client llm.Client, language string) *Writer {
	if language == "" {
		language = prompts.DefaultLanguage
	}
	return &Writer{client: client, language: language}
}

func (w *Writer) render(key string, data map[string]string) (string, error) {
	data["Language"] = w.language
	return prompts.Render(prompts.WriterFile, key, data)
}

// GenerateOutline plans an article from research data and the brand voice.
// Unusable model output yields types.FallbackOutline; only context errors
// are returned.
func (w *Writer) GenerateOutline(ctx context.Context, research types.ResearchData, tov string) (types.Outline, error) {
	intent := research.Intent
	if intent == "" {
		intent = DefaultIntent
	}

	prompt, err := w.render("outline", map[string]string{
		"Topic":       research.Topic,
		"Intent":      intent,
		"Competitors": competitors.Summary(research.CompetitorOutlines),
		"ToV":         tov,
	})
	if err != nil {
		return types.Outline{}, err
	}

	outline, err := w.outline(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return types.Outline{}, ctx.Err()
		}
		logging.Component("writer").Warn().Err(err).Str("topic", research.Topic).Msg("outline output unusable, using fallback")
		return types.FallbackOutline(research.Topic), nil
	}
	return outline, nil
}

func (w *Writer) outline(ctx context.Context, prompt string) (types.Outline, error) {
	var outline types.Outline

	text, err := w.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return outline, err
	}
	cleaned := llm.CleanJSONBlock(text)
	if err := schemas.Validate(schemas.Outline, cleaned); err != nil {
		return outline, err
	}
	if err := json.Unmarshal([]byte(cleaned), &outline); err != nil {
		return outline, fmt.Errorf("failed to parse outline: %w", err)
	}

	for i := range outline.Sections {
		if outline.Sections[i].Subheadings == nil {
			outline.Sections[i].Subheadings = []string{}
		}
	}
	if outline.FAQ == nil {
		outline.FAQ = []string{}
	}
	return outline, nil
}

// WriteArticle drafts the article body in Markdown.
func (w *Writer) WriteArticle(ctx context.Context, req types.ArticleRequest) (string, error) {
	outlineJSON, err := json.MarshalIndent(req.Outline, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode outline: %w", err)
	}

	links, err := linksInstruction(req.InternalLinks)
	if err != nil {
		return "", err
	}
	style, err := styleInstruction(req.ReferencePatterns)
	if err != nil {
		return "", err
	}

	prompt, err := w.render("article", map[string]string{
		"Outline":  string(outlineJSON),
		"ToV":      req.ToV,
		"Keywords": strings.Join(req.Keywords, ", "),
		"Links":    links,
		"Style":    style,
	})
	if err != nil {
		return "", err
	}
	return w.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
}

func linksInstruction(links []types.PageRef) (string, error) {
	if len(links) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, l := range links {
		fmt.Fprintf(&sb, "- %s: %s\n", l.Title, l.URL)
	}
	return prompts.Render(prompts.WriterFile, "internal-links", map[string]string{"Links": sb.String()})
}

func styleInstruction(p types.ReferencePatterns) (string, error) {
	if p.Empty() {
		return "", nil
	}
	h2Example := ""
	if h2 := p.Classes("h2"); len(h2) > 0 {
		h2Example = h2[0]
	}
	lists := append(append([]string{}, p.Classes("ul")...), p.Classes("ol")...)
	return prompts.Render(prompts.WriterFile, "style", map[string]string{
		"H2":        strings.Join(p.Classes("h2"), ", "),
		"H3":        strings.Join(p.Classes("h3"), ", "),
		"P":         strings.Join(p.Classes("p"), ", "),
		"Lists":     strings.Join(lists, ", "),
		"Table":     strings.Join(p.Classes("table"), ", "),
		"H2Example": h2Example,
	})
}

// RewriteArticle revises an article to address audit feedback.
func (w *Writer) RewriteArticle(ctx context.Context, article, feedback, tov string) (string, error) {
	prompt, err := w.render("rewrite", map[string]string{
		"Article":  article,
		"Feedback": feedback,
		"ToV":      tov,
	})
	if err != nil {
		return "", err
	}
	return w.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
}

// AuditFeedback turns an audit into rewrite instructions.
func AuditFeedback(audit types.AuditResult) string {
	return fmt.Sprintf("Fix these issues:\n%s\n\nInclude missing keywords:\n%s",
		strings.Join(audit.Feedback, "\n"),
		strings.Join(audit.MissingKeywords, ", "))
}

// ArchiveName is the file name an article is archived under:
// "<YYYYmmdd_HHMMSS>_<topic slug>.md".
func ArchiveName(topic string, t time.Time) string {
	slug := strings.ReplaceAll(strings.TrimSpace(topic), " ", "_")
	if slug == "" {
		slug = "article"
	}
	return fmt.Sprintf("%s_%s.md", t.Format("20060102_150405"), fetch.Truncate(slug, 50))
}
