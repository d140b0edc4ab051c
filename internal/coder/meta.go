package coder

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// MetaDescriptionLength is the number of characters kept in descriptions.
const MetaDescriptionLength = 150

// PlaceholderAnswer stands in for FAQ answers that were not written.
const PlaceholderAnswer = "Answer to be generated..."

// GenerateMetadata derives page metadata from the title and article text.
func GenerateMetadata(title, content string) types.Metadata {
	text := strings.Join(strings.Fields(content), " ")
	return types.Metadata{
		MetaTitle:       title,
		MetaDescription: fetch.Truncate(text, MetaDescriptionLength) + "...",
		OGTitle:         title,
	}
}

type faqPage struct {
	Context    string        `json:"@context"`
	Type       string        `json:"@type"`
	MainEntity []faqQuestion `json:"mainEntity"`
}

type faqQuestion struct {
	Type           string    `json:"@type"`
	Name           string    `json:"name"`
	AcceptedAnswer faqAnswer `json:"acceptedAnswer"`
}

type faqAnswer struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

// GenerateSchema builds FAQPage JSON-LD, or "" when there are no questions.
func GenerateSchema(faq []types.FAQItem) (string, error) {
	if len(faq) == 0 {
		return "", nil
	}

	page := faqPage{
		Context:    "https://schema.org",
		Type:       "FAQPage",
		MainEntity: make([]faqQuestion, 0, len(faq)),
	}
	for _, item := range faq {
		answer := item.Answer
		if strings.TrimSpace(answer) == "" {
			answer = PlaceholderAnswer
		}
		page.MainEntity = append(page.MainEntity, faqQuestion{
			Type:           "Question",
			Name:           item.Question,
			AcceptedAnswer: faqAnswer{Type: "Answer", Text: answer},
		})
	}

	out, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return "", &Error{Op: "schema", Message: "failed to encode FAQ schema", Cause: err}
	}
	return string(out), nil
}

// EmbedSchema appends JSON-LD to the HTML in a script block.
func EmbedSchema(fragment, schema string) string {
	if schema == "" {
		return fragment
	}
	return fragment + "\n<script type=\"application/ld+json\">\n" + schema + "\n</script>\n"
}
