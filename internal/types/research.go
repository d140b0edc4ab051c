// Package types provides the data structures shared by the research, writing
// and publishing stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

// TopicIdea is a proposed article topic.
type TopicIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// KeywordType classifies a keyword by search volume and specificity.
type KeywordType string

// Keyword types
const (
	KeywordHead     KeywordType = "Head"
	KeywordLongTail KeywordType = "Long-tail"
	KeywordLSI      KeywordType = "LSI"
)

// Keyword is a target search phrase.
type Keyword struct {
	Keyword string      `json:"keyword"`
	Type    KeywordType `json:"type"`
}

// KeywordTexts returns the phrases of ks, skipping blanks.
func KeywordTexts(ks []Keyword) []string {
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		if k.Keyword != "" {
			out = append(out, k.Keyword)
		}
	}
	return out
}

// SearchResult is one organic search result.
type SearchResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SERPAnalysis summarizes a search results page for a topic.
type SERPAnalysis struct {
	Topic        string         `json:"topic"`
	Competitors  []SearchResult `json:"competitors"`
	Intent       string         `json:"intent"`
	SERPFeatures []string       `json:"serp_features"`
}

// URLs returns the competitor result URLs in rank order.
func (a *SERPAnalysis) URLs() []string {
	if a == nil {
		return nil
	}
	urls := make([]string, 0, len(a.Competitors))
	for _, c := range a.Competitors {
		urls = append(urls, c.URL)
	}
	return urls
}

// CompetitorOutline is the heading structure of a competitor page.
type CompetitorOutline struct {
	URL       string   `json:"url"`
	H1        string   `json:"h1"`
	Structure []string `json:"structure"`
}

// ToVProfile is a short tone-of-voice classification.
type ToVProfile struct {
	EmotionalTone  string   `json:"emotional_tone"`
	FormalityLevel string   `json:"formality_level"`
	UniqueTrait    string   `json:"unique_trait"`
	Values         []string `json:"values"`
}

// Undetermined is used for profile fields the model could not classify.
const Undetermined = "Undetermined"

// UndeterminedToVProfile is returned when the model output cannot be parsed.
func UndeterminedToVProfile() ToVProfile {
	return ToVProfile{
		EmotionalTone:  Undetermined,
		FormalityLevel: Undetermined,
		UniqueTrait:    Undetermined,
		Values:         []string{},
	}
}

// ReferenceDoc is brand material whose text has already been extracted.
type ReferenceDoc struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// BrandBrief is the input for tone-of-voice generation.
type BrandBrief struct {
	Name           string         `json:"name" validate:"required"`
	Industry       string         `json:"industry" validate:"required"`
	URL            string         `json:"url,omitempty" validate:"omitempty,url"`
	EmotionalTone  string         `json:"emotional_tone,omitempty"`
	FormalityLevel string         `json:"formality_level,omitempty"`
	UniqueTrait    string         `json:"unique_trait,omitempty"`
	Documents      []ReferenceDoc `json:"documents,omitempty" validate:"max=10"`
}

// AudienceBrief is the input for persona generation.
type AudienceBrief struct {
	Name          string `json:"name" validate:"required"`
	Industry      string `json:"industry" validate:"required"`
	URL           string `json:"url,omitempty" validate:"omitempty,url"`
	BusinessModel string `json:"business_model,omitempty"`
	Personas      int    `json:"personas,omitempty" validate:"gte=0,lte=5"`
}

// ResearchData collects what the outline step needs to know about a topic.
type ResearchData struct {
	Topic              string              `json:"topic"`
	Intent             string              `json:"intent,omitempty"`
	CompetitorOutlines []CompetitorOutline `json:"competitor_outlines,omitempty"`
}
