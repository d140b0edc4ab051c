package types

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidateRequest checks validate struct tags on an API request.
func ValidateRequest(req any) error {
	return validate.Struct(req)
}

// TopicsRequest asks for topic ideas in a niche.
type TopicsRequest struct {
	Niche   string `json:"niche" validate:"required"`
	Count   int    `json:"count,omitempty" validate:"gte=0,lte=50"`
	Context string `json:"context,omitempty"`
	Project string `json:"project,omitempty"` // adds existing pages as context
}

// KeywordsRequest asks for keyword ideas.
type KeywordsRequest struct {
	Topic string `json:"topic" validate:"required"`
	Count int    `json:"count,omitempty" validate:"gte=0,lte=100"`
}

// TopicRequest carries a single topic (SERP analysis, FAQ).
type TopicRequest struct {
	Topic string `json:"topic" validate:"required"`
}

// CompetitorsRequest lists competitor pages to outline.
type CompetitorsRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=20,dive,url"`
}

// TextRequest carries free text (entity extraction).
type TextRequest struct {
	Text string `json:"text" validate:"required"`
}

// RefineToVRequest asks to edit an existing tone-of-voice guide.
type RefineToVRequest struct {
	Project      string `json:"project,omitempty"`
	Current      string `json:"current,omitempty"`
	Instructions string `json:"instructions" validate:"required"`
}

// URLRequest carries a single page URL.
type URLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// CJMRequest asks for a customer journey map.
type CJMRequest struct {
	Name     string `json:"name" validate:"required"`
	Industry string `json:"industry" validate:"required"`
	Personas string `json:"personas" validate:"required"`
}

// OutlineRequest asks for an article outline.
type OutlineRequest struct {
	Project            string              `json:"project,omitempty"`
	Topic              string              `json:"topic" validate:"required"`
	Intent             string              `json:"intent,omitempty"`
	CompetitorOutlines []CompetitorOutline `json:"competitor_outlines,omitempty"`
	ToV                string              `json:"tov,omitempty"`
}

// WriteRequest asks for an article draft from an outline.
type WriteRequest struct {
	Project  string   `json:"project" validate:"required"`
	Outline  Outline  `json:"outline"`
	Keywords []string `json:"keywords,omitempty"`
	ToV      string   `json:"tov,omitempty"`
	Save     bool     `json:"save,omitempty"`
}

// RewriteRequest asks for a revision of a draft.
type RewriteRequest struct {
	Project  string `json:"project,omitempty"`
	Article  string `json:"article" validate:"required"`
	Feedback string `json:"feedback" validate:"required"`
	ToV      string `json:"tov,omitempty"`
	// ArticleID, when set, stores the rewrite on that article.
	ArticleID string `json:"article_id,omitempty" validate:"omitempty,uuid"`
}

// CodeRequest converts a Markdown draft into CMS-ready HTML.
type CodeRequest struct {
	Project  string    `json:"project" validate:"required"`
	Title    string    `json:"title,omitempty"`
	Markdown string    `json:"markdown" validate:"required"`
	FAQ      []FAQItem `json:"faq,omitempty"`
}

// CodeResponse is the publishable article.
type CodeResponse struct {
	HTML     string   `json:"html"`
	Metadata Metadata `json:"metadata"`
	Schema   string   `json:"schema,omitempty"`
}

// AuditRequest scores article HTML.
type AuditRequest struct {
	HTML             string   `json:"html" validate:"required"`
	Keywords         []string `json:"keywords,omitempty"`
	ForbiddenPhrases []string `json:"forbidden_phrases,omitempty"`
	// ArticleID, when set, records the audit and score on that article.
	ArticleID string `json:"article_id,omitempty" validate:"omitempty,uuid"`
}

// SitemapIngestRequest crawls a sitemap into a project's page index.
// SitemapURL defaults to the one in the project metadata.
type SitemapIngestRequest struct {
	Project    string `json:"project" validate:"required"`
	SitemapURL string `json:"sitemap_url,omitempty" validate:"omitempty,url"`
	MaxPages   int    `json:"max_pages,omitempty" validate:"gte=0,lte=1000"`
}

// SitemapIngestResponse reports what was indexed.
type SitemapIngestResponse struct {
	Pages   []Page `json:"pages"`
	Indexed int    `json:"indexed"`
}
