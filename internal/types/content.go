package types

import "time"

// Outline is the planned structure of an article.
type Outline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
	FAQ      []string         `json:"faq"`
}

// OutlineSection is one H2 block of an outline.
type OutlineSection struct {
	Heading     string   `json:"heading"`
	Subheadings []string `json:"subheadings"`
	Notes       string   `json:"notes"`
}

// FallbackOutline is used when the model output is unusable.
func FallbackOutline(topic string) Outline {
	return Outline{
		Title: "Guide to " + topic,
		Sections: []OutlineSection{
			{Heading: "Introduction", Subheadings: []string{}, Notes: "Intro"},
		},
		FAQ: []string{},
	}
}

// ReferencePatterns maps "<tag>_class" to the CSS classes a reference page uses.
type ReferencePatterns map[string][]string

// Classes returns the classes recorded for tag.
func (p ReferencePatterns) Classes(tag string) []string {
	return p[tag+"_class"]
}

// Empty reports whether no classes were found.
func (p ReferencePatterns) Empty() bool {
	for _, v := range p {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// PageRef points at an existing page on the brand's site.
type PageRef struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Page is a crawled sitemap page.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	H1    string `json:"h1"`
}

// ArticleRequest is everything the writer needs to draft an article.
type ArticleRequest struct {
	Outline           Outline           `json:"outline"`
	ToV               string            `json:"tov"`
	Keywords          []string          `json:"keywords"`
	ReferencePatterns ReferencePatterns `json:"reference_patterns,omitempty"`
	InternalLinks     []PageRef         `json:"internal_links,omitempty"`
}

// FAQItem is a question with an optional answer.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// FAQItems wraps bare questions.
func FAQItems(questions []string) []FAQItem {
	items := make([]FAQItem, 0, len(questions))
	for _, q := range questions {
		items = append(items, FAQItem{Question: q})
	}
	return items
}

// Metadata is the page-level SEO metadata of an article.
type Metadata struct {
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	OGTitle         string `json:"og_title"`
}

// ProjectMeta is stored as config.json in a brand workspace.
type ProjectMeta struct {
	BrandName  string    `json:"brand_name" validate:"required"`
	Industry   string    `json:"industry,omitempty"`
	URL        string    `json:"url,omitempty" validate:"omitempty,url"`
	SitemapURL string    `json:"sitemap_url,omitempty" validate:"omitempty,url"`
	CMS        string    `json:"cms,omitempty"`
	Language   string    `json:"language,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
