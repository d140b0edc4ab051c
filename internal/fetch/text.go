package fetch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector matches page chrome that never carries article text.
const noiseSelector = "nav, footer, header, script, style, noscript, template, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// ExtractMainText parses HTML and returns the main body text.
// It removes noise elements, then finds content using contentSelectors,
// falling back to the body element.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	if extra := strings.Join(noiseSelectors, ", "); extra != "" {
		doc.Find(extra).Remove()
	}

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// DefaultTextSelectors returns standard selectors for general web content.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// BodyText returns the visible text of the body with whitespace collapsed,
// truncated to limit runes (no limit when limit <= 0).
func BodyText(html string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, template").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return Truncate(strings.Join(strings.Fields(body.Text()), " "), limit)
}

// Truncate cuts s to at most n runes. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// cleanWhitespace trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
