// Package seo scores article HTML for keyword coverage, readability,
// heading structure and schema markup.
package seo

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// Category weights; they sum to 100.
const (
	KeywordPoints     = 30
	ReadabilityPoints = 20
	StructurePoints   = 30
	SchemaPoints      = 20
)

// Readability bounds, in words per sentence.
const (
	minSentenceWords = 10
	maxSentenceWords = 25
	minSentenceChars = 5
)

// CalculateScore audits article HTML. Forbidden phrases are reported but do
// not change the score.
func CalculateScore(html string, keywords []string, rules types.SEORules) (types.AuditResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.AuditResult{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := types.AuditResult{
		Feedback:        []string{},
		MissingKeywords: []string{},
	}
	score := 0.0

	// Script text stays in: keywords inside the FAQ JSON-LD count as present.
	text := doc.Text()
	lowerText := strings.ToLower(text)

	// Keywords
	if len(keywords) == 0 {
		score += KeywordPoints
		result.Feedback = append(result.Feedback, "No target keywords provided for scoring.")
	} else {
		found := 0
		for _, kw := range keywords {
			if strings.Contains(lowerText, strings.ToLower(kw)) {
				found++
			} else {
				result.MissingKeywords = append(result.MissingKeywords, kw)
			}
		}
		score += KeywordPoints * float64(found) / float64(len(keywords))
		if len(result.MissingKeywords) > 0 {
			result.Feedback = append(result.Feedback, "Missing keywords: "+strings.Join(result.MissingKeywords, ", "))
		}
	}

	// Readability
	avg := averageSentenceLength(text)
	switch {
	case avg >= minSentenceWords && avg <= maxSentenceWords:
		score += ReadabilityPoints
	case avg < minSentenceWords:
		score += 15
		result.Feedback = append(result.Feedback, "Text might be too simple (short sentences).")
	default:
		score += 10
		result.Feedback = append(result.Feedback,
			fmt.Sprintf("Text is hard to read (Avg %d words/sentence). Aim for 15-20.", int(avg)))
	}
	result.ReadabilityScore = int(avg)

	// Structure
	if doc.Find("h1").Length() == 1 {
		score += 10
	} else {
		result.Feedback = append(result.Feedback, "Document must have exactly one H1 tag.")
	}
	if doc.Find("h2").Length() > 0 {
		score += 10
	} else {
		result.Feedback = append(result.Feedback, "Document lacks H2 headings.")
	}
	imgs := doc.Find("img")
	if imgs.Length() == 0 {
		result.Feedback = append(result.Feedback, "No images found.")
	} else {
		missingAlt := imgs.FilterFunction(func(_ int, s *goquery.Selection) bool {
			alt, _ := s.Attr("alt")
			return alt == ""
		}).Length()
		if missingAlt == 0 {
			score += 10
		} else {
			score += 5
			result.Feedback = append(result.Feedback, fmt.Sprintf("%d images missing alt text.", missingAlt))
		}
	}

	// Schema
	if strings.Contains(html, "application/ld+json") {
		score += SchemaPoints
	} else {
		result.Feedback = append(result.Feedback, "Missing Schema Markup (JSON-LD).")
	}

	if found := ForbiddenPhrases(text, rules.ForbiddenPhrases); len(found) > 0 {
		result.ForbiddenPhrases = found
		result.Feedback = append(result.Feedback, "Forbidden phrases found: "+strings.Join(found, ", "))
	}

	result.Score = int(score)
	return result, nil
}

// averageSentenceLength is total words over sentences, where a sentence is
// a '.', '!' or '?' delimited segment longer than five characters.
func averageSentenceLength(text string) float64 {
	normalized := strings.NewReplacer("!", ".", "?", ".").Replace(text)
	sentences := 0
	for _, segment := range strings.Split(normalized, ".") {
		if len([]rune(strings.TrimSpace(segment))) > minSentenceChars {
			sentences++
		}
	}
	if sentences == 0 {
		return 0
	}
	return float64(len(strings.Fields(text))) / float64(sentences)
}

// ForbiddenPhrases returns the phrases that occur in text, case-insensitively,
// each once and in the order given.
func ForbiddenPhrases(text string, phrases []string) []string {
	if len(phrases) == 0 {
		return nil
	}

	normalizedText := strings.ToLower(text)
	var found []string
	seen := make(map[string]bool)
	for _, phrase := range phrases {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" || seen[normalized] {
			continue
		}
		if strings.Contains(normalizedText, normalized) {
			found = append(found, phrase)
			seen[normalized] = true
		}
	}
	return found
}

// Grade buckets a score for display.
func Grade(score int) types.Grade {
	return types.GradeFor(score)
}
