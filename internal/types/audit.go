package types

// AuditResult is the outcome of scoring an article's HTML.
type AuditResult struct {
	Score            int      `json:"score"`
	Feedback         []string `json:"feedback"`
	ReadabilityScore int      `json:"readability_score"`
	MissingKeywords  []string `json:"missing_keywords"`
	ForbiddenPhrases []string `json:"forbidden_phrases,omitempty"`
}

// SEORules are brand-specific checks applied on top of the score.
type SEORules struct {
	ForbiddenPhrases []string `json:"forbidden_phrases,omitempty"`
}

// Grade buckets a score for display.
type Grade string

// Grades
const (
	GradeGood    Grade = "good"
	GradeWarning Grade = "warning"
	GradePoor    Grade = "poor"
)

// GradeFor buckets score: 80 and above is good, 50 and above a warning.
func GradeFor(score int) Grade {
	switch {
	case score >= 80:
		return GradeGood
	case score >= 50:
		return GradeWarning
	default:
		return GradePoor
	}
}
