// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/seo-content-machine/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// more writes the "... and N more" trailer when items were hidden.
func more(sb *strings.Builder, total, shown int, noun string) {
	if total > shown {
		fmt.Fprintf(sb, "  ... and %d more %s\n", total-shown, noun)
	}
}

// PrintSERP outputs the search intent and the top ranking pages.
func (p *Printer) PrintSERP(analysis *types.SERPAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic:    %s\n", analysis.Topic)
	fmt.Fprintf(&sb, "Intent:   %s\n", analysis.Intent)
	if len(analysis.SERPFeatures) > 0 {
		fmt.Fprintf(&sb, "Features: %s\n", strings.Join(analysis.SERPFeatures, ", "))
	}

	if len(analysis.Competitors) > 0 {
		sb.WriteString("\nTop results:\n")
		count := min(len(analysis.Competitors), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := analysis.Competitors[i]
			title := c.Title
			if title == "" {
				title = c.URL
			}
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, title)
		}
		more(&sb, len(analysis.Competitors), count, "results")
	}

	p.printBox("SERP ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompetitors outputs how many headings each competitor page uses.
func (p *Printer) PrintCompetitors(outlines []types.CompetitorOutline) {
	if len(outlines) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d competitor pages:\n\n", len(outlines))

	count := min(len(outlines), maxItemsToShow)
	for i := 0; i < count; i++ {
		o := outlines[i]
		h1 := o.H1
		if h1 == "" {
			h1 = "(no H1)"
		}
		fmt.Fprintf(&sb, "• %s\n", h1)
		fmt.Fprintf(&sb, "  %d headings, %s\n", len(o.Structure), o.URL)
	}
	more(&sb, len(outlines), count, "pages")

	p.printBox("COMPETITOR OUTLINES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutline outputs the planned article structure.
func (p *Printer) PrintOutline(outline types.Outline) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", outline.Title)

	for _, section := range outline.Sections {
		fmt.Fprintf(&sb, "H2 %s\n", section.Heading)
		count := min(len(section.Subheadings), 3)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "   H3 %s\n", section.Subheadings[i])
		}
		more(&sb, len(section.Subheadings), count, "subheadings")
	}

	if len(outline.FAQ) > 0 {
		fmt.Fprintf(&sb, "\nFAQ: %d questions\n", len(outline.FAQ))
	}

	p.printBox("ARTICLE OUTLINE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAudit outputs the SEO score with its feedback.
func (p *Printer) PrintAudit(audit types.AuditResult) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score:       %d/100 (%s)\n", audit.Score, types.GradeFor(audit.Score))
	fmt.Fprintf(&sb, "Readability: %d\n", audit.ReadabilityScore)

	if len(audit.MissingKeywords) > 0 {
		fmt.Fprintf(&sb, "Missing:     %s\n", strings.Join(audit.MissingKeywords, ", "))
	}
	if len(audit.ForbiddenPhrases) > 0 {
		fmt.Fprintf(&sb, "Forbidden:   %s\n", strings.Join(audit.ForbiddenPhrases, ", "))
	}

	if len(audit.Feedback) == 0 {
		sb.WriteString("\n✅ No issues found\n")
	} else {
		sb.WriteString("\n")
		for _, f := range audit.Feedback {
			fmt.Fprintf(&sb, "⚠ %s\n", f)
		}
	}

	p.printBox("SEO AUDIT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs every stage of a finished pipeline run.
func (p *Printer) PrintResult(serp *types.SERPAnalysis, competitors []types.CompetitorOutline, outline types.Outline, audit types.AuditResult) {
	p.PrintSERP(serp)
	p.PrintCompetitors(competitors)
	p.PrintOutline(outline)
	p.PrintAudit(audit)
}
