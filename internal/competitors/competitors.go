// Package competitors extracts the heading structure of competitor pages.
package competitors

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/types"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of pages fetched concurrently.
const DefaultWorkers = 4

// MaxHeadings caps the headings kept per page.
const MaxHeadings = 10

// Placeholders used in outlines.
const (
	NoH1          = "No H1"
	ErrorScraping = "Error scraping"
)

// Analyzer builds competitor outlines from pages fetched through a Fetcher.
type Analyzer struct {
	fetcher fetch.Fetcher
	workers int
}

// NewAnalyzer returns an Analyzer. workers <= 0 uses DefaultWorkers.
func NewAnalyzer(fetcher fetch.Fetcher, workers int) *Analyzer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Analyzer{fetcher: fetcher, workers: workers}
}

// AnalyzeCompetitors returns one outline per URL, in input order. A URL that
// cannot be fetched yields an error entry instead of failing the batch.
func (a *Analyzer) AnalyzeCompetitors(ctx context.Context, urls []string) []types.CompetitorOutline {
	outlines := make([]types.CompetitorOutline, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, u := range urls {
		g.Go(func() error {
			outlines[i] = a.analyze(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return outlines
}

func (a *Analyzer) analyze(ctx context.Context, url string) types.CompetitorOutline {
	result, err := a.fetcher.Fetch(ctx, url)
	// Error pages from the HTTP tier still carry headings worth reading.
	if err != nil && (result == nil || strings.TrimSpace(result.HTML) == "") {
		logging.Component("competitors").Warn().Err(err).Str("url", url).Msg("competitor scrape failed")
		return errorOutline(url, err)
	}

	outline, parseErr := ParseOutline(url, result.HTML)
	if parseErr != nil {
		return errorOutline(url, parseErr)
	}
	return outline
}

func errorOutline(url string, err error) types.CompetitorOutline {
	return types.CompetitorOutline{
		URL:       url,
		H1:        ErrorScraping,
		Structure: []string{fmt.Sprintf("Error: %v", err)},
	}
}

// ParseOutline reads the first H1 and up to MaxHeadings H2/H3 headings,
// formatted as "H2: text" or "H3: text".
func ParseOutline(url, html string) (types.CompetitorOutline, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.CompetitorOutline{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	outline := types.CompetitorOutline{URL: url, H1: NoH1, Structure: []string{}}
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		outline.H1 = headingText(h1)
	}

	doc.Find("h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(outline.Structure) >= MaxHeadings {
			return false
		}
		outline.Structure = append(outline.Structure,
			fmt.Sprintf("%s: %s", strings.ToUpper(goquery.NodeName(s)), headingText(s)))
		return true
	})

	return outline, nil
}

func headingText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// Summary renders outlines as "- <h1>: <first three headings>..." lines.
func Summary(outlines []types.CompetitorOutline) string {
	var sb strings.Builder
	for _, o := range outlines {
		first := o.Structure
		if len(first) > 3 {
			first = first[:3]
		}
		fmt.Fprintf(&sb, "- %s: %s...\n", o.H1, strings.Join(first, ", "))
	}
	return sb.String()
}
