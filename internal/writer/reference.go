package writer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// ReferenceTags are the elements whose classes are read from a reference page.
var ReferenceTags = []string{"h1", "h2", "h3", "p", "ul", "ol", "table", "img"}

// AnalyzeReference collects the distinct CSS classes used by each reference
// tag. Every tag gets a key, sorted, possibly empty.
func AnalyzeReference(html string) (types.ReferencePatterns, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference HTML: %w", err)
	}

	patterns := make(types.ReferencePatterns, len(ReferenceTags))
	for _, tag := range ReferenceTags {
		seen := map[string]bool{}
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			class, _ := s.Attr("class")
			for _, c := range strings.Fields(class) {
				seen[c] = true
			}
		})

		classes := make([]string, 0, len(seen))
		for c := range seen {
			classes = append(classes, c)
		}
		sort.Strings(classes)
		patterns[tag+"_class"] = classes
	}
	return patterns, nil
}
