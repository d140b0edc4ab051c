package sitemap

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Document is a parsed sitemap: either a <urlset> of pages or a
// <sitemapindex> pointing at further sitemaps.
type Document struct {
	Pages    []string
	Sitemaps []string
}

// IsIndex reports whether the document is a sitemap index.
func (d *Document) IsIndex() bool {
	return len(d.Sitemaps) > 0
}

type location struct {
	Loc string `xml:"loc"`
}

type document struct {
	XMLName  xml.Name
	URLs     []location `xml:"url"`
	Sitemaps []location `xml:"sitemap"`
}

// Parse reads a sitemap document. Element names are matched without regard to
// namespace; blank locations are dropped.
func Parse(data []byte) (*Document, error) {
	var raw document
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}

	doc := &Document{}
	switch raw.XMLName.Local {
	case "urlset":
		doc.Pages = locations(raw.URLs)
	case "sitemapindex":
		doc.Sitemaps = locations(raw.Sitemaps)
	default:
		return nil, &Error{Message: "unexpected root element <" + raw.XMLName.Local + ">"}
	}
	return doc, nil
}

func locations(entries []location) []string {
	locs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs
}
