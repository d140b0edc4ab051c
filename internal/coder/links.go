package coder

import (
	"context"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/types"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MinLinkTitleLength is the title length (in characters) a page must exceed
// to be a link candidate.
const MinLinkTitleLength = 4

// PageSource lists the known pages of a brand site.
type PageSource interface {
	GetAllPages(ctx context.Context, brand string) ([]types.PageRef, error)
}

// noLinkParents are elements whose text is never linked.
var noLinkParents = map[string]bool{
	"a": true, "h1": true, "h2": true, "h3": true,
	"script": true, "style": true, "code": true, "pre": true,
}

// InjectInternalLinks links the first occurrence of known page titles in
// the article text. Longer titles are tried first, each URL is linked at
// most once and each text node receives at most one link. Source errors
// and empty sources leave the HTML unchanged.
func (c *Coder) InjectInternalLinks(ctx context.Context, fragment, brand string) (string, error) {
	if c.pages == nil {
		return fragment, nil
	}
	pages, err := c.pages.GetAllPages(ctx, brand)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logging.Component("coder").Warn().Err(err).Str("brand", brand).Msg("page source failed, skipping internal links")
		return fragment, nil
	}
	if len(pages) == 0 {
		return fragment, nil
	}

	root, err := parseFragment("inject-links", fragment)
	if err != nil {
		return "", err
	}
	injectLinks(root, linkCandidates(pages))
	return renderFragment("inject-links", root)
}

// linkCandidates keeps pages with long enough titles, longest first.
func linkCandidates(pages []types.PageRef) []types.PageRef {
	candidates := make([]types.PageRef, 0, len(pages))
	for _, p := range pages {
		if utf8.RuneCountInString(p.Title) > MinLinkTitleLength {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i].Title) > utf8.RuneCountInString(candidates[j].Title)
	})
	return candidates
}

// injectLinks is a single linear pass over the text nodes present before
// any splicing. Nodes created by a splice are not revisited.
func injectLinks(root *html.Node, candidates []types.PageRef) {
	linked := make(map[string]bool)

	for _, node := range textNodes(root) {
		if node.Data == "" || insideNoLink(node) {
			continue
		}
		text := []rune(node.Data)
		lower := lowerRunes(text)

		for _, page := range candidates {
			if linked[page.URL] {
				continue
			}
			title := lowerRunes([]rune(page.Title))
			start := indexRunes(lower, title)
			if start < 0 {
				continue
			}
			end := start + len(title)
			splice(node, string(text[:start]), string(text[start:end]), string(text[end:]), page)
			linked[page.URL] = true
			break
		}
	}
}

// splice replaces node with before, a link around match, and after.
func splice(node *html.Node, before, match, after string, page types.PageRef) {
	parent := node.Parent
	if before != "" {
		parent.InsertBefore(textNode(before), node)
	}
	link := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr: []html.Attribute{
			{Key: "href", Val: page.URL},
			{Key: "title", Val: page.Title},
		},
	}
	link.AppendChild(textNode(match))
	parent.InsertBefore(link, node)
	if after != "" {
		parent.InsertBefore(textNode(after), node)
	}
	parent.RemoveChild(node)
}

func textNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// insideNoLink reports whether any ancestor forbids links.
func insideNoLink(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && noLinkParents[p.Data] {
			return true
		}
	}
	return false
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 || len(sub) > len(s) {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
