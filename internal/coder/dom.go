package coder

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseFragment parses an HTML fragment into the children of a detached
// <body> node, which serves as the fragment root.
func parseFragment(op, fragment string) (*html.Node, error) {
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil, &Error{Op: op, Message: "failed to parse HTML", Cause: err}
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// renderFragment serialises the children of root.
func renderFragment(op string, root *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", &Error{Op: op, Message: "failed to render HTML", Cause: err}
		}
	}
	return buf.String(), nil
}

// findAll returns the elements named by tags in document order. Collect
// first, mutate after.
func findAll(root *html.Node, tags ...string) []*html.Node {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && want[c.Data] {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func removeAll(root *html.Node, tags ...string) {
	for _, n := range findAll(root, tags...) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// addClasses appends classes the element does not already carry.
func addClasses(n *html.Node, classes ...string) {
	current := strings.Fields(attr(n, "class"))
	for _, c := range classes {
		if !hasClass(n, c) {
			current = append(current, c)
		}
	}
	setAttr(n, "class", strings.Join(current, " "))
}

// wrappedIn reports whether n's parent is a div carrying class.
func wrappedIn(n *html.Node, class string) bool {
	p := n.Parent
	return p != nil && p.Type == html.ElementNode && p.Data == "div" && hasClass(p, class)
}

func wrapInDiv(n *html.Node, class string) {
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
	n.Parent.InsertBefore(div, n)
	n.Parent.RemoveChild(n)
	div.AppendChild(n)
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
