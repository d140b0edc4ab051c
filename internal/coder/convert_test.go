package coder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleMarkdown = "## Choosing pots\n\nClay pots breathe.\n\n" +
	"<img src=\"placeholder.jpg\" alt=\"yeast\">\n\n" +
	"| Size | Price |\n|------|-------|\n| S | 10 |\n\n" +
	"<script>alert(1)</script>\n\n" +
	"<iframe src=\"https://video.example\"></iframe>\n"

func TestConvertToHTML_Plain(t *testing.T) {
	out, err := ConvertToHTML("## Heading\n\nSome **bold** text", "WordPress", "")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Heading</h2>")
	assert.Contains(t, out, "<p>Some <strong>bold</strong> text</p>")
}

func TestConvertToHTML_OpenCart(t *testing.T) {
	out, err := ConvertToHTML(articleMarkdown, "opencart", "")
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="img-responsive"><img src="placeholder.jpg" alt="yeast" class="img-responsive"/></div>`)
	assert.Contains(t, out, `<div class="table-responsive"><table class="table table-bordered table-hover">`)
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<iframe")
}

func TestConvertToHTML_NotOpenCartKeepsScripts(t *testing.T) {
	out, err := ConvertToHTML(articleMarkdown, "WordPress", "")
	require.NoError(t, err)
	assert.Contains(t, out, "<script>")
	assert.NotContains(t, out, "img-responsive")
}

func TestConvertToHTML_ReferenceTableClasses(t *testing.T) {
	ref := `<html><body><table class="ref-table striped"><tr><td>x</td></tr></table></body></html>`

	out, err := ConvertToHTML(articleMarkdown, "WordPress", ref)
	require.NoError(t, err)
	assert.Contains(t, out, `<table class="ref-table striped">`)

	out, err = ConvertToHTML(articleMarkdown, "OpenCart", ref)
	require.NoError(t, err)
	assert.Contains(t, out, `<table class="ref-table striped table table-bordered table-hover">`)
}

func TestConvertToHTML_ReferenceWithoutTableClasses(t *testing.T) {
	out, err := ConvertToHTML(articleMarkdown, "WordPress", "<table><tr><td>x</td></tr></table>")
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
}

func TestConvertToHTML_AlreadyWrapped(t *testing.T) {
	md := "<div class=\"img-responsive\"><img src=\"a.jpg\" alt=\"a\"></div>\n"

	out, err := ConvertToHTML(md, "OpenCart", "")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, `class="img-responsive"`))

	again, err := ConvertToHTML(out, "OpenCart", "")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(again, `<div class="img-responsive">`))
}

func TestValidateHTML(t *testing.T) {
	in := `<p>x</p><script>bad()</script><style>p{}</style><iframe src="v"></iframe>`

	out, err := ValidateHTML(in, "OpenCart")
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", out)

	out, err = ValidateHTML(in, "WordPress")
	require.NoError(t, err)
	assert.Equal(t, `<p>x</p><iframe src="v"></iframe>`, out)
}

func TestIsOpenCart(t *testing.T) {
	assert.True(t, IsOpenCart("OpenCart"))
	assert.True(t, IsOpenCart(" opencart "))
	assert.False(t, IsOpenCart("Shopify"))
}
