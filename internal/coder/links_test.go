package coder

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPages struct {
	pages []types.PageRef
	err   error
}

func (s staticPages) GetAllPages(_ context.Context, _ string) ([]types.PageRef, error) {
	return s.pages, s.err
}

var shopPages = []types.PageRef{
	{URL: "/pots", Title: "Clay pots"},
	{URL: "/clay-pots-large", Title: "Large clay pots"},
	{URL: "/soil", Title: "Soil"},
	{URL: "/care", Title: "Plant care"},
}

func TestInjectInternalLinks(t *testing.T) {
	c := New(staticPages{pages: shopPages}, "")
	in := `<h2>Clay pots</h2><p>Our large clay pots are great. Clay pots breathe.</p>` +
		`<p>See plant care tips and clay pots.</p><a href="/x">Plant care</a>`

	out, err := c.InjectInternalLinks(context.Background(), in, "shop")
	require.NoError(t, err)

	want := `<h2>Clay pots</h2><p>Our <a href="/clay-pots-large" title="Large clay pots">large clay pots</a> are great. Clay pots breathe.</p>` +
		`<p>See <a href="/care" title="Plant care">plant care</a> tips and clay pots.</p><a href="/x">Plant care</a>`
	assert.Equal(t, want, out)
}

func TestInjectInternalLinks_EachURLOnce(t *testing.T) {
	c := New(staticPages{pages: []types.PageRef{{URL: "/pots", Title: "Clay pots"}}}, "")
	in := `<p>Clay pots one.</p><p>Clay pots two.</p>`

	out, err := c.InjectInternalLinks(context.Background(), in, "shop")
	require.NoError(t, err)
	assert.Equal(t, `<p><a href="/pots" title="Clay pots">Clay pots</a> one.</p><p>Clay pots two.</p>`, out)
}

func TestInjectInternalLinks_SkipsProtectedAncestors(t *testing.T) {
	c := New(staticPages{pages: shopPages}, "")
	in := `<p><a href="/y"><strong>Clay pots</strong></a></p><pre><code>clay pots</code></pre><h3>Plant care</h3>`

	out, err := c.InjectInternalLinks(context.Background(), in, "shop")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestInjectInternalLinks_ShortTitlesIgnored(t *testing.T) {
	c := New(staticPages{pages: []types.PageRef{{URL: "/soil", Title: "Soil"}}}, "")
	in := `<p>Good soil matters.</p>`

	out, err := c.InjectInternalLinks(context.Background(), in, "shop")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestInjectInternalLinks_Unicode(t *testing.T) {
	c := New(staticPages{pages: []types.PageRef{{URL: "/g", Title: "Глиняні горщики"}}}, "")

	out, err := c.InjectInternalLinks(context.Background(), `<p>Купуйте глиняні горщики тут</p>`, "shop")
	require.NoError(t, err)
	assert.Equal(t, `<p>Купуйте <a href="/g" title="Глиняні горщики">глиняні горщики</a> тут</p>`, out)
}

func TestInjectInternalLinks_SourceProblemsLeaveInputUnchanged(t *testing.T) {
	in := `<p>Clay pots</p>`

	out, err := New(staticPages{err: errors.New("db locked")}, "").InjectInternalLinks(context.Background(), in, "shop")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = New(staticPages{}, "").InjectInternalLinks(context.Background(), in, "shop")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = New(nil, "").InjectInternalLinks(context.Background(), in, "shop")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLinkCandidates_LongestFirstStable(t *testing.T) {
	got := linkCandidates([]types.PageRef{
		{URL: "/a", Title: "Alpha"},
		{URL: "/b", Title: "Bravo"},
		{URL: "/c", Title: "Charlie"},
		{URL: "/d", Title: "Dog"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "/c", got[0].URL)
	assert.Equal(t, "/a", got[1].URL)
	assert.Equal(t, "/b", got[2].URL)
}
