package pipeline

import (
	"context"

	"github.com/jonathan/seo-content-machine/internal/coder"
	"github.com/jonathan/seo-content-machine/internal/fetch"
	"github.com/jonathan/seo-content-machine/internal/project"
	"github.com/jonathan/seo-content-machine/internal/types"
)

// Brand is the workspace context a draft is written and coded with.
type Brand struct {
	Name      string
	ToV       string
	Reference string
	CMS       string
	Assets    []string
}

// LoadBrand reads the ToV, reference HTML, CMS and asset names of a brand
// workspace. A nil manager yields a Brand with only the name set. Missing
// metadata leaves CMS empty.
func LoadBrand(projects *project.Manager, name string) (Brand, error) {
	b := Brand{Name: name}
	if projects == nil {
		return b, nil
	}

	var err error
	if b.ToV, err = projects.ToV(name); err != nil {
		return b, err
	}
	if b.Reference, err = projects.Reference(name); err != nil {
		return b, err
	}
	if meta, err := projects.Meta(name); err == nil {
		b.CMS = meta.CMS
	}
	if b.Assets, err = projects.AssetNames(name); err != nil {
		return b, err
	}
	return b, nil
}

// CodeInput is a Markdown draft to publish for a brand.
type CodeInput struct {
	Brand    Brand
	Title    string
	Markdown string
	FAQ      []types.FAQItem
}

// CodeArticle turns a draft into publishable HTML: CMS conversion, asset
// and internal-link injection, metadata, and the FAQ schema embedded at the
// end of the fragment.
func CodeArticle(ctx context.Context, c HTMLCoder, in CodeInput) (types.CodeResponse, error) {
	var out types.CodeResponse

	html, err := coder.ConvertToHTML(in.Markdown, in.Brand.CMS, in.Brand.Reference)
	if err != nil {
		return out, err
	}
	if len(in.Brand.Assets) > 0 {
		if html, err = c.InjectAssets(html, in.Brand.Assets); err != nil {
			return out, err
		}
	}
	if html, err = c.InjectInternalLinks(ctx, html, in.Brand.Name); err != nil {
		return out, err
	}

	out.Metadata = coder.GenerateMetadata(in.Title, fetch.BodyText(html, 0))
	if out.Schema, err = coder.GenerateSchema(in.FAQ); err != nil {
		return out, err
	}
	if out.Schema != "" {
		html = coder.EmbedSchema(html, out.Schema)
	}
	out.HTML = html
	return out, nil
}
