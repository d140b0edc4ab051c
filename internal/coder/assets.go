package coder

import "strings"

// MatchThreshold is the score an asset must exceed to replace an image.
const MatchThreshold = 60

// PlaceholderImage is the src of images with no matching asset.
const PlaceholderImage = "placeholder.jpg"

// DefaultAssetPathPrefix is the OpenCart image catalog path.
const DefaultAssetPathPrefix = "/image/catalog/assets/"

// InjectAssets points every <img> with alt text at the best-matching brand
// asset, or at the placeholder when no asset scores above MatchThreshold.
// Images without alt text are left alone.
func (c *Coder) InjectAssets(fragment string, assetNames []string) (string, error) {
	root, err := parseFragment("inject-assets", fragment)
	if err != nil {
		return "", err
	}

	for _, img := range findAll(root, "img") {
		alt := strings.TrimSpace(attr(img, "alt"))
		if alt == "" {
			continue
		}
		name, score, ok := BestMatch(alt, assetNames)
		if ok && score > MatchThreshold {
			setAttr(img, "src", c.AssetPath(name))
		} else {
			setAttr(img, "src", PlaceholderImage)
		}
	}

	return renderFragment("inject-assets", root)
}

// Coder holds what the HTML transforms need from the brand workspace.
type Coder struct {
	pages       PageSource
	assetPrefix string
}

// New creates a Coder. pages may be nil, which disables link injection.
func New(pages PageSource, assetPrefix string) *Coder {
	if assetPrefix == "" {
		assetPrefix = DefaultAssetPathPrefix
	}
	if !strings.HasSuffix(assetPrefix, "/") {
		assetPrefix += "/"
	}
	return &Coder{pages: pages, assetPrefix: assetPrefix}
}

// AssetPath returns the public path of an asset file.
func (c *Coder) AssetPath(name string) string {
	return c.assetPrefix + name
}
