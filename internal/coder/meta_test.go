package coder

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonathan/seo-content-machine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMetadata(t *testing.T) {
	meta := GenerateMetadata("Clay Pots 101", strings.Repeat("a", 200))
	assert.Equal(t, "Clay Pots 101", meta.MetaTitle)
	assert.Equal(t, "Clay Pots 101", meta.OGTitle)
	assert.Equal(t, strings.Repeat("a", 150)+"...", meta.MetaDescription)

	short := GenerateMetadata("T", "Short\n\ntext")
	assert.Equal(t, "Short text...", short.MetaDescription)
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema([]types.FAQItem{{Question: "Q1?"}, {Question: "Q2?", Answer: "A2"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(schema, "{\n  \"@context\": \"https://schema.org\""))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(schema), &decoded))
	assert.Equal(t, "FAQPage", decoded["@type"])

	entities := decoded["mainEntity"].([]any)
	require.Len(t, entities, 2)
	first := entities[0].(map[string]any)
	assert.Equal(t, "Q1?", first["name"])
	assert.Equal(t, PlaceholderAnswer, first["acceptedAnswer"].(map[string]any)["text"])
	second := entities[1].(map[string]any)
	assert.Equal(t, "A2", second["acceptedAnswer"].(map[string]any)["text"])
}

func TestGenerateSchema_Empty(t *testing.T) {
	schema, err := GenerateSchema(nil)
	require.NoError(t, err)
	assert.Equal(t, "", schema)
}

func TestEmbedSchema(t *testing.T) {
	assert.Equal(t, "<p>x</p>", EmbedSchema("<p>x</p>", ""))
	out := EmbedSchema("<p>x</p>", `{"@type":"FAQPage"}`)
	assert.Contains(t, out, `<script type="application/ld+json">`)
	assert.True(t, strings.HasPrefix(out, "<p>x</p>\n"))
}
