package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes structured output the model should produce from
// a piece of input text.
type ExtractionSchema struct {
	Name        string
	Description string // task preamble
	Fields      []SchemaField
}

// SchemaField is one key of the expected JSON object.
type SchemaField struct {
	Name        string
	Type        string // JSON-ish type hint, e.g. "string" or ["string"]
	Description string
	Required    bool
}

// BuildExtractionPrompt renders the schema and input text into a prompt.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		fmt.Fprintf(&sb, "  %q: %s", field.Name, typeHint)
		if field.Required {
			sb.WriteString(" (required)")
		}
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("Return ONLY the JSON object, no markdown, no explanation.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// CompetitorToVSchema extracts the tone of voice of a competitor website.
// Option values are written in the output language.
func CompetitorToVSchema(language string) ExtractionSchema {
	return ExtractionSchema{
		Name: "CompetitorToV",
		Description: fmt.Sprintf(`You are a brand strategist. Analyze the tone of voice of this website text.
Write all values in %s.`, language),
		Fields: []SchemaField{
			{Name: "emotional_tone", Description: "one of: Friendly, Energetic, Calm/Reassuring, Serious/Strict, Humorous, Inspiring", Required: true},
			{Name: "formality_level", Description: "one of: Very formal, Business, Neutral, Informal", Required: true},
			{Name: "unique_trait", Description: "the single most distinctive trait of the voice", Required: true},
			{Name: "values", Type: `["string"]`, Description: "brand values visible in the text", Required: false},
		},
	}
}
