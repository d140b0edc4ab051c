package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/seo-content-machine/internal/logging"
)

// CleanJSONBlock removes markdown code fences and any prose around a JSON
// object or array. Models often wrap JSON in ```json blocks even in JSON mode.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	switch {
	case objStart < 0 && arrStart < 0:
		return text
	case arrStart < 0 || (objStart >= 0 && objStart < arrStart):
		if obj := extractJSONObject(text[objStart:]); obj != "" {
			return obj
		}
	default:
		if arr := extractJSONArray(text[arrStart:]); arr != "" {
			return arr
		}
	}
	return text
}

// extractJSONObject returns the balanced object at the start of text.
func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

// extractJSONArray returns the balanced array at the start of text.
func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, close byte) string {
	if len(text) == 0 || text[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}

// DecodeJSON cleans text and unmarshals it into v.
func DecodeJSON(text string, v any) error {
	cleaned := CleanJSONBlock(text)
	if cleaned == "" {
		return fmt.Errorf("empty JSON response")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// ErrorPrefix starts the text GenerateWithFallback returns for a failed call
// without a fallback.
const ErrorPrefix = "Error: "

// IsErrorText reports whether text is a GenerateWithFallback failure.
func IsErrorText(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}

// GenerateWithFallback returns generated text, or fallback when generation
// fails. Without a fallback the error text is returned as "Error: <err>".
func GenerateWithFallback(ctx context.Context, client Client, prompt string, tier ModelTier, fallback string) string {
	text, err := client.GenerateContent(ctx, prompt, tier)
	if err == nil {
		return text
	}

	logging.Component("llm").Warn().Err(err).Str("tier", string(tier)).Msg("generation failed, using fallback")
	if fallback != "" {
		return fallback
	}
	return ErrorPrefix + err.Error()
}
