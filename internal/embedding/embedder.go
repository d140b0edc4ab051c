// Package embedding turns page titles and search queries into vectors for
// the brand page index.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/jonathan/seo-content-machine/internal/logging"
)

// Embedder produces vectors for documents and queries.
type Embedder interface {
	// Embed embeds a search query.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds documents, one vector per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// Providers
const (
	ProviderGenAI = "genai"
	ProviderHash  = "hash"
)

// Config selects and configures an Embedder.
type Config struct {
	Provider   string `json:"provider" yaml:"provider"`
	APIKey     string `json:"-" yaml:"-"`
	Model      string `json:"model" yaml:"model"`
	Dimensions int    `json:"dimensions" yaml:"dimensions"`
}

// DefaultConfig uses Gemini embeddings.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGenAI,
		Model:      DefaultGenAIModel,
		Dimensions: DefaultGenAIDimensions,
	}
}

// New creates the Embedder named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)
	switch cfg.Provider {
	case ProviderGenAI, "":
		embedder, err = NewGenAIEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.Dimensions)
	case ProviderHash:
		embedder = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use %q or %q)", cfg.Provider, ProviderGenAI, ProviderHash)
	}
	if err != nil {
		return nil, err
	}

	logging.Component("embedding").Debug().
		Str("name", embedder.Name()).
		Int("dimensions", embedder.Dimensions()).
		Msg("embedder created")
	return embedder, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
