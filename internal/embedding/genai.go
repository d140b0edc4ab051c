package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAI defaults. gemini-embedding-001 can truncate its output, so the index
// asks for a smaller vector than the model's native size.
const (
	DefaultGenAIModel      = "gemini-embedding-001"
	DefaultGenAIDimensions = 768
)

// Gemini task types for the two sides of retrieval.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// GenAIEmbedder embeds text with the Gemini embeddings API.
type GenAIEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGenAIEmbedder creates a Gemini embedder. Empty model and non-positive
// dimensions fall back to the defaults.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultGenAIModel
	}
	if dimensions <= 0 {
		dimensions = DefaultGenAIDimensions
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

// Embed implements Embedder using the query task type.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements Embedder using the document task type.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embed(ctx, texts, TaskRetrievalDocument)
}

func (e *GenAIEmbedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dims := int32(e.dimensions)
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             task,
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("GenAI returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Dimensions implements Embedder.
func (e *GenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Name implements Embedder.
func (e *GenAIEmbedder) Name() string {
	return "genai:" + e.model
}
