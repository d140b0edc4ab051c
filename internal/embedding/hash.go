package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// DefaultHashDimensions is the vector size of a HashEmbedder.
const DefaultHashDimensions = 256

// HashEmbedder is a deterministic, offline embedder: word tokens are hashed
// into a fixed number of signed buckets and the vector is L2-normalised.
// Texts sharing words end up close; it knows nothing about synonyms.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a HashEmbedder. dimensions <= 0 uses the default.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

// EmbedBatch implements Embedder.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

// Dimensions implements Embedder.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Name implements Embedder.
func (e *HashEmbedder) Name() string {
	return "hash:" + strconv.Itoa(e.dimensions)
}

func (e *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dimensions)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		weight := float32(1)
		if sum&(1<<63) != 0 {
			weight = -1
		}
		vec[sum%uint64(e.dimensions)] += weight
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
