package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"docrag/internal/textutil"
)

const DefaultDimension = 256

// Embedder is an offline bag-of-words embedder. Each content word is hashed
// into one of a fixed number of buckets with a hash-derived sign, weighted by
// term frequency, and the vector is L2 normalized. Unlike TF-IDF it needs no
// corpus preparation, so vectors from separate ingestions stay comparable.
type Embedder struct {
	dimension int
}

// NewEmbedder creates a hashing embedder. Non-positive dimensions use the default.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedBatch embeds each text independently.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float64 {
	vec := make([]float64, e.dimension)
	tokens := textutil.ContentWords(text)
	if len(tokens) == 0 {
		return vec
	}
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	total := float64(len(tokens))
	norm := 0.0
	for i := range vec {
		vec[i] /= total
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
