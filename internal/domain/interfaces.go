package domain

import "context"

// Chunker splits extracted document text into ordered chunk records.
type Chunker interface {
	Chunk(text string, meta Metadata) []Chunk
}

// Embedder converts a batch of texts into fixed-length vectors.
// Output order must match input order one-to-one.
type Embedder interface {
	Name() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
