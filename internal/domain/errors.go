package domain

import "errors"

// Sentinel errors used across packages.
var (
	ErrInvalidTopK         = errors.New("top_k must be a positive integer")
	ErrEmbedderUnavailable = errors.New("embedder unavailable")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrEmbeddingMismatch   = errors.New("embedding count does not match input count")
)
