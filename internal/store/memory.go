package store

import (
	"log/slog"
	"sync"

	"docrag/internal/domain"
)

// Memory is the in-session chunk store: chunk records plus a parallel vector
// collection where index i in both refers to the same chunk.
//
// The vector collection is either exactly as long as the chunk collection or
// empty. Once any batch arrives without usable vectors the store is degraded:
// existing vectors are dropped and later vectors are discarded until Clear.
type Memory struct {
	mu        sync.RWMutex
	chunks    []domain.Chunk
	vectors   [][]float64
	dimension int
	degraded  bool
	logger    *slog.Logger
}

// NewMemory creates an empty store.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{logger: logger}
}

// Add appends chunks in order. vectors may be nil when embedding was
// unavailable or failed; the chunks are stored either way.
func (s *Memory) Add(chunks []domain.Chunk, vectors [][]float64) {
	if len(chunks) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	usable := vectors != nil && !s.degraded && s.fits(chunks, vectors)
	s.chunks = append(s.chunks, chunks...)
	if usable {
		if s.dimension == 0 {
			s.dimension = len(vectors[0])
		}
		s.vectors = append(s.vectors, vectors...)
		return
	}
	if !s.degraded {
		s.logger.Warn("chunks stored without vectors, vector search disabled until clear",
			"chunks", len(chunks), "dropped_vectors", len(s.vectors))
	}
	s.degraded = true
	s.vectors = nil
	s.dimension = 0
}

// fits reports whether vectors pair one-to-one with chunks and share the
// store's dimension. Caller holds the lock.
func (s *Memory) fits(chunks []domain.Chunk, vectors [][]float64) bool {
	if len(vectors) != len(chunks) {
		return false
	}
	dim := s.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return false
	}
	for _, v := range vectors {
		if len(v) != dim {
			return false
		}
	}
	return true
}

// Clear empties both collections and returns the store to its initial state.
func (s *Memory) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.vectors = nil
	s.dimension = 0
	s.degraded = false
}

// Len returns the number of stored chunks.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Stats summarizes the store. Chunks without a filename do not count as documents.
func (s *Memory) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make(map[string]struct{})
	for _, ch := range s.chunks {
		if ch.Metadata.Filename != "" {
			files[ch.Metadata.Filename] = struct{}{}
		}
	}
	return domain.Stats{
		Chunks:        len(s.chunks),
		Documents:     len(files),
		HasEmbeddings: len(s.vectors) > 0,
	}
}

// View runs fn with the current collections under the read lock. fn must not
// retain or modify the slices.
func (s *Memory) View(fn func(chunks []domain.Chunk, vectors [][]float64)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.chunks, s.vectors)
}
