package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"sort"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/store"
)

// Mode is the ranking strategy chosen for one search.
type Mode int

const (
	ModeKeyword Mode = iota
	ModeVector
)

func (m Mode) String() string {
	if m == ModeVector {
		return "vector"
	}
	return "keyword"
}

// Searcher ranks stored chunks against a query.
type Searcher struct {
	store    *store.Memory
	embedder *embedding.Adapter
	logger   *slog.Logger
}

// NewSearcher creates a searcher. embedder may be nil for keyword-only search.
func NewSearcher(st *store.Memory, embedder *embedding.Adapter, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{store: st, embedder: embedder, logger: logger}
}

// Mode reports which strategy the current store state selects: vector mode
// needs an available embedder and a vector collection aligned 1:1 with the
// chunks.
func (s *Searcher) Mode(ctx context.Context) Mode {
	var chunks, vectors int
	s.store.View(func(c []domain.Chunk, v [][]float64) {
		chunks, vectors = len(c), len(v)
	})
	return s.selectMode(ctx, chunks, vectors)
}

func (s *Searcher) selectMode(ctx context.Context, chunks, vectors int) Mode {
	if s.embedder == nil || vectors == 0 || vectors != chunks {
		return ModeKeyword
	}
	if !s.embedder.Available(ctx) {
		return ModeKeyword
	}
	return ModeVector
}

// Search returns at most topK chunks, best first, with Score set. Ties keep
// insertion order. Vector-path failures fall back to keyword ranking; the
// only error is ErrInvalidTopK.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	results, _, err := s.SearchWithMode(ctx, query, topK)
	return results, err
}

// SearchWithMode is Search that also reports the strategy that produced the
// results. The query is embedded before the store is locked; the mode check
// and the ranking then run against one snapshot under a single read lock.
func (s *Searcher) SearchWithMode(ctx context.Context, query string, topK int) ([]domain.SearchResult, Mode, error) {
	if topK <= 0 {
		return nil, ModeKeyword, fmt.Errorf("%w: got %d", domain.ErrInvalidTopK, topK)
	}

	var queryVec []float64
	if s.Mode(ctx) == ModeVector {
		if vec, ok := s.embedder.EmbedOne(ctx, query); ok {
			queryVec = vec
		}
	}

	var results []domain.SearchResult
	mode := ModeKeyword
	s.store.View(func(chunks []domain.Chunk, vectors [][]float64) {
		if len(chunks) == 0 {
			return
		}
		// the store may have changed since the query was embedded
		if queryVec != nil && len(vectors) > 0 && len(vectors) == len(chunks) {
			ranked, err := vectorRank(chunks, vectors, queryVec)
			if err == nil {
				results, mode = ranked, ModeVector
				return
			}
			s.logger.Warn("vector search failed, using keyword search", "error", err)
		}
		results = keywordRank(chunks, query)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	detach(results)
	s.logger.Debug("search", "mode", mode.String(), "top_k", topK, "results", len(results))
	return results, mode, nil
}

// detach gives results their own metadata and offsets so callers cannot
// modify stored chunks.
func detach(results []domain.SearchResult) {
	for i := range results {
		ch := &results[i].Chunk
		ch.Metadata.Extra = maps.Clone(ch.Metadata.Extra)
		if ch.Offsets != nil {
			span := *ch.Offsets
			ch.Offsets = &span
		}
	}
}

// vectorRank scores every chunk by cosine similarity. A zero-norm vector on
// either side scores -1, so a zero query keeps insertion order. A mis-sized
// stored vector is an error.
func vectorRank(chunks []domain.Chunk, vectors [][]float64, query []float64) (results []domain.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("similarity computation panicked: %v", r)
		}
	}()
	qnorm := norm(query)
	results = make([]domain.SearchResult, len(chunks))
	for i, v := range vectors {
		if len(v) != len(query) {
			return nil, fmt.Errorf("vector %d has dimension %d, query has %d", i, len(v), len(query))
		}
		results[i] = domain.SearchResult{Chunk: chunks[i], Score: cosine(v, query, qnorm)}
	}
	sortByScore(results)
	return results, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or -1
// when either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return -1
	}
	return cosine(a, b, norm(b))
}

func cosine(a, b []float64, bnorm float64) float64 {
	anorm := norm(a)
	if anorm == 0 || bnorm == 0 || math.IsNaN(anorm) || math.IsNaN(bnorm) {
		return -1
	}
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	score := dot / (anorm * bnorm)
	if math.IsNaN(score) {
		return -1
	}
	return score
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// keywordRank scores chunks by the number of distinct whitespace-separated
// lowercase words shared with the query, dropping chunks with no overlap.
func keywordRank(chunks []domain.Chunk, query string) []domain.SearchResult {
	qset := wordSet(query)
	if len(qset) == 0 {
		return nil
	}
	var results []domain.SearchResult
	for _, ch := range chunks {
		overlap := 0
		for w := range wordSet(ch.Text) {
			if _, ok := qset[w]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			results = append(results, domain.SearchResult{Chunk: ch, Score: float64(overlap)})
		}
	}
	sortByScore(results)
	return results
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	m := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return m
}

// sortByScore orders results by descending score, keeping insertion order on ties.
func sortByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}
