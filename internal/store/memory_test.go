package store_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
	"docrag/internal/store"
)

func chunksFor(file string, n int) []domain.Chunk {
	out := make([]domain.Chunk, n)
	for i := range out {
		out[i] = domain.Chunk{ID: i, Text: fmt.Sprintf("%s chunk %d", file, i), Metadata: domain.Metadata{Filename: file}}
	}
	return out
}

func vectorsFor(n, dim int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dim)
		out[i][i%dim] = 1
	}
	return out
}

func lengths(s *store.Memory) (chunks, vectors int) {
	s.View(func(c []domain.Chunk, v [][]float64) {
		chunks, vectors = len(c), len(v)
	})
	return chunks, vectors
}

func TestAddWithVectors(t *testing.T) {
	s := store.NewMemory(nil)
	s.Add(chunksFor("a.txt", 2), vectorsFor(2, 3))
	s.Add(chunksFor("b.txt", 3), vectorsFor(3, 3))

	c, v := lengths(s)
	assert.Equal(t, 5, c)
	assert.Equal(t, 5, v)
	assert.Equal(t, domain.Stats{Chunks: 5, Documents: 2, HasEmbeddings: true}, s.Stats())

	var texts []string
	s.View(func(chunks []domain.Chunk, _ [][]float64) {
		for _, ch := range chunks {
			texts = append(texts, ch.Text)
		}
	})
	assert.Equal(t, "a.txt chunk 0", texts[0])
	assert.Equal(t, "b.txt chunk 2", texts[4])
}

func TestAlignmentInvariant(t *testing.T) {
	tests := []struct {
		name    string
		batches []func(*store.Memory)
		vectors int
	}{
		{
			name: "withheld vectors drop existing ones",
			batches: []func(*store.Memory){
				func(s *store.Memory) { s.Add(chunksFor("a", 2), vectorsFor(2, 2)) },
				func(s *store.Memory) { s.Add(chunksFor("b", 1), nil) },
			},
			vectors: 0,
		},
		{
			name: "vectors after degradation are discarded",
			batches: []func(*store.Memory){
				func(s *store.Memory) { s.Add(chunksFor("a", 2), nil) },
				func(s *store.Memory) { s.Add(chunksFor("b", 2), vectorsFor(2, 2)) },
			},
			vectors: 0,
		},
		{
			name: "count mismatch degrades",
			batches: []func(*store.Memory){
				func(s *store.Memory) { s.Add(chunksFor("a", 3), vectorsFor(2, 2)) },
			},
			vectors: 0,
		},
		{
			name: "dimension mismatch degrades",
			batches: []func(*store.Memory){
				func(s *store.Memory) { s.Add(chunksFor("a", 2), vectorsFor(2, 2)) },
				func(s *store.Memory) { s.Add(chunksFor("b", 2), vectorsFor(2, 4)) },
			},
			vectors: 0,
		},
		{
			name: "empty vectors degrade",
			batches: []func(*store.Memory){
				func(s *store.Memory) { s.Add(chunksFor("a", 1), [][]float64{{}}) },
			},
			vectors: 0,
		},
		{
			name: "aligned batches stay aligned",
			batches: []func(*store.Memory){
				func(s *store.Memory) { s.Add(chunksFor("a", 2), vectorsFor(2, 2)) },
				func(s *store.Memory) { s.Add(nil, nil) },
				func(s *store.Memory) { s.Add(chunksFor("b", 1), vectorsFor(1, 2)) },
			},
			vectors: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory(nil)
			for _, add := range tt.batches {
				add(s)
				c, v := lengths(s)
				assert.True(t, v == 0 || v == c, "partially aligned: %d chunks, %d vectors", c, v)
			}
			_, v := lengths(s)
			assert.Equal(t, tt.vectors, v)
		})
	}
}

func TestClearResetsDegradation(t *testing.T) {
	s := store.NewMemory(nil)
	for i := 0; i < 3; i++ {
		s.Add(chunksFor(fmt.Sprintf("doc%d", i), 2), nil)
	}
	s.Clear()
	assert.Equal(t, domain.Stats{}, s.Stats())
	assert.Zero(t, s.Len())

	s.Add(chunksFor("fresh", 2), vectorsFor(2, 2))
	assert.True(t, s.Stats().HasEmbeddings)
}

func TestStatsIgnoresMissingFilename(t *testing.T) {
	s := store.NewMemory(nil)
	s.Add([]domain.Chunk{{Text: "anonymous"}}, nil)
	s.Add(chunksFor("a.txt", 1), nil)
	s.Add(chunksFor("a.txt", 1), nil)

	assert.Equal(t, domain.Stats{Chunks: 3, Documents: 1, HasEmbeddings: false}, s.Stats())
}

func TestConcurrentAddAndView(t *testing.T) {
	s := store.NewMemory(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Add(chunksFor("doc", 4), vectorsFor(4, 4))
		}()
		go func() {
			defer wg.Done()
			s.View(func(c []domain.Chunk, v [][]float64) {
				assert.Equal(t, len(c), len(v))
			})
		}()
	}
	wg.Wait()
	require.Equal(t, 32, s.Len())
}
