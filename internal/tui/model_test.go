package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
	"docrag/internal/retrieval"
)

type fakePort struct {
	results  []domain.SearchResult
	context  string
	cleared  int
	lastTopK int
	stats    domain.Stats
}

func (f *fakePort) SearchWithMode(_ context.Context, _ string, topK int) ([]domain.SearchResult, retrieval.Mode, error) {
	f.lastTopK = topK
	return f.results, retrieval.ModeKeyword, nil
}

func (f *fakePort) RelevantContext(context.Context, string) string { return f.context }
func (f *fakePort) Clear()                                        { f.cleared++; f.stats = domain.Stats{} }
func (f *fakePort) Stats() domain.Stats                           { return f.stats }
func (f *fakePort) TopK() int                                     { return 4 }
func (f *fakePort) EmbedderName(context.Context) string           { return "none" }

func newTestModel(port *fakePort) Model {
	m := New(context.Background(), port, "summary")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func typeQuery(t *testing.T, m Model, q string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model)
}

func TestEnterRunsSearch(t *testing.T) {
	port := &fakePort{
		results: []domain.SearchResult{
			{Chunk: domain.Chunk{Text: "the cat sat", Metadata: domain.Metadata{Filename: "a.txt"}}, Score: 1},
			{Chunk: domain.Chunk{Text: "cat food"}, Score: 1},
		},
		context: "=== Retrieved Document Context ===\n\n[Source: a.txt]\nthe cat sat\n\n---\n\n",
		stats:   domain.Stats{Chunks: 2, Documents: 1},
	}
	m := typeQuery(t, newTestModel(port), "cat")

	assert.Equal(t, 4, port.lastTopK)
	require.Len(t, m.results, 2)
	assert.Equal(t, `2 results for "cat" (keyword search)`, m.status)
	assert.Contains(t, m.renderCurrentResult(), "source=a.txt")
	assert.Contains(t, m.View(), "2 chunks from 1 documents")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.renderCurrentResult(), "source=unknown")
}

func TestTabTogglesContext(t *testing.T) {
	port := &fakePort{context: "=== Retrieved Document Context ===\n\nblock"}
	m := newTestModel(port)
	assert.Equal(t, "No context assembled yet.", m.renderContext())

	m = typeQuery(t, m, "cat")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.True(t, m.showContext)
	assert.Equal(t, port.context, m.renderContext())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, next.(Model).showContext)
}

func TestCtrlXClearsStore(t *testing.T) {
	port := &fakePort{
		results: []domain.SearchResult{{Chunk: domain.Chunk{Text: "x"}, Score: 1}},
		stats:   domain.Stats{Chunks: 1, Documents: 1},
	}
	m := typeQuery(t, newTestModel(port), "x")
	require.Len(t, m.results, 1)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	m = next.(Model)
	assert.Equal(t, 1, port.cleared)
	assert.Empty(t, m.results)
	assert.Equal(t, "Store cleared.", m.status)
	assert.Contains(t, m.renderStats(), "0 chunks from 0 documents")
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Dogs bark loudly. Cats purr softly. Birds sing."
	got := highlightBestSentence(text, "cats")
	assert.Contains(t, got, "Dogs bark loudly.")
	assert.Contains(t, got, "Cats purr softly.")
	assert.Contains(t, got, "Birds sing.")

	assert.Equal(t, text, highlightBestSentence(text, "   "))
	assert.Equal(t, "", highlightBestSentence("", "cats"))
}
