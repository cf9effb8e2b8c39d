package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docrag/internal/domain"
	"docrag/internal/retrieval"
	"docrag/internal/textutil"
)

// RAGPort is the TUI-facing subset of the document processor.
type RAGPort interface {
	SearchWithMode(ctx context.Context, query string, topK int) ([]domain.SearchResult, retrieval.Mode, error)
	RelevantContext(ctx context.Context, query string) string
	Clear()
	Stats() domain.Stats
	TopK() int
	EmbedderName(ctx context.Context) string
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service     RAGPort
	ctx         context.Context
	input       textinput.Model
	viewport    viewport.Model
	results     []domain.SearchResult
	mode        retrieval.Mode
	contextText string
	showContext bool
	summary     string
	status      string
	cursor      int
	ready       bool
	lastQuery   string
}

// New creates a new TUI model instance.
func New(ctx context.Context, service RAGPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		ctx:      ctx,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Loaded. Type to search. Tab: context  Ctrl+X: clear  Ctrl+C: quit",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1 + lipgloss.Height(m.summary)       // header + summary
		totalFooterLines := 2                                    // status + stats
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.search(q)
				return m, nil
			}
		case tea.KeyTab:
			m.showContext = !m.showContext
			m.refresh()
			return m, nil
		case tea.KeyCtrlX:
			m.service.Clear()
			m.results = nil
			m.contextText = ""
			m.cursor = 0
			m.status = "Store cleared."
			m.refresh()
			return m, nil
		case tea.KeyDown:
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.refresh()
				return m, nil
			}
		case tea.KeyUp:
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.refresh()
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) search(q string) {
	res, mode, err := m.service.SearchWithMode(m.ctx, q, m.service.TopK())
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
		m.contextText = ""
	} else {
		m.status = fmt.Sprintf("%d results for %q (%s search)", len(res), q, mode)
		m.results = res
		m.mode = mode
		m.cursor = 0
		m.lastQuery = q
		m.contextText = m.service.RelevantContext(m.ctx, q)
	}
	m.refresh()
}

func (m *Model) refresh() {
	if m.showContext {
		m.viewport.SetContent(m.renderContext())
	} else {
		m.viewport.SetContent(m.renderCurrentResult())
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Retrieval")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	stats := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.renderStats())
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status + "\n" + stats
}

func (m Model) renderStats() string {
	st := m.service.Stats()
	vectors := "no"
	if st.HasEmbeddings {
		vectors = "yes"
	}
	return fmt.Sprintf("%d chunks from %d documents | embeddings: %s | embedder: %s",
		st.Chunks, st.Documents, vectors, m.service.EmbedderName(m.ctx))
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	source := r.Chunk.Metadata.Filename
	if source == "" {
		source = "unknown"
	}
	title := fmt.Sprintf("Result %d/%d  score=%.3f  source=%s  mode=%s",
		m.cursor+1, len(m.results), r.Score, source, m.mode)
	body := highlightBestSentence(r.Chunk.Text, m.lastQuery)
	return title + "\n\n" + body
}

func (m Model) renderContext() string {
	if m.contextText == "" {
		return "No context assembled yet."
	}
	return m.contextText
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	qTokens := textutil.WordSet(query)
	if len(qTokens) == 0 {
		return strings.TrimSpace(text)
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	out := make([]string, len(sentences))
	for i, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if i == bestIdx {
			out[i] = highlightStyle.Render(sent)
		} else {
			out[i] = sent
		}
	}
	return strings.Join(out, " ")
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range textutil.WordSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
