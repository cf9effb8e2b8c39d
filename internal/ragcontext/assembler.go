package ragcontext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"docrag/internal/domain"
)

const (
	// DefaultTopK is deliberately larger than usually fits so the budget can trim.
	DefaultTopK     = 5
	DefaultMaxChars = 2000

	Header = "=== Retrieved Document Context ===\n\n"
)

// Searcher is the retrieval dependency of the assembler.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}

// Assembler formats ranked chunks into a bounded context block for a prompt.
type Assembler struct {
	searcher Searcher
	topK     int
	logger   *slog.Logger
}

// NewAssembler creates an assembler. Non-positive topK uses DefaultTopK.
func NewAssembler(searcher Searcher, topK int, logger *slog.Logger) *Assembler {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{searcher: searcher, topK: topK, logger: logger}
}

// Build returns Header followed by as many whole source-attributed blocks as
// fit in maxChars characters, in rank order. It returns "" when nothing fits
// or nothing relevant was found.
func (a *Assembler) Build(ctx context.Context, query string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	results, err := a.searcher.Search(ctx, query, a.topK)
	if err != nil {
		a.logger.Warn("context search failed", "error", err)
		return ""
	}

	var body strings.Builder
	used := 0
	included := 0
	for _, r := range results {
		block := FormatBlock(r.Chunk)
		n := utf8.RuneCountInString(block)
		if used+n > maxChars {
			break
		}
		body.WriteString(block)
		used += n
		included++
	}
	if included == 0 {
		return ""
	}
	a.logger.Debug("context assembled", "blocks", included, "chars", used)
	return Header + body.String()
}

// FormatBlock renders one chunk with its source attribution and separator.
func FormatBlock(ch domain.Chunk) string {
	source := ch.Metadata.Filename
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf("[Source: %s]\n%s\n\n---\n\n", source, ch.Text)
}

// AugmentPrompt prepends retrieved context to a user question. Without
// context the question is returned unchanged.
func AugmentPrompt(contextBlock, question string) string {
	if contextBlock == "" {
		return question
	}
	return fmt.Sprintf("%s\n\nUser Question: %s\n\nPlease answer based on the provided context.", contextBlock, question)
}
