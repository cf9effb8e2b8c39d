package chunker

import (
	"maps"
	"strings"

	"docrag/internal/domain"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

// WindowChunker slides a fixed-width character window over the text, pulling
// each cut back to the nearest sentence boundary and overlapping consecutive
// windows so context survives across cut points.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a chunker. Non-positive size and negative overlap
// fall back to defaults.
func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &WindowChunker{size: size, overlap: overlap}
}

// Chunk splits text into chunk records tagged with meta. Offsets are rune
// positions into text.
func (c *WindowChunker) Chunk(text string, meta domain.Metadata) []domain.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n < c.size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []domain.Chunk{{ID: 0, Text: text, Metadata: ownMetadata(meta)}}
	}

	var chunks []domain.Chunk
	id := 0
	start := 0
	for start < n {
		end := start + c.size
		if end < n {
			if p := lastBoundary(runes, start, end); p > start {
				end = p + 1
			}
		} else {
			end = n
		}

		segment := strings.TrimSpace(string(runes[start:end]))
		if segment != "" {
			chunks = append(chunks, domain.Chunk{
				ID:       id,
				Text:     segment,
				Metadata: ownMetadata(meta),
				Offsets:  &domain.Span{Start: start, End: end},
			})
			id++
		}
		if end >= n {
			break
		}

		next := end - c.overlap
		if next <= start {
			// overlap would stall the window
			next = end
		}
		start = next
	}
	return chunks
}

// ownMetadata copies meta so each chunk holds its own Extra map.
func ownMetadata(meta domain.Metadata) domain.Metadata {
	meta.Extra = maps.Clone(meta.Extra)
	return meta
}

// lastBoundary returns the rightmost sentence boundary position p in
// [start, end), or -1. ASCII terminators only count when followed by a space
// that also lies inside the window.
func lastBoundary(runes []rune, start, end int) int {
	for p := end - 1; p >= start; p-- {
		switch r := runes[p]; {
		case r == '\n':
			return p
		case isTerminator(r):
			return p
		case r == '.' || r == '!' || r == '?':
			if p+1 < end && runes[p+1] == ' ' {
				return p
			}
		}
	}
	return -1
}

// isTerminator reports non-Latin sentence terminators: Devanagari danda and
// double danda, and the CJK full stop, exclamation and question marks.
func isTerminator(r rune) bool {
	switch r {
	case '।', '॥', '。', '！', '？':
		return true
	}
	return false
}
