// Package textutil holds the tokenizer, stopword list and sentence splitter
// shared by the embedder, summarizer and TUI.
package textutil

import (
	"regexp"
	"strings"
)

var (
	// Letters keep their combining marks so Indic scripts tokenize as whole words.
	wordPattern     = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+(?:['’][\p{L}\p{M}\p{N}]+)*`)
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?।。！？]+[.!?।。！？])`)
	stopwords       = newStopwords()
)

// Words returns the lowercased word tokens of text.
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// ContentWords returns Words with stopwords removed.
func ContentWords(text string) []string {
	raw := Words(text)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// WordSet returns the distinct word tokens of text.
func WordSet(text string) map[string]struct{} {
	tokens := Words(text)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// Sentences splits text on terminal punctuation. Text without any terminator
// comes back as a single trimmed sentence.
func Sentences(text string) []string {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	return sentences
}

// IsStopword reports whether the lowercased token is a common English stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

func newStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
