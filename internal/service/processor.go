package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/google/uuid"

	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/extract"
	"docrag/internal/ragcontext"
	"docrag/internal/retrieval"
	"docrag/internal/store"
)

// PreviewChars bounds IngestReport.Preview.
const PreviewChars = 120

// Options tunes retrieval and ingestion summaries.
type Options struct {
	TopK                int
	ContextMaxChars     int
	SummaryMaxSentences int
}

// Processor ties chunking, embedding, storage and retrieval together for one session.
type Processor struct {
	chunker    domain.Chunker
	embedder   *embedding.Adapter
	summarizer domain.Summarizer
	store      *store.Memory
	searcher   *retrieval.Searcher
	assembler  *ragcontext.Assembler
	opts       Options
	logger     *slog.Logger
}

// NewProcessor wires a processor around a fresh in-memory store. embedder
// and summarizer may be nil.
func NewProcessor(chunker domain.Chunker, embedder *embedding.Adapter, summarizer domain.Summarizer, opts Options, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if embedder == nil {
		embedder = embedding.Unavailable(logger)
	}
	if opts.TopK <= 0 {
		opts.TopK = ragcontext.DefaultTopK
	}
	if opts.ContextMaxChars <= 0 {
		opts.ContextMaxChars = ragcontext.DefaultMaxChars
	}
	st := store.NewMemory(logger)
	searcher := retrieval.NewSearcher(st, embedder, logger)
	return &Processor{
		chunker:    chunker,
		embedder:   embedder,
		summarizer: summarizer,
		store:      st,
		searcher:   searcher,
		assembler:  ragcontext.NewAssembler(searcher, opts.TopK, logger),
		opts:       opts,
		logger:     logger,
	}
}

// IngestFile extracts path and ingests its text. Only a missing or
// unsupported file is an error.
func (p *Processor) IngestFile(ctx context.Context, path string) (domain.IngestReport, error) {
	res, err := extract.File(path)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("ingest %s: %w", path, err)
	}
	return p.IngestText(ctx, res.Text, res.Metadata), nil
}

// IngestText chunks text, embeds the chunks when an embedder is available
// and appends them to the store. Embedding failures leave the chunks
// searchable by keyword.
func (p *Processor) IngestText(ctx context.Context, text string, meta domain.Metadata) domain.IngestReport {
	ingestID := uuid.NewString()
	extra := make(map[string]string, len(meta.Extra)+1)
	maps.Copy(extra, meta.Extra)
	extra["ingest_id"] = ingestID
	meta.Extra = extra

	report := domain.IngestReport{
		Filename: meta.Filename,
		Type:     meta.Type,
		IngestID: ingestID,
		Preview:  extract.Preview(strings.TrimSpace(text), PreviewChars),
	}
	chunks := p.chunker.Chunk(text, meta)
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		p.logger.Info("nothing to ingest", "filename", meta.Filename)
		return report
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, ok := p.embedder.EmbedBatch(ctx, texts)
	p.store.Add(chunks, vectors)
	report.Embedded = ok && p.store.Stats().HasEmbeddings

	if p.summarizer != nil {
		summary, err := p.summarizer.Summarize(text, p.opts.SummaryMaxSentences)
		if err != nil {
			p.logger.Warn("summarize failed", "filename", meta.Filename, "error", err)
		}
		report.Summary = summary
	}

	p.logger.Info("document ingested",
		"filename", meta.Filename, "type", meta.Type, "chunks", report.Chunks,
		"embedded", report.Embedded, "ingest_id", ingestID)
	return report
}

// Search ranks stored chunks against query.
func (p *Processor) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	return p.searcher.Search(ctx, query, topK)
}

// SearchWithMode is Search that also reports the ranking strategy used.
func (p *Processor) SearchWithMode(ctx context.Context, query string, topK int) ([]domain.SearchResult, retrieval.Mode, error) {
	return p.searcher.SearchWithMode(ctx, query, topK)
}

// RelevantContext returns the formatted context block for query within the
// configured character budget, or "".
func (p *Processor) RelevantContext(ctx context.Context, query string) string {
	return p.assembler.Build(ctx, query, p.opts.ContextMaxChars)
}

// AugmentPrompt prepends the relevant context for question to it.
func (p *Processor) AugmentPrompt(ctx context.Context, question string) string {
	return ragcontext.AugmentPrompt(p.RelevantContext(ctx, question), question)
}

// Clear drops every stored chunk and vector.
func (p *Processor) Clear() {
	p.store.Clear()
	p.logger.Info("store cleared")
}

func (p *Processor) Stats() domain.Stats { return p.store.Stats() }

// Mode reports the strategy the next search would use.
func (p *Processor) Mode(ctx context.Context) retrieval.Mode { return p.searcher.Mode(ctx) }

// EmbedderName returns the active embedder backend, or "none".
func (p *Processor) EmbedderName(ctx context.Context) string { return p.embedder.Name(ctx) }

// TopK returns the configured result count.
func (p *Processor) TopK() int { return p.opts.TopK }
