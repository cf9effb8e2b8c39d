package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/embedding/hashing"
	"docrag/internal/embedding/openai"
	"docrag/internal/extract"
	"docrag/internal/logging"
	"docrag/internal/service"
	"docrag/internal/summarizer"
	"docrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, query string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docrag/config.yaml if not provided)")
	flag.StringVar(&query, "query", "", "Print the assembled context for this query and exit")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: docrag [--config=config.yaml] [--query=text] file1.txt [file2.pdf ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx := context.Background()
	proc := service.NewProcessor(
		chunker.NewWindowChunker(cfg.Chunker.Size, cfg.Chunker.Overlap),
		newEmbedder(cfg, logger),
		newSummarizer(cfg),
		service.Options{
			TopK:                cfg.Retrieval.TopK,
			ContextMaxChars:     cfg.Retrieval.ContextMaxChars,
			SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		},
		logger,
	)

	var summaries []string
	for _, path := range inputs {
		if !extract.IsSupported(path) {
			logger.Warn("skipping unsupported file", "path", path)
			continue
		}
		report, err := proc.IngestFile(ctx, path)
		if err != nil {
			logger.Error("ingest failed", "path", path, "error", err)
			continue
		}
		logger.Debug("document preview", "filename", report.Filename, "preview", report.Preview)
		line := report.Summary
		if line == "" {
			line = report.Preview
		}
		summaries = append(summaries, report.Filename+": "+line)
	}
	if proc.Stats().Chunks == 0 {
		fmt.Fprintln(os.Stderr, "no documents ingested")
		os.Exit(1)
	}

	if query != "" {
		out := proc.RelevantContext(ctx, query)
		if out == "" {
			fmt.Println("No relevant context found.")
			return
		}
		fmt.Print(out)
		return
	}

	m := tui.New(ctx, proc, strings.Join(summaries, "\n"))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Error("tui exited", "error", err)
		os.Exit(1)
	}
}

// newEmbedder returns a lazily loading adapter for the configured backend.
// Load failures surface on first use and switch search to keywords.
func newEmbedder(cfg *config.AppConfig, logger *slog.Logger) *embedding.Adapter {
	timeout := time.Duration(cfg.Embedder.TimeoutSecs) * time.Second
	switch cfg.Embedder.Type {
	case "hashing":
		dim := hashing.DefaultDimension
		if cfg.Embedder.Hashing != nil && cfg.Embedder.Hashing.Dimension > 0 {
			dim = cfg.Embedder.Hashing.Dimension
		}
		return embedding.NewAdapter(func(context.Context) (domain.Embedder, error) {
			return hashing.NewEmbedder(dim), nil
		}, timeout, logger)
	case "openai":
		oc := cfg.Embedder.OpenAI
		return embedding.NewAdapter(func(context.Context) (domain.Embedder, error) {
			if oc == nil {
				return nil, fmt.Errorf("openai embedder config missing: %w", domain.ErrEmbedderUnavailable)
			}
			return openai.NewClient(openai.Config{
				BaseURL:    oc.BaseURL,
				APIKeyEnv:  oc.APIKeyEnv,
				Model:      oc.Model,
				Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
				MaxRetries: oc.MaxRetries,
			})
		}, timeout, logger)
	default:
		return embedding.Unavailable(logger)
	}
}

func newSummarizer(cfg *config.AppConfig) domain.Summarizer {
	if cfg.Summarizer.Type == "none" {
		return nil
	}
	return summarizer.NewFrequencySummarizer()
}
