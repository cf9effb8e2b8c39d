package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docrag/internal/domain"
)

// Loader constructs the underlying embedder. It is called at most once per Adapter.
type Loader func(ctx context.Context) (domain.Embedder, error)

// Adapter owns a lazily loaded embedder. A failed load marks the adapter
// unavailable for the rest of its life; callers then use keyword search.
// Embedding failures are reported as ok=false and never returned as errors.
type Adapter struct {
	load    Loader
	timeout time.Duration
	logger  *slog.Logger

	once    sync.Once
	emb     domain.Embedder
	loadErr error
}

// NewAdapter wraps load. A zero timeout leaves embedding calls unbounded.
func NewAdapter(load Loader, timeout time.Duration, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{load: load, timeout: timeout, logger: logger}
}

// Unavailable returns an adapter that never loads an embedder.
func Unavailable(logger *slog.Logger) *Adapter {
	return NewAdapter(func(context.Context) (domain.Embedder, error) {
		return nil, fmt.Errorf("embedding disabled: %w", domain.ErrEmbedderUnavailable)
	}, 0, logger)
}

// Load initializes the embedder if that has not been attempted yet and
// returns the load error, if any.
func (a *Adapter) Load(ctx context.Context) error {
	a.once.Do(func() {
		emb, err := a.safeLoad(ctx)
		if err == nil && emb == nil {
			err = domain.ErrEmbedderUnavailable
		}
		if err != nil {
			a.loadErr = err
			a.logger.Warn("embedder unavailable, keyword search only", "error", err)
			return
		}
		a.emb = emb
		a.logger.Info("embedder loaded", "name", emb.Name(), "dimension", emb.Dimension())
	})
	return a.loadErr
}

// Available reports whether vectors can be produced.
func (a *Adapter) Available(ctx context.Context) bool {
	return a.Load(ctx) == nil
}

// Name returns the backend name, or "none" when unavailable.
func (a *Adapter) Name(ctx context.Context) string {
	if !a.Available(ctx) {
		return "none"
	}
	return a.emb.Name()
}

// EmbedBatch returns one vector per text in input order. ok is false when the
// embedder is unavailable or the batch failed.
func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) (vectors [][]float64, ok bool) {
	if len(texts) == 0 || !a.Available(ctx) {
		return nil, false
	}
	vectors, err := a.call(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingMismatch, len(vectors), len(texts))
	}
	if err != nil {
		a.logger.Warn("embed batch failed", "texts", len(texts), "error", err)
		return nil, false
	}
	return vectors, true
}

// EmbedOne embeds a single text.
func (a *Adapter) EmbedOne(ctx context.Context, text string) ([]float64, bool) {
	vectors, ok := a.EmbedBatch(ctx, []string{text})
	if !ok {
		return nil, false
	}
	return vectors[0], true
}

func (a *Adapter) safeLoad(ctx context.Context) (emb domain.Embedder, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("embedder load panicked: %v", r)
		}
	}()
	return a.load(ctx)
}

func (a *Adapter) call(ctx context.Context, texts []string) (vectors [][]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			vectors, err = nil, fmt.Errorf("embedder panicked: %v", r)
		}
	}()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.emb.EmbedBatch(ctx, texts)
}
