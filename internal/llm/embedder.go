package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/niana0/vendor-security-assessment-tool/internal/cache"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/worker"
)

// Embedder puts a remote provider behind the vector cache, the rate limiter
// and retries of transient failures
type Embedder struct {
	provider   Provider
	limiter    *worker.Limiter
	vectors    cache.Cache
	ttl        time.Duration
	batchSize  int
	maxRetries int
	interval   time.Duration
	logger     *slog.Logger
}

// NewEmbedder wraps provider. limiter and vectors may be nil.
func NewEmbedder(provider Provider, cfg model.EmbeddingConfig, limiter *worker.Limiter, vectors cache.Cache, ttl time.Duration) *Embedder {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Embedder{
		provider:   provider,
		limiter:    limiter,
		vectors:    vectors,
		ttl:        ttl,
		batchSize:  batchSize,
		maxRetries: cfg.MaxRetries,
		interval:   500 * time.Millisecond,
		logger:     slog.Default(),
	}
}

// SetLogger replaces the logger
func (e *Embedder) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Name returns the provider name
func (e *Embedder) Name() string {
	return e.provider.Name()
}

// Embed returns one vector per text. Cached vectors are reused; the rest are
// fetched in batches. Any batch failing after retries fails the whole call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// distinct uncached texts, each mapped to every position it fills
	var pending []string
	positions := make(map[string][]int)
	hits := 0
	for i, text := range texts {
		if v, ok := e.cached(text); ok {
			out[i] = v
			hits++
			continue
		}
		if _, seen := positions[text]; !seen {
			pending = append(pending, text)
		}
		positions[text] = append(positions[text], i)
	}

	for _, batch := range chunk(pending, e.batchSize) {
		vectors, err := e.fetch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for j, text := range batch {
			for _, i := range positions[text] {
				out[i] = vectors[j]
			}
			e.store(text, vectors[j])
		}
	}

	e.logger.Debug("embedded texts",
		"provider", e.provider.Name(),
		"texts", len(texts),
		"cache_hits", hits,
		"requested", len(pending))
	return out, nil
}

func (e *Embedder) fetch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32
	attempt := 0

	operation := func() error {
		attempt++
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx, e.provider.Name()); err != nil {
				return backoff.Permanent(err)
			}
		}

		v, err := e.provider.Embed(ctx, batch)
		if err != nil {
			if IsTransient(err) {
				e.logger.Warn("transient embedding error", "provider", e.provider.Name(), "attempt", attempt, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		if len(v) != len(batch) {
			return backoff.Permanent(NewFatalError(fmt.Errorf("%s returned %d vectors for %d texts", e.provider.Name(), len(v), len(batch))))
		}
		vectors = v
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.interval
	policy.MaxElapsedTime = 0

	retries := e.maxRetries - 1
	if retries < 0 {
		retries = 0
	}
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)); err != nil {
		return nil, fmt.Errorf("embed %d texts with %s after %d attempt(s): %w", len(batch), e.provider.Name(), attempt, err)
	}
	return vectors, nil
}

func (e *Embedder) key(text string) string {
	return cache.VectorKey(e.provider.Name(), e.provider.Model(), text)
}

func (e *Embedder) cached(text string) ([]float32, bool) {
	if e.vectors == nil {
		return nil, false
	}
	return cache.GetVector(e.vectors, e.key(text))
}

func (e *Embedder) store(text string, v []float32) {
	if e.vectors == nil {
		return
	}
	if err := cache.SetVector(e.vectors, e.key(text), v, e.ttl); err != nil {
		e.logger.Warn("cache write failed", "error", err)
	}
}
