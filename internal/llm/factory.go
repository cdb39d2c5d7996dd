package llm

import (
	"fmt"
	"strings"

	"github.com/niana0/vendor-security-assessment-tool/internal/cache"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/similarity"
	"github.com/niana0/vendor-security-assessment-tool/internal/worker"
)

// NewProvider creates a remote embedding provider by name
func NewProvider(cfg model.EmbeddingConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case model.EmbeddingOpenAI:
		return NewOpenAIProvider(cfg)
	case model.EmbeddingOllama:
		return NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown remote embedding provider: %s (supported: openai, ollama)", cfg.Provider)
	}
}

// NewBackend builds the semantic similarity backend selected by cfg.
// "none" returns a nil embedder, which makes matching lexical only.
func NewBackend(cfg model.Config, tokenizer *similarity.Tokenizer) (similarity.Embedder, error) {
	switch strings.ToLower(cfg.Embedding.Provider) {
	case "", model.EmbeddingLocal:
		return similarity.NewLocalEmbedder(tokenizer, cfg.Tables.Concepts, cfg.Embedding.Dimensions), nil
	case model.EmbeddingNone:
		return nil, nil
	}

	provider, err := NewProvider(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.Embedding.RateLimit, cfg.Embedding.Burst)
	return NewEmbedder(provider, cfg.Embedding, limiter, cache.New(cfg.Cache), cfg.Cache.TTL), nil
}
