package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// OpenAIProvider embeds texts through the OpenAI embeddings API (or any
// compatible endpoint set via BaseURL)
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	batchSize int
	timeout   time.Duration
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(cfg model.EmbeddingConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found (set OPENAI_API_KEY or embedding.api_key)")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
		},
	}

	embeddingModel := cfg.Model
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     embeddingModel,
		batchSize: cfg.BatchSize,
		timeout:   timeout,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return model.EmbeddingOpenAI
}

// Model returns the embedding model
func (p *OpenAIProvider) Model() string {
	return p.model
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	return p.client != nil
}

// Embed requests one vector per text, batching requests by the configured size
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range chunk(texts, p.batchSize) {
		vectors, err := p.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (p *OpenAIProvider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, classifyOpenAI(fmt.Errorf("OpenAI API error: %w", err))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, NewFatalError(fmt.Errorf("OpenAI returned embedding index %d for %d inputs", d.Index, len(texts)))
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, NewFatalError(fmt.Errorf("OpenAI returned no embedding for input %d", i))
		}
	}
	return vectors, nil
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return classifyTransport(err)
}
