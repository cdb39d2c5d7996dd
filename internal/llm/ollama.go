package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

const defaultOllamaModel = "nomic-embed-text"

// OllamaProvider embeds texts with a local Ollama server
type OllamaProvider struct {
	baseURL    string
	model      string
	batchSize  int
	httpClient *http.Client
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama embedding provider
func NewOllamaProvider(cfg model.EmbeddingConfig) (*OllamaProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second // local models can be slow to load
	}

	embeddingModel := cfg.Model
	if embeddingModel == "" {
		embeddingModel = defaultOllamaModel
	}

	return &OllamaProvider{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     embeddingModel,
		batchSize: cfg.BatchSize,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return model.EmbeddingOllama
}

// Model returns the embedding model
func (p *OllamaProvider) Model() string {
	return p.model
}

// IsAvailable checks if Ollama is running by listing its models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Embed requests one vector per text, batching requests by the configured size
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range chunk(texts, p.batchSize) {
		resp, err := p.makeRequest(ctx, ollamaEmbedRequest{Model: p.model, Input: batch})
		if err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, NewFatalError(fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(batch)))
		}
		out = append(out, resp.Embeddings...)
	}
	return out, nil
}

func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaEmbedRequest) (*ollamaEmbedResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(fmt.Errorf("ollama request: %w", err))
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport(fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, classifyStatus(httpResp.StatusCode, fmt.Errorf("ollama API error (%d): %s", httpResp.StatusCode, apiErr.Error))
		}
		return nil, classifyStatus(httpResp.StatusCode, fmt.Errorf("ollama API error (%d): %s", httpResp.StatusCode, string(respBody)))
	}

	var resp ollamaEmbedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, NewFatalError(fmt.Errorf("unmarshal response: %w", err))
	}

	return &resp, nil
}
