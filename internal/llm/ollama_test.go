package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

func TestOllamaProvider_Embed_Success(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("Expected path /api/embed, got %s", r.URL.Path)
		}
		atomic.AddInt32(&requests, 1)

		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("Expected default model, got %s", req.Model)
		}

		resp := ollamaEmbedResponse{Model: req.Model}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(len(req.Input[i])), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(model.EmbeddingConfig{BaseURL: server.URL + "/", BatchSize: 2})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	vectors, err := provider.Embed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(vectors) != 3 {
		t.Fatalf("Expected 3 vectors, got %d", len(vectors))
	}
	for i, want := range []float32{1, 2, 3} {
		if vectors[i][0] != want {
			t.Errorf("vector %d: expected first value %v, got %v", i, want, vectors[i][0])
		}
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("Expected 2 batched requests, got %d", got)
	}
}

func TestOllamaProvider_Embed_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{"server error", http.StatusInternalServerError, `{"error": "model crashed"}`, true},
		{"rate limited", http.StatusTooManyRequests, `slow down`, true},
		{"unknown model", http.StatusNotFound, `{"error": "model not found"}`, false},
		{"short response", http.StatusOK, `{"embeddings": []}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, _ := NewOllamaProvider(model.EmbeddingConfig{BaseURL: server.URL, Model: "mxbai-embed-large"})
			_, err := provider.Embed(context.Background(), []string{"text"})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if IsTransient(err) != tt.transient {
				t.Errorf("Expected transient=%v, got error %v", tt.transient, err)
			}
			if !tt.transient && !IsFatal(err) {
				t.Errorf("Expected fatal error, got %v", err)
			}
		})
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models": []}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(model.EmbeddingConfig{BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}

	server.Close()
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be unavailable after server shutdown")
	}
}
