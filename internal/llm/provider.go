// Package llm talks to remote embedding backends and wraps them with rate
// limiting, retries and a vector cache.
package llm

import (
	"context"
	"net/http"
	"net/url"

	"github.com/niana0/vendor-security-assessment-tool/internal/similarity"
)

// Provider is a remote embedding backend
type Provider interface {
	similarity.Embedder
	// Model returns the embedding model the provider requests
	Model() string
	// IsAvailable checks if the backend is reachable and configured
	IsAvailable(ctx context.Context) bool
}

// newProxyFunc returns a transport proxy selector. Without explicit proxies
// it falls back to the environment.
func newProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// chunk splits texts into batches of at most size
func chunk(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[start:end])
	}
	return out
}
