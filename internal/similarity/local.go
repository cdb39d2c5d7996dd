package similarity

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// LocalEmbedder is a deterministic in-process embedder. Tokens are folded into
// concepts through a synonym lexicon (mfa, 2fa and multi-factor share one
// feature), remaining tokens are stemmed, and features are hashed into a fixed
// number of signed dimensions with 1+ln(tf) weights.
type LocalEmbedder struct {
	tokenizer *Tokenizer
	concepts  map[string]string
	dims      int
}

// NewLocalEmbedder creates a local embedder. Nil concepts use the default lexicon.
func NewLocalEmbedder(tokenizer *Tokenizer, concepts []model.Concept, dims int) *LocalEmbedder {
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil)
	}
	if concepts == nil {
		concepts = model.DefaultTables().Concepts
	}
	if dims <= 0 {
		dims = 512
	}

	lexicon := make(map[string]string)
	for _, c := range concepts {
		for _, term := range c.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if _, taken := lexicon[term]; !taken {
				lexicon[term] = c.Name
			}
		}
	}

	return &LocalEmbedder{tokenizer: tokenizer, concepts: lexicon, dims: dims}
}

// Name returns the backend name
func (l *LocalEmbedder) Name() string {
	return "local"
}

// Embed returns one vector per text. It never fails.
func (l *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = l.vector(text)
	}
	return out, nil
}

// Features returns the weighted features of text, for diagnostics and tests
func (l *LocalEmbedder) Features(text string) map[string]float64 {
	tf := make(map[string]int)
	for _, tok := range l.tokenizer.Tokens(text) {
		tf[l.feature(tok)]++
	}
	weights := make(map[string]float64, len(tf))
	for f, n := range tf {
		weights[f] = 1 + math.Log(float64(n))
	}
	return weights
}

func (l *LocalEmbedder) feature(token string) string {
	if c, ok := l.concepts[token]; ok {
		return "c:" + c
	}
	stem := Stem(token)
	if c, ok := l.concepts[stem]; ok {
		return "c:" + c
	}
	return "t:" + stem
}

func (l *LocalEmbedder) vector(text string) []float32 {
	weights := l.Features(text)

	// Accumulate in sorted order so colliding features always sum identically.
	features := make([]string, 0, len(weights))
	for f := range weights {
		features = append(features, f)
	}
	sort.Strings(features)

	acc := make([]float64, l.dims)
	for _, f := range features {
		h := fnv.New64a()
		_, _ = h.Write([]byte(f))
		sum := h.Sum64()
		idx := int(sum % uint64(l.dims))
		if sum>>63 == 1 {
			acc[idx] -= weights[f]
		} else {
			acc[idx] += weights[f]
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, l.dims)
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}
