package similarity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// Profile is the precomputed representation of one text
type Profile struct {
	Stems  map[string]struct{}
	Vector []float32 // nil when semantic scoring is unavailable
}

// Breakdown is the similarity of one question/evidence pair
type Breakdown struct {
	Score    float64
	Semantic float64
	Lexical  float64
}

// Scorer combines semantic and lexical similarity with fixed weights
type Scorer struct {
	tokenizer      *Tokenizer
	embedder       Embedder
	semanticWeight float64
	lexicalWeight  float64
	logger         *slog.Logger
}

// NewScorer creates a hybrid scorer. A nil embedder means lexical-only scoring.
func NewScorer(cfg model.MatchConfig, tokenizer *Tokenizer, embedder Embedder) *Scorer {
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil)
	}
	return &Scorer{
		tokenizer:      tokenizer,
		embedder:       embedder,
		semanticWeight: cfg.SemanticWeight,
		lexicalWeight:  cfg.LexicalWeight,
		logger:         slog.Default(),
	}
}

// SetLogger replaces the logger
func (s *Scorer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Backend names the semantic backend, or "lexical" when there is none
func (s *Scorer) Backend() string {
	if s.embedder == nil {
		return "lexical"
	}
	return s.embedder.Name()
}

// Profiles computes stems and vectors for texts. When the embedder is missing
// or fails, vectors are left nil and degraded is true; the error is logged, not returned.
func (s *Scorer) Profiles(ctx context.Context, texts []string) (profiles []Profile, degraded bool) {
	profiles = make([]Profile, len(texts))
	for i, text := range texts {
		profiles[i].Stems = s.tokenizer.Stems(text)
	}
	if len(texts) == 0 {
		return profiles, s.embedder == nil
	}
	if s.embedder == nil {
		return profiles, true
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("embedder %s returned %d vectors for %d texts", s.embedder.Name(), len(vectors), len(texts))
	}
	if err != nil {
		s.logger.Warn("semantic similarity unavailable, falling back to lexical scoring",
			"embedder", s.embedder.Name(), "error", err)
		return profiles, true
	}

	for i := range profiles {
		profiles[i].Vector = vectors[i]
	}
	return profiles, false
}

// Score compares a question profile with an evidence profile. Without vectors
// on both sides the score is the lexical overlap alone.
func (s *Scorer) Score(question, evidence Profile) Breakdown {
	lexical := Overlap(question.Stems, evidence.Stems)
	if question.Vector == nil || evidence.Vector == nil {
		return Breakdown{Score: lexical, Lexical: lexical}
	}

	semantic := Cosine(question.Vector, evidence.Vector)
	total := s.semanticWeight + s.lexicalWeight
	score := (s.semanticWeight*semantic + s.lexicalWeight*lexical) / total
	return Breakdown{Score: score, Semantic: semantic, Lexical: lexical}
}
