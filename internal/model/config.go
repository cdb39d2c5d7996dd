package model

import (
	"fmt"
	"regexp"
	"time"
)

// Config holds every tunable threshold and lookup table used by the engine.
// The engine never reads the environment; callers build a Config and pass it in.
type Config struct {
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize" mapstructure:"normalize"`
	Match     MatchConfig     `json:"match" yaml:"match" mapstructure:"match"`
	Gaps      GapConfig       `json:"gaps" yaml:"gaps" mapstructure:"gaps"`
	Score     ScoreConfig     `json:"score" yaml:"score" mapstructure:"score"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Tables    Tables          `json:"tables" yaml:"tables" mapstructure:"tables"`
}

// NormalizeConfig controls cleaning, trust weighting and deduplication
type NormalizeConfig struct {
	MinEvidenceLength int                    `json:"min_evidence_length" yaml:"min_evidence_length" mapstructure:"min_evidence_length"` // runes
	MaxEvidenceLength int                    `json:"max_evidence_length" yaml:"max_evidence_length" mapstructure:"max_evidence_length"` // runes
	DedupThreshold    float64                `json:"dedup_threshold" yaml:"dedup_threshold" mapstructure:"dedup_threshold"`             // token Jaccard
	TrustWeights      map[SourceKind]float64 `json:"trust_weights" yaml:"trust_weights" mapstructure:"trust_weights"`
	RankDecay         float64                `json:"rank_decay" yaml:"rank_decay" mapstructure:"rank_decay"`          // per search rank below the first
	MinWebTrust       float64                `json:"min_web_trust" yaml:"min_web_trust" mapstructure:"min_web_trust"` // floor after decay
	DomainTrust       map[string]float64     `json:"domain_trust,omitempty" yaml:"domain_trust,omitempty" mapstructure:"domain_trust"` // base weight for web results by host suffix
}

// MatchConfig controls similarity weighting and confidence tiers
type MatchConfig struct {
	SemanticWeight       float64 `json:"semantic_weight" yaml:"semantic_weight" mapstructure:"semantic_weight"`
	LexicalWeight        float64 `json:"lexical_weight" yaml:"lexical_weight" mapstructure:"lexical_weight"`
	HighThreshold        float64 `json:"high_threshold" yaml:"high_threshold" mapstructure:"high_threshold"`
	MediumThreshold      float64 `json:"medium_threshold" yaml:"medium_threshold" mapstructure:"medium_threshold"`
	NotFoundFloor        float64 `json:"not_found_floor" yaml:"not_found_floor" mapstructure:"not_found_floor"` // scores at or below are NOT_FOUND
	SupportThreshold     float64 `json:"support_threshold" yaml:"support_threshold" mapstructure:"support_threshold"`
	SupportMargin        float64 `json:"support_margin" yaml:"support_margin" mapstructure:"support_margin"`
	MaxSupporting        int     `json:"max_supporting" yaml:"max_supporting" mapstructure:"max_supporting"`
	QuestionMinLength    int     `json:"question_min_length" yaml:"question_min_length" mapstructure:"question_min_length"`
	CapUncorroboratedWeb bool    `json:"cap_uncorroborated_web" yaml:"cap_uncorroborated_web" mapstructure:"cap_uncorroborated_web"`
	StrictCategoryFilter bool    `json:"strict_category_filter" yaml:"strict_category_filter" mapstructure:"strict_category_filter"`
	Workers              int     `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// GapConfig controls gap classification
type GapConfig struct {
	StrictCategories []Category `json:"strict_categories" yaml:"strict_categories" mapstructure:"strict_categories"` // MEDIUM counts as WEAK here
}

// ScoreConfig controls aggregation into the risk report
type ScoreConfig struct {
	TierPoints          map[ConfidenceTier]float64 `json:"tier_points" yaml:"tier_points" mapstructure:"tier_points"`
	LowRiskCoverage     float64                    `json:"low_risk_coverage" yaml:"low_risk_coverage" mapstructure:"low_risk_coverage"`          // coverage >= this is LOW risk
	MediumRiskCoverage  float64                    `json:"medium_risk_coverage" yaml:"medium_risk_coverage" mapstructure:"medium_risk_coverage"` // >= this is MEDIUM
	HighRiskCoverage    float64                    `json:"high_risk_coverage" yaml:"high_risk_coverage" mapstructure:"high_risk_coverage"`       // >= this is HIGH, below is CRITICAL
	MaxRecommendations  int                        `json:"max_recommendations" yaml:"max_recommendations" mapstructure:"max_recommendations"`
	DomainMediumRatio   float64                    `json:"domain_medium_ratio" yaml:"domain_medium_ratio" mapstructure:"domain_medium_ratio"` // weak share above this is a MEDIUM domain risk
	DomainHighRatio     float64                    `json:"domain_high_ratio" yaml:"domain_high_ratio" mapstructure:"domain_high_ratio"`
	IncludeThreats      bool                       `json:"include_threats" yaml:"include_threats" mapstructure:"include_threats"`
	DocRequestMissing   int                        `json:"doc_request_missing" yaml:"doc_request_missing" mapstructure:"doc_request_missing"` // more NOT_FOUND than this asks for a documentation package
	MaxIncidents        int                        `json:"max_incidents" yaml:"max_incidents" mapstructure:"max_incidents"`
}

// EmbeddingConfig selects the semantic similarity backend
type EmbeddingConfig struct {
	Provider   string        `json:"provider" yaml:"provider" mapstructure:"provider"` // local, openai, ollama, none
	Model      string        `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	BaseURL    string        `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey     string        `json:"-" yaml:"-" mapstructure:"api_key"`
	Dimensions int           `json:"dimensions" yaml:"dimensions" mapstructure:"dimensions"` // local embedder only
	Timeout    time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	RateLimit  float64       `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	Burst      int           `json:"burst" yaml:"burst" mapstructure:"burst"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	BatchSize  int           `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	HTTPProxy  string        `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls the embedding vector cache
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"` // empty disables the disk layer
	TTL     time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// StoreConfig points at the assessment database
type StoreConfig struct {
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"` // sqlite path or postgres:// URL
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr" mapstructure:"addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`
}

// Embedding providers understood by the CLI
const (
	EmbeddingLocal  = "local"
	EmbeddingOpenAI = "openai"
	EmbeddingOllama = "ollama"
	EmbeddingNone   = "none"
)

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Normalize: NormalizeConfig{
			MinEvidenceLength: 15,
			MaxEvidenceLength: 1000,
			DedupThreshold:    0.9,
			TrustWeights: map[SourceKind]float64{
				SourceDocument:  1.0,
				SourceUserInput: 0.9,
				SourceTicket:    0.75,
				SourceWebSearch: 0.6,
			},
			RankDecay:   0.95,
			MinWebTrust: 0.3,
		},
		Match: MatchConfig{
			SemanticWeight:       0.7,
			LexicalWeight:        0.3,
			HighThreshold:        0.6,
			MediumThreshold:      0.4,
			NotFoundFloor:        0.15,
			SupportThreshold:     0.35,
			SupportMargin:        0.2,
			MaxSupporting:        5,
			QuestionMinLength:    20,
			CapUncorroboratedWeb: true,
			StrictCategoryFilter: false,
			Workers:              8,
		},
		Gaps: GapConfig{
			StrictCategories: []Category{CategoryCompliance, CategoryCertification},
		},
		Score: ScoreConfig{
			TierPoints: map[ConfidenceTier]float64{
				TierHigh:     1.0,
				TierMedium:   0.6,
				TierLow:      0.3,
				TierNotFound: 0,
			},
			LowRiskCoverage:    70,
			MediumRiskCoverage: 50,
			HighRiskCoverage:   30,
			MaxRecommendations: 10,
			DomainMediumRatio:  0.5,
			DomainHighRatio:    0.7,
			IncludeThreats:     true,
			DocRequestMissing:  5,
			MaxIncidents:       5,
		},
		Embedding: EmbeddingConfig{
			Provider:   EmbeddingLocal,
			Dimensions: 512,
			Timeout:    30 * time.Second,
			RateLimit:  5,
			Burst:      2,
			MaxRetries: 3,
			BatchSize:  64,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Tables: DefaultTables(),
	}
}

// Validate checks that thresholds are ordered and tables are usable
func (c Config) Validate() error {
	n := c.Normalize
	if n.MinEvidenceLength < 1 {
		return fmt.Errorf("normalize.min_evidence_length must be positive, got %d", n.MinEvidenceLength)
	}
	if n.MaxEvidenceLength < n.MinEvidenceLength {
		return fmt.Errorf("normalize.max_evidence_length (%d) must be >= min_evidence_length (%d)", n.MaxEvidenceLength, n.MinEvidenceLength)
	}
	if n.DedupThreshold <= 0 || n.DedupThreshold > 1 {
		return fmt.Errorf("normalize.dedup_threshold must be in (0,1], got %v", n.DedupThreshold)
	}
	for _, kind := range SourceKinds {
		w, ok := n.TrustWeights[kind]
		if !ok {
			return fmt.Errorf("normalize.trust_weights missing %s", kind)
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("normalize.trust_weights[%s] must be in [0,1], got %v", kind, w)
		}
	}
	if n.RankDecay <= 0 || n.RankDecay > 1 {
		return fmt.Errorf("normalize.rank_decay must be in (0,1], got %v", n.RankDecay)
	}
	if n.MinWebTrust < 0 || n.MinWebTrust > 1 {
		return fmt.Errorf("normalize.min_web_trust must be in [0,1], got %v", n.MinWebTrust)
	}
	for domain, w := range n.DomainTrust {
		if w < 0 || w > 1 {
			return fmt.Errorf("normalize.domain_trust[%s] must be in [0,1], got %v", domain, w)
		}
	}

	m := c.Match
	if m.SemanticWeight < 0 || m.LexicalWeight < 0 || m.SemanticWeight+m.LexicalWeight <= 0 {
		return fmt.Errorf("match weights must be non-negative with a positive sum, got semantic=%v lexical=%v", m.SemanticWeight, m.LexicalWeight)
	}
	if !(0 <= m.NotFoundFloor && m.NotFoundFloor < m.MediumThreshold && m.MediumThreshold < m.HighThreshold && m.HighThreshold <= 1) {
		return fmt.Errorf("match thresholds must satisfy 0 <= not_found_floor < medium < high <= 1, got %v/%v/%v",
			m.NotFoundFloor, m.MediumThreshold, m.HighThreshold)
	}
	if m.SupportThreshold < 0 || m.SupportMargin < 0 {
		return fmt.Errorf("match.support_threshold and support_margin must be non-negative")
	}
	if m.MaxSupporting < 0 {
		return fmt.Errorf("match.max_supporting must be non-negative, got %d", m.MaxSupporting)
	}
	if m.QuestionMinLength < 0 {
		return fmt.Errorf("match.question_min_length must be non-negative, got %d", m.QuestionMinLength)
	}
	if m.Workers < 1 {
		return fmt.Errorf("match.workers must be at least 1, got %d", m.Workers)
	}

	s := c.Score
	for _, tier := range Tiers {
		if _, ok := s.TierPoints[tier]; !ok {
			return fmt.Errorf("score.tier_points missing %s", tier)
		}
	}
	if s.TierPoints[TierHigh] > 1 || s.TierPoints[TierNotFound] < 0 {
		return fmt.Errorf("score.tier_points must lie in [0,1]")
	}
	if !(s.HighRiskCoverage <= s.MediumRiskCoverage && s.MediumRiskCoverage <= s.LowRiskCoverage && s.LowRiskCoverage <= 100) {
		return fmt.Errorf("score coverage thresholds must satisfy high <= medium <= low <= 100, got %v/%v/%v",
			s.HighRiskCoverage, s.MediumRiskCoverage, s.LowRiskCoverage)
	}
	if s.MaxRecommendations < 1 {
		return fmt.Errorf("score.max_recommendations must be at least 1, got %d", s.MaxRecommendations)
	}
	if s.DocRequestMissing < 0 || s.MaxIncidents < 0 {
		return fmt.Errorf("score.doc_request_missing and max_incidents must be non-negative")
	}
	if s.DomainMediumRatio > s.DomainHighRatio {
		return fmt.Errorf("score.domain_medium_ratio (%v) must not exceed domain_high_ratio (%v)", s.DomainMediumRatio, s.DomainHighRatio)
	}

	switch c.Embedding.Provider {
	case EmbeddingLocal, EmbeddingOpenAI, EmbeddingOllama, EmbeddingNone:
	default:
		return fmt.Errorf("embedding.provider %q is not one of local, openai, ollama, none", c.Embedding.Provider)
	}
	if c.Embedding.Provider == EmbeddingLocal && c.Embedding.Dimensions < 16 {
		return fmt.Errorf("embedding.dimensions must be at least 16, got %d", c.Embedding.Dimensions)
	}

	return c.Tables.Validate()
}

// Validate checks that every rule pattern compiles and every category rule names a known category
func (t Tables) Validate() error {
	for _, rule := range t.CategoryRules {
		if _, ok := ParseCategory(string(rule.Category)); !ok || rule.Category == "" {
			return fmt.Errorf("tables.category_rules: unknown category %q", rule.Category)
		}
		for _, p := range rule.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("tables.category_rules[%s]: bad pattern %q: %w", rule.Category, p, err)
			}
		}
	}
	for _, d := range t.Domains {
		if d.Name == "" {
			return fmt.Errorf("tables.domains: rule without a name")
		}
	}
	return nil
}
