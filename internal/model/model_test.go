package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestQuestionIsValid(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Does the vendor hold SOC 2 certification?", true},
		{"Is MFA on?", false},
		{"The vendor holds SOC 2 certification", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := (Question{Text: tt.text}).IsValid(20); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParseSourceKind(t *testing.T) {
	tests := map[string]SourceKind{
		"document":   SourceDocument,
		"web-search": SourceWebSearch,
		"Web Search": SourceWebSearch,
		"jira":       SourceTicket,
		"USER_INPUT": SourceUserInput,
	}
	for in, want := range tests {
		got, ok := ParseSourceKind(in)
		if !ok || got != want {
			t.Errorf("ParseSourceKind(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseSourceKind("fax"); ok {
		t.Error("ParseSourceKind(fax) should fail")
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" certification "); !ok || c != CategoryCertification {
		t.Errorf("ParseCategory = %q, %v", c, ok)
	}
	if c, ok := ParseCategory(""); !ok || c != "" {
		t.Errorf("empty category should be accepted as no hint, got %q, %v", c, ok)
	}
	if _, ok := ParseCategory("PRIVACY"); ok {
		t.Error("unknown category should be rejected")
	}
}

func TestRiskLevel(t *testing.T) {
	if RiskLow.Rank() >= RiskMedium.Rank() || RiskHigh.Rank() >= RiskCritical.Rank() {
		t.Error("risk levels must rank LOW < MEDIUM < HIGH < CRITICAL")
	}
	if l, ok := ParseRiskLevel("high"); !ok || l != RiskHigh {
		t.Errorf("ParseRiskLevel(high) = %q, %v", l, ok)
	}
	if _, ok := ParseRiskLevel("severe"); ok {
		t.Error("ParseRiskLevel(severe) should fail")
	}
}

func TestEvidenceSet(t *testing.T) {
	var empty *EvidenceSet
	if empty.Len() != 0 || empty.Items() != nil {
		t.Error("nil set should be empty")
	}
	if _, ok := empty.Get("E1"); ok {
		t.Error("nil set should not find anything")
	}

	set := NewEvidenceSet([]Evidence{
		{ID: "E1", Text: "SOC 2 Type II certified", SourceKind: SourceDocument, SourceRef: "soc2.pdf", Rank: 3},
		{ID: "E2", Text: "Encryption at rest with AES-256", SourceKind: SourceDocument},
		{ID: "E3", Text: "Breach reported in 2023", SourceKind: SourceWebSearch, Rank: 1},
	})
	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}
	if ev, ok := set.Get("E3"); !ok || ev.SourceKind != SourceWebSearch {
		t.Errorf("Get(E3) = %+v, %v", ev, ok)
	}

	items := set.Items()
	items[0].Text = "mutated"
	if set.At(0).Text == "mutated" {
		t.Error("Items must return a copy")
	}

	batches := set.AsBatches()
	if len(batches) != 2 {
		t.Fatalf("AsBatches = %d batches, want 2", len(batches))
	}
	if batches[0].SourceKind != SourceDocument || len(batches[0].Items) != 2 {
		t.Errorf("first batch = %+v", batches[0])
	}
	if batches[0].Items[0].Ref != "soc2.pdf" || batches[0].Items[0].Rank != 3 {
		t.Errorf("ref/rank not preserved: %+v", batches[0].Items[0])
	}
}

func TestEvidenceSetJSON(t *testing.T) {
	set := NewEvidenceSet([]Evidence{
		{ID: "E1", Text: "SOC 2 Type II certified", SourceKind: SourceDocument, Category: CategoryCertification, TrustWeight: 1},
	})
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "[") {
		t.Errorf("set should encode as an array, got %s", data)
	}

	var decoded EvidenceSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	ev, ok := decoded.Get("E1")
	if !ok || ev.Category != CategoryCertification || ev.TrustWeight != 1 {
		t.Errorf("decoded = %+v, %v", ev, ok)
	}
}

func TestAssessmentSummarize(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := &Assessment{ID: "a1", Vendor: "Acme", CreatedAt: created}
	if s := a.Summarize(); s.ID != "a1" || s.OverallLevel != "" {
		t.Errorf("summary without report = %+v", s)
	}

	a.Report = &RiskReport{OverallScore: 72, OverallLevel: RiskLow, Coverage: 80}
	s := a.Summarize()
	if s.OverallScore != 72 || s.OverallLevel != RiskLow || s.Coverage != 80 || !s.CreatedAt.Equal(created) {
		t.Errorf("summary = %+v", s)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"dedup threshold", func(c *Config) { c.Normalize.DedupThreshold = 0 }},
		{"max below min length", func(c *Config) { c.Normalize.MaxEvidenceLength = 5 }},
		{"missing trust weight", func(c *Config) { delete(c.Normalize.TrustWeights, SourceTicket) }},
		{"zero weights", func(c *Config) { c.Match.SemanticWeight, c.Match.LexicalWeight = 0, 0 }},
		{"tier order", func(c *Config) { c.Match.MediumThreshold = 0.7 }},
		{"workers", func(c *Config) { c.Match.Workers = 0 }},
		{"coverage order", func(c *Config) { c.Score.MediumRiskCoverage = 80 }},
		{"missing tier points", func(c *Config) { delete(c.Score.TierPoints, TierLow) }},
		{"recommendations", func(c *Config) { c.Score.MaxRecommendations = 0 }},
		{"domain ratios", func(c *Config) { c.Score.DomainMediumRatio = 0.9 }},
		{"provider", func(c *Config) { c.Embedding.Provider = "bert" }},
		{"dimensions", func(c *Config) { c.Embedding.Dimensions = 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("written config does not validate: %v", err)
	}
	if cfg.Embedding.Timeout != 30*time.Second || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("durations not preserved: %v %v", cfg.Embedding.Timeout, cfg.Cache.TTL)
	}
}
