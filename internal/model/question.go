package model

import (
	"strings"
	"unicode/utf8"
)

// Question is a single questionnaire prompt
type Question struct {
	ID       string   `json:"id" yaml:"id"`                                 // Stable identifier (row/sheet position)
	Text     string   `json:"text" yaml:"text"`                             // The prompt itself
	Category Category `json:"category,omitempty" yaml:"category,omitempty"` // Optional hint from the questionnaire
}

// IsValid reports whether the text looks like a real question: it contains a
// question mark and is longer than minLength runes.
func (q Question) IsValid(minLength int) bool {
	text := strings.TrimSpace(q.Text)
	return strings.Contains(text, "?") && utf8.RuneCountInString(text) > minLength
}

// ConfidenceTier buckets how strongly evidence supports a question
type ConfidenceTier string

const (
	TierHigh     ConfidenceTier = "HIGH"
	TierMedium   ConfidenceTier = "MEDIUM"
	TierLow      ConfidenceTier = "LOW"
	TierNotFound ConfidenceTier = "NOT_FOUND"
)

// Tiers lists the confidence tiers from strongest to weakest
var Tiers = []ConfidenceTier{TierHigh, TierMedium, TierLow, TierNotFound}

// Rank orders tiers; a higher rank means stronger support.
func (t ConfidenceTier) Rank() int {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

// Answered reports whether the tier counts towards coverage (HIGH or MEDIUM)
func (t ConfidenceTier) Answered() bool {
	return t == TierHigh || t == TierMedium
}

// ScoredEvidence pairs an evidence item with its similarity breakdown for one question.
// Evidence points into the EvidenceSet the match ran against.
type ScoredEvidence struct {
	Evidence *Evidence `json:"evidence" yaml:"evidence"`
	Score    float64   `json:"score" yaml:"score"`       // Combined similarity
	Semantic float64   `json:"semantic" yaml:"semantic"` // Embedding cosine, clamped to [0,1]
	Lexical  float64   `json:"lexical" yaml:"lexical"`   // Question-token overlap
}

// MatchResult is the outcome of matching one question against the evidence set
type MatchResult struct {
	QuestionID      string           `json:"question_id" yaml:"question_id"`
	QuestionIndex   int              `json:"question_index" yaml:"question_index"`
	QuestionText    string           `json:"question_text" yaml:"question_text"`
	Category        Category         `json:"category" yaml:"category"`               // Hint if given, otherwise inferred from the question text
	CategoryHint    Category         `json:"category_hint,omitempty" yaml:"category_hint,omitempty"`
	Best            *ScoredEvidence  `json:"best_evidence,omitempty" yaml:"best_evidence,omitempty"` // nil when NOT_FOUND
	SimilarityScore float64          `json:"similarity_score" yaml:"similarity_score"`
	Tier            ConfidenceTier   `json:"confidence_tier" yaml:"confidence_tier"`
	Supporting      []ScoredEvidence `json:"supporting_evidence,omitempty" yaml:"supporting_evidence,omitempty"`
	SourceDiversity int              `json:"source_diversity" yaml:"source_diversity"` // Distinct source kinds among best + supporting
	Degraded        bool             `json:"degraded,omitempty" yaml:"degraded,omitempty"` // Scored lexically only
}

// TaggedCategory returns the caller-supplied category hint, or GENERAL for
// untagged questions. Inferred categories never count as tags.
func (r MatchResult) TaggedCategory() Category {
	if r.CategoryHint == "" {
		return CategoryGeneral
	}
	return r.CategoryHint
}

// Candidates returns best followed by supporting evidence
func (r MatchResult) Candidates() []ScoredEvidence {
	if r.Best == nil {
		return nil
	}
	out := make([]ScoredEvidence, 0, 1+len(r.Supporting))
	out = append(out, *r.Best)
	return append(out, r.Supporting...)
}

// GapKind classifies an evidence deficiency
type GapKind string

const (
	GapMissing       GapKind = "MISSING"
	GapContradictory GapKind = "CONTRADICTORY"
	GapWeak          GapKind = "WEAK"
)

// Severity orders gap kinds; higher is more severe.
func (k GapKind) Severity() int {
	switch k {
	case GapMissing:
		return 3
	case GapContradictory:
		return 2
	case GapWeak:
		return 1
	default:
		return 0
	}
}

// Gap is a detected deficiency for a specific question
type Gap struct {
	QuestionID      string       `json:"question_id" yaml:"question_id"`
	QuestionIndex   int          `json:"question_index" yaml:"question_index"`
	Category        Category     `json:"category" yaml:"category"`
	Kind            GapKind      `json:"kind" yaml:"kind"`
	Detail          string       `json:"detail" yaml:"detail"`
	SuggestedAction string       `json:"suggested_action" yaml:"suggested_action"`
	SourceKinds     []SourceKind `json:"source_kinds,omitempty" yaml:"source_kinds,omitempty"`
	EvidenceIDs     []string     `json:"evidence_ids,omitempty" yaml:"evidence_ids,omitempty"`
}
