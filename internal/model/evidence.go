package model

import (
	"encoding/json"
	"strings"
)

// Evidence is a normalized fact snippet with provenance and trust metadata.
// Values are created by the normalizer and never modified afterwards.
type Evidence struct {
	ID          string     `json:"id" yaml:"id"`
	Text        string     `json:"text" yaml:"text"`
	SourceKind  SourceKind `json:"source_kind" yaml:"source_kind"`
	SourceRef   string     `json:"source_ref,omitempty" yaml:"source_ref,omitempty"` // file/page, URL, ticket key
	Category    Category   `json:"category" yaml:"category"`
	TrustWeight float64    `json:"trust_weight" yaml:"trust_weight"`
	Rank        int        `json:"rank,omitempty" yaml:"rank,omitempty"` // search rank or page number, 0 when unknown
}

// SourceKind identifies where a piece of evidence came from
type SourceKind string

const (
	SourceDocument  SourceKind = "DOCUMENT"
	SourceWebSearch SourceKind = "WEB_SEARCH"
	SourceTicket    SourceKind = "TICKET"
	SourceUserInput SourceKind = "USER_INPUT"
)

// SourceKinds lists every source kind in trust order (highest first)
var SourceKinds = []SourceKind{SourceDocument, SourceUserInput, SourceTicket, SourceWebSearch}

// ParseSourceKind converts a loosely formatted string ("web-search", "doc") to a SourceKind.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s))) {
	case "DOCUMENT", "DOC", "DOCS":
		return SourceDocument, true
	case "WEB_SEARCH", "WEB", "SEARCH":
		return SourceWebSearch, true
	case "TICKET", "TICKETS", "JIRA":
		return SourceTicket, true
	case "USER_INPUT", "USER", "INPUT":
		return SourceUserInput, true
	}
	return "", false
}

// Category classifies what an evidence item (or question) is about
type Category string

const (
	CategoryControl       Category = "CONTROL"
	CategoryIncident      Category = "INCIDENT"
	CategoryCertification Category = "CERTIFICATION"
	CategoryCompliance    Category = "COMPLIANCE"
	CategoryGeneral       Category = "GENERAL"
)

// Categories lists every category; the order is the categorizer's tie-break order.
var Categories = []Category{
	CategoryCertification,
	CategoryIncident,
	CategoryCompliance,
	CategoryControl,
	CategoryGeneral,
}

// ParseCategory converts a case-insensitive category name. Empty input yields ("", true).
func ParseCategory(s string) (Category, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", true
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// RawItem is a single unnormalized string handed over by a collaborator
type RawItem struct {
	Text string `json:"text" yaml:"text"`
	Ref  string `json:"ref,omitempty" yaml:"ref,omitempty"`   // overrides the batch SourceRef
	Rank int    `json:"rank,omitempty" yaml:"rank,omitempty"` // search rank (WEB_SEARCH) or page (DOCUMENT)
}

// RawEvidenceBatch groups raw items from one source
type RawEvidenceBatch struct {
	SourceKind SourceKind `json:"source_kind" yaml:"source_kind"`
	SourceRef  string     `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`
	Items      []RawItem  `json:"items" yaml:"items"`
}

// EvidenceSet is the deduplicated, ordered output of normalization.
// The zero value is an empty set.
type EvidenceSet struct {
	items []Evidence
	index map[string]int
}

// NewEvidenceSet builds a set from already-normalized evidence. The slice is copied.
func NewEvidenceSet(items []Evidence) *EvidenceSet {
	s := &EvidenceSet{
		items: make([]Evidence, len(items)),
		index: make(map[string]int, len(items)),
	}
	copy(s.items, items)
	for i, ev := range s.items {
		s.index[ev.ID] = i
	}
	return s
}

// Len returns the number of evidence items
func (s *EvidenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the evidence in set order
func (s *EvidenceSet) Items() []Evidence {
	if s == nil {
		return nil
	}
	out := make([]Evidence, len(s.items))
	copy(out, s.items)
	return out
}

// At returns a pointer to the i-th item. The pointee is shared and must be treated as read-only.
func (s *EvidenceSet) At(i int) *Evidence {
	return &s.items[i]
}

// Get looks up evidence by ID
func (s *EvidenceSet) Get(id string) (Evidence, bool) {
	if s == nil {
		return Evidence{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Evidence{}, false
	}
	return s.items[i], true
}

// AsBatches re-expresses the set as raw batches, one per run of consecutive items
// sharing a source kind. Order, refs and ranks are preserved.
func (s *EvidenceSet) AsBatches() []RawEvidenceBatch {
	var batches []RawEvidenceBatch
	for _, ev := range s.Items() {
		if n := len(batches); n == 0 || batches[n-1].SourceKind != ev.SourceKind {
			batches = append(batches, RawEvidenceBatch{SourceKind: ev.SourceKind})
		}
		last := &batches[len(batches)-1]
		last.Items = append(last.Items, RawItem{Text: ev.Text, Ref: ev.SourceRef, Rank: ev.Rank})
	}
	return batches
}

// MarshalJSON encodes the set as a plain array of evidence
func (s *EvidenceSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

// MarshalYAML encodes the set as a plain sequence of evidence
func (s *EvidenceSet) MarshalYAML() (interface{}, error) {
	return s.Items(), nil
}

// UnmarshalJSON decodes a plain array of evidence, rebuilding the id index
func (s *EvidenceSet) UnmarshalJSON(data []byte) error {
	var items []Evidence
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = *NewEvidenceSet(items)
	return nil
}
