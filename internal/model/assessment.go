package model

import "time"

// AssessmentInput is everything needed to assess one vendor. Profile and
// Incidents are optional context for the threat model.
type AssessmentInput struct {
	Vendor    string             `json:"vendor" yaml:"vendor"`
	Questions []Question         `json:"questions" yaml:"questions"`
	Evidence  []RawEvidenceBatch `json:"evidence" yaml:"evidence"`
	Profile   *VendorProfile     `json:"profile,omitempty" yaml:"profile,omitempty"`
	Incidents []Incident         `json:"incidents,omitempty" yaml:"incidents,omitempty"`
}

// VendorContext returns the threat-model context carried by the input
func (in AssessmentInput) VendorContext() VendorContext {
	return VendorContext{Profile: in.Profile, Incidents: in.Incidents}
}

// VendorProfile describes what the vendor provides, stores and connects to.
// Fields are free text as collected from a vendor overview.
type VendorProfile struct {
	Services     string `json:"services,omitempty" yaml:"services,omitempty"`
	DataStored   string `json:"data_stored,omitempty" yaml:"data_stored,omitempty"`
	Integrations string `json:"integrations,omitempty" yaml:"integrations,omitempty"`
}

// Incident is a publicly reported security incident involving the vendor
type Incident struct {
	Title   string `json:"title" yaml:"title"`
	Year    string `json:"year,omitempty" yaml:"year,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// VendorContext is the optional vendor knowledge the scorer folds into the threat model
type VendorContext struct {
	Profile   *VendorProfile
	Incidents []Incident
}

// Assessment wraps one run of the engine. The report itself carries no
// timestamps; CreatedAt and Duration live here.
type Assessment struct {
	ID        string        `json:"id" yaml:"id"`
	Vendor    string        `json:"vendor" yaml:"vendor"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Backend   string        `json:"similarity_backend" yaml:"similarity_backend"`
	Evidence  *EvidenceSet  `json:"evidence" yaml:"evidence"`
	Results   []MatchResult `json:"results" yaml:"results"`
	Report    *RiskReport   `json:"report" yaml:"report"`
}

// AssessmentSummary is the listing view of a stored assessment
type AssessmentSummary struct {
	ID           string    `json:"id" yaml:"id"`
	Vendor       string    `json:"vendor" yaml:"vendor"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	OverallScore int       `json:"overall_score" yaml:"overall_score"`
	OverallLevel RiskLevel `json:"overall_level" yaml:"overall_level"`
	Coverage     float64   `json:"coverage" yaml:"coverage"`
}

// Summarize returns the listing view of a
func (a *Assessment) Summarize() AssessmentSummary {
	s := AssessmentSummary{ID: a.ID, Vendor: a.Vendor, CreatedAt: a.CreatedAt}
	if a.Report != nil {
		s.OverallScore = a.Report.OverallScore
		s.OverallLevel = a.Report.OverallLevel
		s.Coverage = a.Report.Coverage
	}
	return s
}
