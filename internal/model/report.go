package model

import "strings"

// RiskReport is the aggregated assessment verdict.
// It is derived entirely from match results and gaps; identical inputs give an identical report.
type RiskReport struct {
	OverallScore          int              `json:"overall_score" yaml:"overall_score"` // 0-100 point average
	OverallLevel          RiskLevel        `json:"overall_level" yaml:"overall_level"` // Driven by coverage
	Coverage              float64          `json:"coverage" yaml:"coverage"`           // Percent of questions answered HIGH/MEDIUM
	CategoryScores        map[Category]int `json:"category_scores" yaml:"category_scores"`
	RankedRecommendations []Recommendation `json:"ranked_recommendations" yaml:"ranked_recommendations"`
	Gaps                  []Gap            `json:"gaps" yaml:"gaps"`

	Threats                []ThreatScore          `json:"threats,omitempty" yaml:"threats,omitempty"` // STRIDE relabeling of question scores
	Risks                  []DomainRisk           `json:"risks,omitempty" yaml:"risks,omitempty"`
	IncidentThreats        []IncidentThreat       `json:"incident_threats,omitempty" yaml:"incident_threats,omitempty"`
	AttackSurfaces         []AttackSurface        `json:"attack_surfaces,omitempty" yaml:"attack_surfaces,omitempty"`
	Mitigations            []Mitigation           `json:"mitigations_needed,omitempty" yaml:"mitigations_needed,omitempty"` // One per threat with a HIGH risk
	ConfidenceDistribution map[ConfidenceTier]int `json:"confidence_distribution" yaml:"confidence_distribution"`
	Summary                Summary                `json:"summary" yaml:"summary"`
	Degraded               bool                   `json:"degraded,omitempty" yaml:"degraded,omitempty"` // Some questions were scored lexically only
	Signals                []Signal               `json:"signals" yaml:"signals"`
}

// RiskLevel is the overall verdict; risk is inverse to coverage
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Rank orders levels from LOW (0) to CRITICAL (3); unknown levels rank -1
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// ParseRiskLevel converts a case-insensitive level name
func ParseRiskLevel(s string) (RiskLevel, bool) {
	l := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	return l, l.Rank() >= 0
}

// Recommendation is a ranked remediation derived from a gap. The
// documentation-package request covers several questions and has no QuestionID.
type Recommendation struct {
	Priority    int      `json:"priority" yaml:"priority"` // 1 is most urgent
	QuestionID  string   `json:"question_id,omitempty" yaml:"question_id,omitempty"`
	QuestionIDs []string `json:"question_ids,omitempty" yaml:"question_ids,omitempty"`
	Category    Category `json:"category" yaml:"category"`
	GapKind     GapKind  `json:"gap_kind" yaml:"gap_kind"`
	Action      string   `json:"action" yaml:"action"`
	Reason      string   `json:"reason" yaml:"reason"`
}

// Threat is a STRIDE threat category
type Threat string

const (
	ThreatSpoofing              Threat = "Spoofing"
	ThreatTampering             Threat = "Tampering"
	ThreatRepudiation           Threat = "Repudiation"
	ThreatInformationDisclosure Threat = "Information-disclosure"
	ThreatDenialOfService       Threat = "Denial-of-service"
	ThreatElevationOfPrivilege  Threat = "Elevation-of-privilege"
)

// ThreatHistoricalIncident labels threats raised by publicly reported
// incidents. It is not a STRIDE category and never appears in Threats.
const ThreatHistoricalIncident Threat = "Historical-incident"

// Threats lists STRIDE categories in their conventional order
var Threats = []Threat{
	ThreatSpoofing,
	ThreatTampering,
	ThreatRepudiation,
	ThreatInformationDisclosure,
	ThreatDenialOfService,
	ThreatElevationOfPrivilege,
}

// ThreatScore is the point average of the questions mapped to one threat
type ThreatScore struct {
	Threat      Threat   `json:"threat" yaml:"threat"`
	Score       int      `json:"score" yaml:"score"`
	Questions   int      `json:"questions" yaml:"questions"`
	QuestionIDs []string `json:"question_ids" yaml:"question_ids"`
}

// DomainRisk flags a control domain where most questions lack solid evidence
type DomainRisk struct {
	Domain            string    `json:"domain" yaml:"domain"` // e.g. access_control, data_protection
	Level             RiskLevel `json:"level" yaml:"level"`
	WeakRatio         float64   `json:"weak_ratio" yaml:"weak_ratio"` // LOW + NOT_FOUND over questions in the domain
	Threat            Threat    `json:"threat" yaml:"threat"`
	Description       string    `json:"description" yaml:"description"`
	Impact            string    `json:"impact" yaml:"impact"`
	AffectedQuestions []string  `json:"affected_questions" yaml:"affected_questions"`
	SuggestedControls []string  `json:"suggested_controls" yaml:"suggested_controls"`
}

// IncidentThreat is a HIGH threat raised by a publicly reported incident
type IncidentThreat struct {
	Title             string    `json:"title" yaml:"title"`
	Year              string    `json:"year,omitempty" yaml:"year,omitempty"`
	URL               string    `json:"url,omitempty" yaml:"url,omitempty"`
	Level             RiskLevel `json:"level" yaml:"level"`
	Description       string    `json:"description" yaml:"description"`
	Impact            string    `json:"impact" yaml:"impact"`
	SuggestedControls []string  `json:"suggested_controls" yaml:"suggested_controls"`
}

// AttackSurface is one way the vendor is exposed, derived from the vendor profile
type AttackSurface struct {
	Surface     string    `json:"surface" yaml:"surface"` // Data Storage, System Integration, Service Access
	Description string    `json:"description" yaml:"description"`
	Exposure    RiskLevel `json:"exposure" yaml:"exposure"` // HIGH or MEDIUM
}

// Mitigation groups the controls needed for one threat with HIGH risks.
// Sources names the domains or incidents that raised it, in report order.
type Mitigation struct {
	Threat   Threat   `json:"threat" yaml:"threat"`
	Action   string   `json:"action" yaml:"action"`
	Controls []string `json:"controls" yaml:"controls"`
	Sources  []string `json:"sources" yaml:"sources"`
}

// Summary carries headline counts for renderers
type Summary struct {
	TotalQuestions    int             `json:"total_questions" yaml:"total_questions"`
	Answered          int             `json:"answered" yaml:"answered"`
	EvidenceCount     int             `json:"evidence_count" yaml:"evidence_count"`
	GapCounts         map[GapKind]int `json:"gap_counts" yaml:"gap_counts"`
	HighRiskDomains   int             `json:"high_risk_domains" yaml:"high_risk_domains"`
	MediumRiskDomains int             `json:"medium_risk_domains" yaml:"medium_risk_domains"`
	PublicIncidents   int             `json:"public_incidents_found" yaml:"public_incidents_found"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type" yaml:"type"`
	Severity    SignalSeverity         `json:"severity" yaml:"severity"`
	Description string                 `json:"description" yaml:"description"`
	Data        map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"` // Formulas and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCoverage        SignalType = "coverage"         // Answered-to-total ratio
	SignalPointAverage    SignalType = "point_average"    // Tier points over questions
	SignalGaps            SignalType = "gaps"             // Gap counts by kind
	SignalSourceDiversity SignalType = "source_diversity" // Answers backed by more than one source kind
	SignalDegraded        SignalType = "degraded"         // Semantic similarity unavailable
	SignalContradiction   SignalType = "contradiction"    // Sources disagree
	SignalIncidents       SignalType = "public_incidents" // Publicly reported incidents supplied with the input
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
