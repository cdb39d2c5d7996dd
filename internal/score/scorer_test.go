package score

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

func newTestScorer() *Scorer {
	cfg := model.DefaultConfig()
	return NewScorer(cfg.Score, cfg.Tables)
}

func makeResults(tiers ...model.ConfidenceTier) []model.MatchResult {
	results := make([]model.MatchResult, len(tiers))
	for i, tier := range tiers {
		results[i] = model.MatchResult{
			QuestionID:    fmt.Sprintf("Q%d", i+1),
			QuestionIndex: i,
			QuestionText:  "Generic question about the vendor?",
			Category:      model.CategoryGeneral,
			Tier:          tier,
		}
	}
	return results
}

func repeatTier(tier model.ConfidenceTier, n int) []model.ConfidenceTier {
	out := make([]model.ConfidenceTier, n)
	for i := range out {
		out[i] = tier
	}
	return out
}

func TestScorer_ZeroQuestions(t *testing.T) {
	_, err := newTestScorer().Score(nil, nil)
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestScorer_CoverageBoundary(t *testing.T) {
	tests := []struct {
		name      string
		answered  int
		total     int
		wantLevel model.RiskLevel
	}{
		{"70% exactly", 7, 10, model.RiskLow},
		{"69.9%", 699, 1000, model.RiskMedium},
		{"50% exactly", 5, 10, model.RiskMedium},
		{"49.9%", 499, 1000, model.RiskHigh},
		{"30% exactly", 3, 10, model.RiskHigh},
		{"29.9%", 299, 1000, model.RiskCritical},
		{"all answered", 4, 4, model.RiskLow},
	}

	s := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiers := append(repeatTier(model.TierHigh, tt.answered), repeatTier(model.TierNotFound, tt.total-tt.answered)...)
			report, err := s.Score(makeResults(tiers...), nil)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if report.OverallLevel != tt.wantLevel {
				t.Errorf("Expected level %s, got %s (coverage %.2f)", tt.wantLevel, report.OverallLevel, report.Coverage)
			}
		})
	}
}

func TestScorer_OverallScore(t *testing.T) {
	s := newTestScorer()
	report, err := s.Score(makeResults(model.TierHigh, model.TierMedium, model.TierLow, model.TierNotFound), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// (1 + 0.6 + 0.3 + 0) / 4 = 0.475
	if report.OverallScore != 48 {
		t.Errorf("Expected overall score 48, got %d", report.OverallScore)
	}
	if report.Coverage != 50 {
		t.Errorf("Expected coverage 50, got %v", report.Coverage)
	}
	if report.OverallLevel != model.RiskMedium {
		t.Errorf("Expected MEDIUM, got %s", report.OverallLevel)
	}

	want := map[model.ConfidenceTier]int{model.TierHigh: 1, model.TierMedium: 1, model.TierLow: 1, model.TierNotFound: 1}
	if !reflect.DeepEqual(report.ConfidenceDistribution, want) {
		t.Errorf("Unexpected distribution: %v", report.ConfidenceDistribution)
	}
	if report.Summary.TotalQuestions != 4 || report.Summary.Answered != 2 {
		t.Errorf("Unexpected summary: %+v", report.Summary)
	}
}

func TestScorer_HalfPointRoundsUp(t *testing.T) {
	tests := []struct {
		name  string
		tiers []model.ConfidenceTier
		want  int
	}{
		// 0.9 / 4 = 0.225 sits exactly on a half hundredth
		{"three low one missing", []model.ConfidenceTier{model.TierLow, model.TierLow, model.TierLow, model.TierNotFound}, 23},
		{"one low one missing", []model.ConfidenceTier{model.TierLow, model.TierNotFound}, 15},
		{"medium low", []model.ConfidenceTier{model.TierMedium, model.TierLow}, 45},
		{"seven low", repeatTier(model.TierLow, 7), 30},
	}

	s := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := s.Score(makeResults(tt.tiers...), nil)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if report.OverallScore != tt.want {
				t.Errorf("Expected overall score %d, got %d", tt.want, report.OverallScore)
			}
			if got := report.CategoryScores[model.CategoryGeneral]; got != tt.want {
				t.Errorf("Expected GENERAL category score %d, got %d", tt.want, got)
			}
			if len(report.Threats) != 1 || report.Threats[0].Score != tt.want {
				t.Errorf("Expected a single threat score of %d, got %+v", tt.want, report.Threats)
			}
		})
	}
}

func TestScorer_EmptyEvidenceIsCritical(t *testing.T) {
	results := makeResults(repeatTier(model.TierNotFound, 5)...)
	gaps := make([]model.Gap, 5)
	for i := range gaps {
		gaps[i] = model.Gap{QuestionID: results[i].QuestionID, QuestionIndex: i, Category: model.CategoryGeneral, Kind: model.GapMissing}
	}

	report, err := newTestScorer().Score(results, gaps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.OverallLevel != model.RiskCritical {
		t.Errorf("Expected CRITICAL, got %s", report.OverallLevel)
	}
	if report.OverallScore != 0 {
		t.Errorf("Expected score 0, got %d", report.OverallScore)
	}
	if len(report.Gaps) != 5 || len(report.RankedRecommendations) != 5 {
		t.Errorf("Expected 5 gaps and recommendations, got %d and %d", len(report.Gaps), len(report.RankedRecommendations))
	}
	if report.Summary.GapCounts[model.GapMissing] != 5 {
		t.Errorf("Expected 5 missing gaps in summary, got %d", report.Summary.GapCounts[model.GapMissing])
	}
}

func TestScorer_CoverageMonotonic(t *testing.T) {
	s := newTestScorer()
	base := []model.ConfidenceTier{model.TierMedium, model.TierLow, model.TierNotFound, model.TierHigh, model.TierNotFound}
	ladder := []model.ConfidenceTier{model.TierNotFound, model.TierLow, model.TierMedium, model.TierHigh}

	for q := range base {
		prev := -1
		for _, tier := range ladder {
			tiers := append([]model.ConfidenceTier{}, base...)
			tiers[q] = tier
			report, err := s.Score(makeResults(tiers...), nil)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if report.OverallScore < prev {
				t.Errorf("Question %d at %s: score dropped from %d to %d", q, tier, prev, report.OverallScore)
			}
			prev = report.OverallScore
		}
	}
}

func TestScorer_CategoryScoresOmitEmpty(t *testing.T) {
	results := makeResults(model.TierHigh, model.TierNotFound, model.TierMedium)
	results[0].CategoryHint = model.CategoryCertification
	results[1].CategoryHint = model.CategoryCertification
	results[2].CategoryHint = model.CategoryControl

	report, err := newTestScorer().Score(results, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := map[model.Category]int{model.CategoryCertification: 50, model.CategoryControl: 60}
	if !reflect.DeepEqual(report.CategoryScores, want) {
		t.Errorf("Expected %v, got %v", want, report.CategoryScores)
	}
}

func TestScorer_CategoryScoresIgnoreInferredCategory(t *testing.T) {
	results := makeResults(model.TierHigh, model.TierLow)
	results[0].Category = model.CategoryCertification
	results[1].Category = model.CategoryCompliance
	results[1].CategoryHint = model.CategoryCompliance

	report, err := newTestScorer().Score(results, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := map[model.Category]int{model.CategoryGeneral: 100, model.CategoryCompliance: 30}
	if !reflect.DeepEqual(report.CategoryScores, want) {
		t.Errorf("Expected %v, got %v", want, report.CategoryScores)
	}
}

func TestScorer_RecommendationOrder(t *testing.T) {
	gaps := []model.Gap{
		{QuestionID: "Q1", QuestionIndex: 0, Category: model.CategoryGeneral, Kind: model.GapWeak},
		{QuestionID: "Q2", QuestionIndex: 1, Category: model.CategoryGeneral, Kind: model.GapMissing},
		{QuestionID: "Q3", QuestionIndex: 2, Category: model.CategoryCompliance, Kind: model.GapMissing},
		{QuestionID: "Q4", QuestionIndex: 3, Category: model.CategoryControl, Kind: model.GapContradictory},
		{QuestionID: "Q5", QuestionIndex: 4, Category: model.CategoryControl, Kind: model.GapMissing},
		{QuestionID: "Q6", QuestionIndex: 5, Category: model.CategoryCertification, Kind: model.GapWeak},
	}
	results := makeResults(repeatTier(model.TierLow, 6)...)

	report, err := newTestScorer().Score(results, gaps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var got []string
	for _, r := range report.RankedRecommendations {
		got = append(got, r.QuestionID)
	}
	want := []string{"Q3", "Q5", "Q2", "Q4", "Q6", "Q1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected order %v, got %v", want, got)
	}
	if report.RankedRecommendations[0].Priority != 1 {
		t.Errorf("Expected priority 1 first, got %d", report.RankedRecommendations[0].Priority)
	}
}

func TestScorer_RecommendationCap(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Score.MaxRecommendations = 3
	s := NewScorer(cfg.Score, cfg.Tables)

	results := makeResults(repeatTier(model.TierNotFound, 8)...)
	var gaps []model.Gap
	for i, r := range results {
		gaps = append(gaps, model.Gap{QuestionID: r.QuestionID, QuestionIndex: i, Category: model.CategoryGeneral, Kind: model.GapMissing})
	}

	report, err := s.Score(results, gaps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(report.RankedRecommendations) != 3 {
		t.Errorf("Expected 3 recommendations, got %d", len(report.RankedRecommendations))
	}
	if len(report.Gaps) != 8 {
		t.Errorf("Expected full gap list of 8, got %d", len(report.Gaps))
	}
}

func TestScorer_ThreatMapping(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		text     string
		category model.Category
		want     []model.Threat
	}{
		{"Is multi-factor authentication enforced for all users?", model.CategoryControl,
			[]model.Threat{model.ThreatSpoofing, model.ThreatElevationOfPrivilege}},
		{"Is customer data encrypted at rest?", model.CategoryControl,
			[]model.Threat{model.ThreatTampering, model.ThreatInformationDisclosure}},
		{"Are audit logs retained for a year?", model.CategoryControl,
			[]model.Threat{model.ThreatTampering, model.ThreatRepudiation}},
		{"Where is the vendor headquartered?", model.CategoryGeneral,
			[]model.Threat{model.ThreatInformationDisclosure}},
		{"Does the vendor publish a status page?", model.CategoryIncident,
			[]model.Threat{model.ThreatInformationDisclosure, model.ThreatDenialOfService}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := s.ThreatsFor(model.MatchResult{QuestionText: tt.text, Category: tt.category})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScorer_ThreatScores(t *testing.T) {
	results := makeResults(model.TierHigh, model.TierNotFound)
	results[0].QuestionText = "Is MFA enforced for administrators?"
	results[1].QuestionText = "Are passwords rotated regularly?"

	report, err := newTestScorer().Score(results, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	byThreat := map[model.Threat]model.ThreatScore{}
	for _, ts := range report.Threats {
		byThreat[ts.Threat] = ts
	}
	spoofing, ok := byThreat[model.ThreatSpoofing]
	if !ok {
		t.Fatalf("Expected a Spoofing threat score, got %+v", report.Threats)
	}
	if spoofing.Score != 50 || spoofing.Questions != 2 {
		t.Errorf("Expected Spoofing 50 over 2 questions, got %d over %d", spoofing.Score, spoofing.Questions)
	}
	if _, ok := byThreat[model.ThreatDenialOfService]; ok {
		t.Errorf("Did not expect a Denial-of-service score")
	}
}

func TestScorer_DomainRisks(t *testing.T) {
	results := makeResults(model.TierNotFound, model.TierLow, model.TierNotFound, model.TierHigh, model.TierLow, model.TierHigh)
	results[0].QuestionText = "Is MFA enforced for administrators?"
	results[1].QuestionText = "Is SSO available for all users?"
	results[2].QuestionText = "How are passwords stored?"
	results[3].QuestionText = "Is customer data encrypted at rest?"
	results[4].QuestionText = "Is data encrypted in transit with TLS?"
	results[5].QuestionText = "Do you have a privacy officer?"

	report, err := newTestScorer().Score(results, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(report.Risks) != 1 {
		t.Fatalf("Expected 1 domain risk, got %d: %+v", len(report.Risks), report.Risks)
	}
	risk := report.Risks[0]
	if risk.Domain != "access_control" || risk.Level != model.RiskHigh {
		t.Errorf("Expected HIGH access_control risk, got %s %s", risk.Level, risk.Domain)
	}
	if !reflect.DeepEqual(risk.AffectedQuestions, []string{"Q1", "Q2", "Q3"}) {
		t.Errorf("Unexpected affected questions: %v", risk.AffectedQuestions)
	}
	if risk.Threat != model.ThreatElevationOfPrivilege || len(risk.SuggestedControls) == 0 {
		t.Errorf("Expected Elevation-of-privilege with controls, got %s %v", risk.Threat, risk.SuggestedControls)
	}
	if report.Summary.HighRiskDomains != 1 {
		t.Errorf("Expected 1 high-risk domain in summary, got %d", report.Summary.HighRiskDomains)
	}
}

func TestScorer_DegradedSignal(t *testing.T) {
	results := makeResults(model.TierHigh, model.TierHigh)
	results[1].Degraded = true

	report, err := newTestScorer().Score(results, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !report.Degraded {
		t.Errorf("Expected degraded report")
	}
	found := false
	for _, sig := range report.Signals {
		if sig.Type == model.SignalDegraded {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a degraded signal")
	}
}

func TestScorer_Deterministic(t *testing.T) {
	s := newTestScorer()
	results := makeResults(model.TierHigh, model.TierLow, model.TierNotFound, model.TierMedium)
	gaps := []model.Gap{
		{QuestionID: "Q2", QuestionIndex: 1, Category: model.CategoryGeneral, Kind: model.GapWeak},
		{QuestionID: "Q3", QuestionIndex: 2, Category: model.CategoryGeneral, Kind: model.GapMissing},
	}

	first, err := s.Score(results, gaps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := s.Score(results, gaps)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical reports")
	}
}

func TestScorer_DocumentationRequest(t *testing.T) {
	tests := []struct {
		name    string
		missing int
		want    bool
	}{
		{"five missing", 5, false},
		{"six missing", 6, true},
		{"twelve missing", 12, true},
	}

	s := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiers := append([]model.ConfidenceTier{model.TierHigh}, repeatTier(model.TierNotFound, tt.missing)...)
			results := makeResults(tiers...)
			var gaps []model.Gap
			for i, r := range results[1:] {
				gaps = append(gaps, model.Gap{QuestionID: r.QuestionID, QuestionIndex: i + 1, Category: model.CategoryGeneral, Kind: model.GapMissing})
			}

			report, err := s.Score(results, gaps)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			recs := report.RankedRecommendations
			if len(recs) == 0 {
				t.Fatalf("Expected recommendations")
			}

			first := recs[0]
			if got := first.QuestionID == "" && len(first.QuestionIDs) > 0; got != tt.want {
				t.Fatalf("Documentation request present = %v, want %v (first: %+v)", got, tt.want, first)
			}
			if !tt.want {
				return
			}
			if first.Priority != 1 || first.Action != "Request comprehensive security documentation package" {
				t.Errorf("Unexpected documentation request: %+v", first)
			}
			wantIDs := tt.missing
			if wantIDs > 10 {
				wantIDs = 10
			}
			if len(first.QuestionIDs) != wantIDs || first.QuestionIDs[0] != "Q2" {
				t.Errorf("Expected %d follow-up ids starting at Q2, got %v", wantIDs, first.QuestionIDs)
			}
			if want := fmt.Sprintf("%d questions have no supporting evidence", tt.missing); first.Reason != want {
				t.Errorf("Expected reason %q, got %q", want, first.Reason)
			}
			if len(recs) > 10 {
				t.Errorf("Expected at most 10 recommendations, got %d", len(recs))
			}
			for i, rec := range recs {
				if rec.Priority != i+1 {
					t.Errorf("Recommendation %d has priority %d", i, rec.Priority)
				}
			}
		})
	}
}

func TestScorer_IncidentThreats(t *testing.T) {
	var incidents []model.Incident
	for i := 0; i < 7; i++ {
		incidents = append(incidents, model.Incident{Title: fmt.Sprintf("Breach %d", i+1), Year: "2023"})
	}
	incidents[1].Title = "  "

	report, err := newTestScorer().ScoreVendor(makeResults(model.TierHigh), nil, model.VendorContext{Incidents: incidents})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.Summary.PublicIncidents != 7 {
		t.Errorf("Expected 7 public incidents, got %d", report.Summary.PublicIncidents)
	}
	if len(report.IncidentThreats) != 5 {
		t.Fatalf("Expected 5 incident threats, got %d", len(report.IncidentThreats))
	}
	first := report.IncidentThreats[0]
	if first.Level != model.RiskHigh || first.Description != "Past security incident: Breach 1" {
		t.Errorf("Unexpected incident threat: %+v", first)
	}
	if report.IncidentThreats[1].Title != "Unknown incident" {
		t.Errorf("Expected blank title to become Unknown incident, got %q", report.IncidentThreats[1].Title)
	}
	if len(first.SuggestedControls) == 0 {
		t.Errorf("Expected suggested controls for incident threats")
	}

	found := false
	for _, sig := range report.Signals {
		if sig.Type == model.SignalIncidents {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a public incidents signal")
	}

	if len(report.Mitigations) != 1 {
		t.Fatalf("Expected one mitigation for historical incidents, got %+v", report.Mitigations)
	}
	m := report.Mitigations[0]
	if m.Threat != model.ThreatHistoricalIncident || len(m.Sources) != 5 {
		t.Errorf("Unexpected mitigation: %+v", m)
	}
}

func TestScorer_AttackSurfaces(t *testing.T) {
	tests := []struct {
		name    string
		profile *model.VendorProfile
		want    []model.AttackSurface
	}{
		{"no profile", nil, nil},
		{"empty profile", &model.VendorProfile{}, nil},
		{
			name: "sensitive data and production integration",
			profile: &model.VendorProfile{
				Services:     "Payroll processing",
				DataStored:   "Employee PII and bank details",
				Integrations: "Read access to the production HR Database",
			},
			want: []model.AttackSurface{
				{Surface: "Data Storage", Description: "Vendor stores: Employee PII and bank details", Exposure: model.RiskHigh},
				{Surface: "System Integration", Description: "Integration points: Read access to the production HR Database", Exposure: model.RiskHigh},
				{Surface: "Service Access", Description: "Services provided: Payroll processing", Exposure: model.RiskMedium},
			},
		},
		{
			name:    "benign data",
			profile: &model.VendorProfile{DataStored: "Marketing analytics", Integrations: "SSO via SAML"},
			want: []model.AttackSurface{
				{Surface: "Data Storage", Description: "Vendor stores: Marketing analytics", Exposure: model.RiskMedium},
				{Surface: "System Integration", Description: "Integration points: SSO via SAML", Exposure: model.RiskMedium},
			},
		},
	}

	s := newTestScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := s.ScoreVendor(makeResults(model.TierHigh), nil, model.VendorContext{Profile: tt.profile})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(report.AttackSurfaces, tt.want) {
				t.Errorf("Expected %+v, got %+v", tt.want, report.AttackSurfaces)
			}
		})
	}
}

func TestScorer_AttackSurfaceDescriptionTruncated(t *testing.T) {
	long := strings.Repeat("x", 150)
	report, err := newTestScorer().ScoreVendor(makeResults(model.TierHigh), nil,
		model.VendorContext{Profile: &model.VendorProfile{Services: long}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "Services provided: " + strings.Repeat("x", 100) + "..."
	if len(report.AttackSurfaces) != 1 || report.AttackSurfaces[0].Description != want {
		t.Errorf("Expected truncated description, got %+v", report.AttackSurfaces)
	}
}

func TestScorer_MitigationsForHighDomainRisks(t *testing.T) {
	results := makeResults(model.TierNotFound, model.TierNotFound, model.TierLow, model.TierHigh)
	results[0].QuestionText = "Is MFA enforced for administrators?"
	results[1].QuestionText = "Is privileged access restricted to named staff?"
	results[2].QuestionText = "Is customer data encrypted at rest?"
	results[3].QuestionText = "Is customer data encrypted in transit?"

	report, err := newTestScorer().Score(results, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var high []model.DomainRisk
	for _, r := range report.Risks {
		if r.Level == model.RiskHigh {
			high = append(high, r)
		}
	}
	if len(high) == 0 {
		t.Fatalf("Expected a HIGH domain risk, got %+v", report.Risks)
	}
	if len(report.Mitigations) == 0 {
		t.Fatalf("Expected mitigations for HIGH domain risks")
	}
	m := report.Mitigations[0]
	if m.Threat != high[0].Threat || m.Sources[0] != high[0].Domain {
		t.Errorf("Expected first mitigation for %s/%s, got %+v", high[0].Threat, high[0].Domain, m)
	}
	if m.Action != fmt.Sprintf("Address %s risks", m.Threat) || len(m.Controls) == 0 {
		t.Errorf("Unexpected mitigation: %+v", m)
	}
	for _, mit := range report.Mitigations {
		for _, r := range report.Risks {
			if r.Level == model.RiskMedium && len(mit.Sources) == 1 && mit.Sources[0] == r.Domain {
				t.Errorf("MEDIUM domain %s should not produce a mitigation", r.Domain)
			}
		}
	}
}
