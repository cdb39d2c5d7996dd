package score

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

const (
	surfaceDataStorage = "Data Storage"
	surfaceIntegration = "System Integration"
	surfaceService     = "Service Access"

	maxFollowups       = 10
	maxSurfaceDescribe = 100
)

// documentationRequest asks for a full documentation package when more than
// DocRequestMissing questions have no evidence at all
func (s *Scorer) documentationRequest(results []model.MatchResult) *model.Recommendation {
	var missing []string
	for _, r := range results {
		if r.Tier == model.TierNotFound {
			missing = append(missing, r.QuestionID)
		}
	}
	if len(missing) <= s.cfg.DocRequestMissing {
		return nil
	}

	followups := missing
	if len(followups) > maxFollowups {
		followups = followups[:maxFollowups]
	}
	return &model.Recommendation{
		QuestionIDs: append([]string{}, followups...),
		Category:    model.CategoryGeneral,
		GapKind:     model.GapMissing,
		Action:      "Request comprehensive security documentation package",
		Reason:      fmt.Sprintf("%d questions have no supporting evidence", len(missing)),
	}
}

// incidentThreats turns the first MaxIncidents public incidents into HIGH threats
func (s *Scorer) incidentThreats(incidents []model.Incident) []model.IncidentThreat {
	if len(incidents) > s.cfg.MaxIncidents {
		incidents = incidents[:s.cfg.MaxIncidents]
	}

	out := make([]model.IncidentThreat, 0, len(incidents))
	for _, inc := range incidents {
		title := strings.TrimSpace(inc.Title)
		if title == "" {
			title = "Unknown incident"
		}
		out = append(out, model.IncidentThreat{
			Title:             title,
			Year:              inc.Year,
			URL:               inc.URL,
			Level:             model.RiskHigh,
			Description:       "Past security incident: " + title,
			Impact:            s.impact(model.ThreatHistoricalIncident, model.RiskHigh),
			SuggestedControls: s.tables.ThreatControls[model.ThreatHistoricalIncident],
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// attackSurfaces derives exposure from the vendor profile. Stored sensitive data
// or integrations touching production systems are HIGH exposure.
func (s *Scorer) attackSurfaces(profile *model.VendorProfile) []model.AttackSurface {
	if profile == nil {
		return nil
	}

	var surfaces []model.AttackSurface
	if data := strings.TrimSpace(profile.DataStored); data != "" {
		surfaces = append(surfaces, model.AttackSurface{
			Surface:     surfaceDataStorage,
			Description: "Vendor stores: " + truncate(data, maxSurfaceDescribe),
			Exposure:    exposure(data, s.tables.SensitiveData),
		})
	}
	if integrations := strings.TrimSpace(profile.Integrations); integrations != "" {
		surfaces = append(surfaces, model.AttackSurface{
			Surface:     surfaceIntegration,
			Description: "Integration points: " + truncate(integrations, maxSurfaceDescribe),
			Exposure:    exposure(integrations, s.tables.ExposedIntegrations),
		})
	}
	if services := strings.TrimSpace(profile.Services); services != "" {
		surfaces = append(surfaces, model.AttackSurface{
			Surface:     surfaceService,
			Description: "Services provided: " + truncate(services, maxSurfaceDescribe),
			Exposure:    model.RiskMedium,
		})
	}
	return surfaces
}

// exposure is HIGH when text contains any of terms as a substring, MEDIUM otherwise
func exposure(text string, terms []string) model.RiskLevel {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return model.RiskHigh
		}
	}
	return model.RiskMedium
}

func truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

// mitigations emits one entry per threat that has a HIGH domain risk or an
// incident, in the order the threats first appear
func (s *Scorer) mitigations(risks []model.DomainRisk, incidents []model.IncidentThreat) []model.Mitigation {
	var out []model.Mitigation
	index := make(map[model.Threat]int)

	add := func(threat model.Threat, source string) {
		if i, ok := index[threat]; ok {
			out[i].Sources = append(out[i].Sources, source)
			return
		}
		index[threat] = len(out)
		out = append(out, model.Mitigation{
			Threat:   threat,
			Action:   fmt.Sprintf("Address %s risks", threat),
			Controls: s.controls(threat),
			Sources:  []string{source},
		})
	}

	for _, r := range risks {
		if r.Level == model.RiskHigh {
			add(r.Threat, r.Domain)
		}
	}
	for _, inc := range incidents {
		add(model.ThreatHistoricalIncident, inc.Title)
	}
	return out
}

func (s *Scorer) controls(threat model.Threat) []string {
	if c, ok := s.tables.ThreatControls[threat]; ok {
		return c
	}
	return []string{"General security hardening", "Regular security assessments"}
}
