package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// matchDomains returns the control domains whose keywords occur in the question text
func (s *Scorer) matchDomains(text string) []model.DomainRule {
	var out []model.DomainRule
	for _, d := range s.domains {
		if d.matcher.Match(text) {
			out = append(out, d.rule)
		}
	}
	return out
}

// ThreatsFor returns the STRIDE threats a question maps to: the union of its
// control domains' threats, or its category's threats when no domain matches.
func (s *Scorer) ThreatsFor(r model.MatchResult) []model.Threat {
	seen := make(map[model.Threat]bool)
	for _, d := range s.matchDomains(r.QuestionText) {
		for _, t := range d.Threats {
			seen[t] = true
		}
	}
	if len(seen) == 0 {
		for _, t := range s.tables.CategoryThreats[r.Category] {
			seen[t] = true
		}
	}

	out := make([]model.Threat, 0, len(seen))
	for _, t := range model.Threats {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out
}

// threatScores relabels question points by STRIDE threat. Threats without
// questions are omitted.
func (s *Scorer) threatScores(results []model.MatchResult) []model.ThreatScore {
	sums := make(map[model.Threat]int)
	ids := make(map[model.Threat][]string)

	for _, r := range results {
		for _, t := range s.ThreatsFor(r) {
			sums[t] += s.hundredths(r.Tier)
			ids[t] = append(ids[t], r.QuestionID)
		}
	}

	var out []model.ThreatScore
	for _, t := range model.Threats {
		n := len(ids[t])
		if n == 0 {
			continue
		}
		out = append(out, model.ThreatScore{
			Threat:      t,
			Score:       roundDiv(sums[t], n),
			Questions:   n,
			QuestionIDs: ids[t],
		})
	}
	return out
}

// domainRisks flags control domains where more than DomainMediumRatio of the
// questions are LOW or NOT_FOUND (HIGH above DomainHighRatio). HIGH risks come first.
func (s *Scorer) domainRisks(results []model.MatchResult) []model.DomainRisk {
	var risks []model.DomainRisk

	for _, d := range s.domains {
		total := 0
		var affected []string
		for _, r := range results {
			if !d.matcher.Match(r.QuestionText) {
				continue
			}
			total++
			if !r.Tier.Answered() {
				affected = append(affected, r.QuestionID)
			}
		}
		if total == 0 {
			continue
		}

		ratio := float64(len(affected)) / float64(total)
		var level model.RiskLevel
		switch {
		case ratio > s.cfg.DomainHighRatio:
			level = model.RiskHigh
		case ratio > s.cfg.DomainMediumRatio:
			level = model.RiskMedium
		default:
			continue
		}

		threat := model.ThreatInformationDisclosure
		if len(d.rule.Threats) > 0 {
			threat = d.rule.Threats[0]
		}
		name := strings.ReplaceAll(d.rule.Name, "_", " ")

		risks = append(risks, model.DomainRisk{
			Domain:            d.rule.Name,
			Level:             level,
			WeakRatio:         ratio,
			Threat:            threat,
			Description:       fmt.Sprintf("Insufficient evidence for %d/%d %s controls", len(affected), total, name),
			Impact:            s.impact(threat, level),
			AffectedQuestions: affected,
			SuggestedControls: s.tables.ThreatControls[threat],
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Level == model.RiskHigh && risks[j].Level != model.RiskHigh
	})
	return risks
}

func (s *Scorer) impact(threat model.Threat, level model.RiskLevel) string {
	base, ok := s.tables.ThreatImpacts[threat]
	if !ok {
		base = "Potential security impact"
	}
	if level == model.RiskHigh {
		return base + " - critical impact to business operations"
	}
	return base + " - moderate impact requiring attention"
}
