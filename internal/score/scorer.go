package score

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/normalize"
)

// Scorer aggregates match results and gaps into a risk report
type Scorer struct {
	cfg     model.ScoreConfig
	tables  model.Tables
	domains []domainMatcher
	logger  *slog.Logger
}

type domainMatcher struct {
	rule    model.DomainRule
	matcher *normalize.KeywordMatcher
}

// NewScorer creates a new scorer
func NewScorer(cfg model.ScoreConfig, tables model.Tables) *Scorer {
	s := &Scorer{cfg: cfg, tables: tables, logger: slog.Default()}
	for _, rule := range tables.Domains {
		s.domains = append(s.domains, domainMatcher{
			rule:    rule,
			matcher: normalize.NewKeywordMatcher(rule.Keywords, nil),
		})
	}
	return s
}

// SetLogger replaces the logger
func (s *Scorer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Score builds the risk report without vendor context
func (s *Scorer) Score(results []model.MatchResult, gaps []model.Gap) (*model.RiskReport, error) {
	return s.ScoreVendor(results, gaps, model.VendorContext{})
}

// ScoreVendor builds the risk report, folding the vendor profile and public
// incidents into the threat model. The report is a pure function of its inputs.
func (s *Scorer) ScoreVendor(results []model.MatchResult, gaps []model.Gap, vc model.VendorContext) (*model.RiskReport, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: cannot score zero questions", model.ErrInvalidInput)
	}

	var signals []model.Signal

	// 1. Point average (0-100)
	overall, pointSignal := s.calculateOverall(results)
	signals = append(signals, pointSignal)

	// 2. Coverage drives the risk level
	coverage, answered, coverageSignal := s.calculateCoverage(results)
	signals = append(signals, coverageSignal)
	level := s.determineLevel(coverage)

	// 3. Gap counts
	gapCounts, gapSignal := s.countGaps(gaps)
	signals = append(signals, gapSignal)
	if n := gapCounts[model.GapContradictory]; n > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalContradiction,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d question(s) have contradicting evidence across sources", n),
			Data:        map[string]interface{}{"contradictions": n},
		})
	}

	// 4. Source diversity of answered questions
	signals = append(signals, s.diversitySignal(results, answered))

	// 5. Degraded similarity
	degraded := 0
	for _, r := range results {
		if r.Degraded {
			degraded++
		}
	}
	if degraded > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalDegraded,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Semantic similarity unavailable for %d/%d questions; scores are lexical only", degraded, len(results)),
			Data:        map[string]interface{}{"degraded": degraded, "total": len(results)},
		})
	}

	// 6. Public incidents
	if n := len(vc.Incidents); n > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalIncidents,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d public security incident(s) reported for this vendor", n),
			Data:        map[string]interface{}{"incidents": n},
		})
	}

	risks := s.domainRisks(results)
	incidents := s.incidentThreats(vc.Incidents)
	summary := model.Summary{
		TotalQuestions:  len(results),
		Answered:        answered,
		GapCounts:       gapCounts,
		PublicIncidents: len(vc.Incidents),
	}
	for _, r := range risks {
		switch r.Level {
		case model.RiskHigh:
			summary.HighRiskDomains++
		case model.RiskMedium:
			summary.MediumRiskDomains++
		}
	}

	report := &model.RiskReport{
		OverallScore:           overall,
		OverallLevel:           level,
		Coverage:               coverage,
		CategoryScores:         s.categoryScores(results),
		RankedRecommendations:  s.rankRecommendations(gaps, s.documentationRequest(results)),
		Gaps:                   append([]model.Gap{}, gaps...),
		Risks:                  risks,
		IncidentThreats:        incidents,
		AttackSurfaces:         s.attackSurfaces(vc.Profile),
		Mitigations:            s.mitigations(risks, incidents),
		ConfidenceDistribution: s.distribution(results),
		Summary:                summary,
		Degraded:               degraded > 0,
		Signals:                signals,
	}
	if s.cfg.IncludeThreats {
		report.Threats = s.threatScores(results)
	}

	s.logger.Debug("scored assessment",
		"questions", len(results),
		"overall_score", overall,
		"coverage", coverage,
		"level", level)

	return report, nil
}

func (s *Scorer) points(tier model.ConfidenceTier) float64 {
	return s.cfg.TierPoints[tier]
}

// average returns round(100 * mean points) for the given results
func (s *Scorer) average(results []model.MatchResult) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += s.hundredths(r.Tier)
	}
	return roundDiv(sum, len(results))
}

// hundredths returns a tier's points as an integer number of hundredths so
// that sums stay exact; 0.3 must count as 30, not 29.999...
func (s *Scorer) hundredths(tier model.ConfidenceTier) int {
	return int(math.Round(100 * s.points(tier)))
}

// roundDiv divides non-negative integers rounding half up
func roundDiv(sum, n int) int {
	return (2*sum + n) / (2 * n)
}

// calculateOverall calculates the overall point average (0-100)
func (s *Scorer) calculateOverall(results []model.MatchResult) (int, model.Signal) {
	counts := s.distribution(results)
	score := s.average(results)

	severity := model.SeverityInfo
	if score < 50 {
		severity = model.SeverityCritical
	} else if score < 70 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalPointAverage,
		Severity:    severity,
		Description: fmt.Sprintf("Evidence strength: %d/100 across %d questions", score, len(results)),
		Data: map[string]interface{}{
			"high":      counts[model.TierHigh],
			"medium":    counts[model.TierMedium],
			"low":       counts[model.TierLow],
			"not_found": counts[model.TierNotFound],
			"score":     score,
			"formula": fmt.Sprintf("round(100 * (high*%g + medium*%g + low*%g + not_found*%g) / questions)",
				s.points(model.TierHigh), s.points(model.TierMedium), s.points(model.TierLow), s.points(model.TierNotFound)),
		},
	}
}

// calculateCoverage returns the percentage of questions answered HIGH or MEDIUM
func (s *Scorer) calculateCoverage(results []model.MatchResult) (float64, int, model.Signal) {
	answered := 0
	for _, r := range results {
		if r.Tier.Answered() {
			answered++
		}
	}
	coverage := float64(answered) * 100 / float64(len(results))

	severity := model.SeverityInfo
	if coverage < s.cfg.MediumRiskCoverage {
		severity = model.SeverityCritical
	} else if coverage < s.cfg.LowRiskCoverage {
		severity = model.SeverityWarning
	}

	return coverage, answered, model.Signal{
		Type:        model.SignalCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Coverage: %d/%d questions answered (%.1f%%)", answered, len(results), coverage),
		Data: map[string]interface{}{
			"answered":   answered,
			"total":      len(results),
			"coverage":   coverage,
			"thresholds": []float64{s.cfg.LowRiskCoverage, s.cfg.MediumRiskCoverage, s.cfg.HighRiskCoverage},
			"formula":    "(high + medium) / questions * 100",
		},
	}
}

// determineLevel maps coverage to a risk level; each threshold is inclusive
func (s *Scorer) determineLevel(coverage float64) model.RiskLevel {
	switch {
	case coverage >= s.cfg.LowRiskCoverage:
		return model.RiskLow
	case coverage >= s.cfg.MediumRiskCoverage:
		return model.RiskMedium
	case coverage >= s.cfg.HighRiskCoverage:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

func (s *Scorer) countGaps(gaps []model.Gap) (map[model.GapKind]int, model.Signal) {
	counts := map[model.GapKind]int{
		model.GapMissing:       0,
		model.GapContradictory: 0,
		model.GapWeak:          0,
	}
	for _, g := range gaps {
		counts[g.Kind]++
	}

	severity := model.SeverityInfo
	if counts[model.GapMissing] > 0 || counts[model.GapContradictory] > 0 {
		severity = model.SeverityWarning
	}

	return counts, model.Signal{
		Type:        model.SignalGaps,
		Severity:    severity,
		Description: fmt.Sprintf("Gaps: %d missing, %d contradictory, %d weak", counts[model.GapMissing], counts[model.GapContradictory], counts[model.GapWeak]),
		Data: map[string]interface{}{
			"missing":       counts[model.GapMissing],
			"contradictory": counts[model.GapContradictory],
			"weak":          counts[model.GapWeak],
		},
	}
}

func (s *Scorer) diversitySignal(results []model.MatchResult, answered int) model.Signal {
	corroborated := 0
	for _, r := range results {
		if r.Tier.Answered() && r.SourceDiversity > 1 {
			corroborated++
		}
	}

	severity := model.SeverityInfo
	if answered > 0 && corroborated == 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalSourceDiversity,
		Severity:    severity,
		Description: fmt.Sprintf("%d/%d answered questions are backed by more than one source kind", corroborated, answered),
		Data: map[string]interface{}{
			"corroborated": corroborated,
			"answered":     answered,
		},
	}
}

// categoryScores averages points per tagged category (untagged questions
// count as GENERAL); empty categories are omitted
func (s *Scorer) categoryScores(results []model.MatchResult) map[model.Category]int {
	byCategory := make(map[model.Category][]model.MatchResult)
	for _, r := range results {
		c := r.TaggedCategory()
		byCategory[c] = append(byCategory[c], r)
	}

	scores := make(map[model.Category]int, len(byCategory))
	for category, rs := range byCategory {
		scores[category] = s.average(rs)
	}
	return scores
}

func (s *Scorer) distribution(results []model.MatchResult) map[model.ConfidenceTier]int {
	counts := make(map[model.ConfidenceTier]int, len(model.Tiers))
	for _, tier := range model.Tiers {
		counts[tier] = 0
	}
	for _, r := range results {
		counts[r.Tier]++
	}
	return counts
}

// rankRecommendations orders gaps by severity, category sensitivity and question
// index. A documentation-package request, when present, ranks first and takes
// one of the MaxRecommendations slots.
func (s *Scorer) rankRecommendations(gaps []model.Gap, docRequest *model.Recommendation) []model.Recommendation {
	ordered := append([]model.Gap{}, gaps...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Kind.Severity() != b.Kind.Severity() {
			return a.Kind.Severity() > b.Kind.Severity()
		}
		sa, sb := s.tables.CategorySensitivity[a.Category], s.tables.CategorySensitivity[b.Category]
		if sa != sb {
			return sa > sb
		}
		return a.QuestionIndex < b.QuestionIndex
	})

	limit := s.cfg.MaxRecommendations
	recs := make([]model.Recommendation, 0, limit)
	if docRequest != nil {
		docRequest.Priority = 1
		recs = append(recs, *docRequest)
		limit--
	}
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	for _, g := range ordered {
		recs = append(recs, model.Recommendation{
			Priority:   len(recs) + 1,
			QuestionID: g.QuestionID,
			Category:   g.Category,
			GapKind:    g.Kind,
			Action:     g.SuggestedAction,
			Reason:     g.Detail,
		})
	}
	return recs
}
