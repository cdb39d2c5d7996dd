// Package gap flags missing, weak and contradictory evidence per question.
package gap

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/normalize"
)

type actionKey struct {
	kind     model.GapKind
	category model.Category
}

// Analyzer derives gaps from match results
type Analyzer struct {
	strict   map[model.Category]bool
	positive *normalize.KeywordMatcher
	negative *normalize.KeywordMatcher
	actions  map[actionKey]string
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer from gap settings and the polarity/action tables
func NewAnalyzer(cfg model.GapConfig, tables model.Tables) *Analyzer {
	a := &Analyzer{
		strict:   make(map[model.Category]bool, len(cfg.StrictCategories)),
		positive: normalize.NewKeywordMatcher(tables.Polarity.Positive, nil),
		negative: normalize.NewKeywordMatcher(tables.Polarity.Negative, nil),
		actions:  make(map[actionKey]string, len(tables.Actions)),
		logger:   slog.Default(),
	}
	for _, c := range cfg.StrictCategories {
		a.strict[c] = true
	}
	for _, rule := range tables.Actions {
		a.actions[actionKey{rule.Kind, rule.Category}] = rule.Action
	}
	return a
}

// SetLogger replaces the logger
func (a *Analyzer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// Analyze returns gaps ordered by question index, then severity (MISSING,
// CONTRADICTORY, WEAK). A question yields at most one gap of each kind.
func (a *Analyzer) Analyze(results []model.MatchResult) []model.Gap {
	gaps := make([]model.Gap, 0)

	for _, r := range results {
		if r.Tier == model.TierNotFound {
			gaps = append(gaps, a.newGap(r, model.GapMissing,
				fmt.Sprintf("No evidence found (best similarity %.2f)", r.SimilarityScore), nil))
			continue
		}

		if g, ok := a.contradiction(r); ok {
			gaps = append(gaps, g)
		}

		switch {
		case r.Tier == model.TierLow:
			gaps = append(gaps, a.newGap(r, model.GapWeak,
				fmt.Sprintf("Only weak evidence found (similarity %.2f)", r.SimilarityScore), bestOf(r)))
		case r.Tier == model.TierMedium && a.strict[r.TaggedCategory()]:
			gaps = append(gaps, a.newGap(r, model.GapWeak,
				fmt.Sprintf("Medium-confidence evidence is not sufficient for %s questions (similarity %.2f)",
					r.TaggedCategory(), r.SimilarityScore), bestOf(r)))
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].QuestionIndex != gaps[j].QuestionIndex {
			return gaps[i].QuestionIndex < gaps[j].QuestionIndex
		}
		return gaps[i].Kind.Severity() > gaps[j].Kind.Severity()
	})

	a.logger.Debug("analyzed gaps", "results", len(results), "gaps", len(gaps))
	return gaps
}

// Polarity returns -1 for negating language, +1 for affirming language and 0
// otherwise. Negative terms win when both occur.
func (a *Analyzer) Polarity(text string) int {
	if a.negative.Match(text) {
		return -1
	}
	if a.positive.Match(text) {
		return 1
	}
	return 0
}

// contradiction finds the first pair among best and supporting evidence that comes
// from different source kinds, shares a category and has opposite polarity.
func (a *Analyzer) contradiction(r model.MatchResult) (model.Gap, bool) {
	candidates := r.Candidates()
	polarity := make([]int, len(candidates))
	for i, c := range candidates {
		polarity[i] = a.Polarity(c.Evidence.Text)
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			x, y := candidates[i].Evidence, candidates[j].Evidence
			if x.SourceKind == y.SourceKind || x.Category != y.Category {
				continue
			}
			if polarity[i] == 0 || polarity[j] == 0 || polarity[i] == polarity[j] {
				continue
			}

			affirm, deny := x, y
			if polarity[i] < 0 {
				affirm, deny = y, x
			}
			detail := fmt.Sprintf("%s evidence %s affirms (%q) but %s evidence %s contradicts it (%q)",
				affirm.SourceKind, affirm.ID, affirm.Text, deny.SourceKind, deny.ID, deny.Text)
			return a.newGap(r, model.GapContradictory, detail, []model.ScoredEvidence{candidates[i], candidates[j]}), true
		}
	}
	return model.Gap{}, false
}

func (a *Analyzer) newGap(r model.MatchResult, kind model.GapKind, detail string, evidence []model.ScoredEvidence) model.Gap {
	g := model.Gap{
		QuestionID:      r.QuestionID,
		QuestionIndex:   r.QuestionIndex,
		Category:        r.Category,
		Kind:            kind,
		Detail:          detail,
		SuggestedAction: a.action(kind, r.Category),
	}
	for _, se := range evidence {
		g.SourceKinds = append(g.SourceKinds, se.Evidence.SourceKind)
		g.EvidenceIDs = append(g.EvidenceIDs, se.Evidence.ID)
	}
	return g
}

func bestOf(r model.MatchResult) []model.ScoredEvidence {
	if r.Best == nil {
		return nil
	}
	return []model.ScoredEvidence{*r.Best}
}

func (a *Analyzer) action(kind model.GapKind, category model.Category) string {
	if action, ok := a.actions[actionKey{kind, category}]; ok {
		return action
	}
	if action, ok := a.actions[actionKey{kind, model.CategoryGeneral}]; ok {
		return action
	}
	return "Follow up with the vendor"
}
