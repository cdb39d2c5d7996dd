// Package match maps questionnaire questions onto the best supporting evidence.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/normalize"
	"github.com/niana0/vendor-security-assessment-tool/internal/similarity"
)

// scoreEpsilon absorbs float noise when comparing a score to a margin
const scoreEpsilon = 1e-9

// Matcher scores every question against every evidence item
type Matcher struct {
	cfg         model.MatchConfig
	scorer      *similarity.Scorer
	categorizer *normalize.Categorizer
	logger      *slog.Logger
}

// NewMatcher creates a matcher. The scorer carries the semantic capability;
// the categorizer infers a category for questions without a hint.
func NewMatcher(cfg model.MatchConfig, scorer *similarity.Scorer, categorizer *normalize.Categorizer) *Matcher {
	if scorer == nil {
		scorer = similarity.NewScorer(cfg, nil, nil)
	}
	if categorizer == nil {
		categorizer = normalize.NewCategorizer(nil)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Matcher{
		cfg:         cfg,
		scorer:      scorer,
		categorizer: categorizer,
		logger:      slog.Default(),
	}
}

// SetLogger replaces the logger
func (m *Matcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

type indexedQuestion struct {
	index int
	q     model.Question
}

// Match returns one result per valid question, in input order. Invalid
// questions (no question mark or too short) are skipped. A nil evidence set or
// a list without any valid question is an ErrInvalidInput.
func (m *Matcher) Match(ctx context.Context, questions []model.Question, set *model.EvidenceSet) ([]model.MatchResult, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: evidence set is nil", model.ErrInvalidInput)
	}

	valid := make([]indexedQuestion, 0, len(questions))
	for i, q := range questions {
		if !q.IsValid(m.cfg.QuestionMinLength) {
			m.logger.Debug("skipping invalid question", "index", i, "id", q.ID)
			continue
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("Q%d", i+1)
		}
		valid = append(valid, indexedQuestion{index: i, q: q})
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no valid questions among %d", model.ErrInvalidInput, len(questions))
	}

	evidenceTexts := make([]string, set.Len())
	for i := range evidenceTexts {
		evidenceTexts[i] = set.At(i).Text
	}
	questionTexts := make([]string, len(valid))
	for i, iq := range valid {
		questionTexts[i] = iq.q.Text
	}

	evidenceProfiles, evDegraded := m.scorer.Profiles(ctx, evidenceTexts)
	questionProfiles, qDegraded := m.scorer.Profiles(ctx, questionTexts)
	degraded := evDegraded || qDegraded
	if degraded {
		// Mixed profiles would compare vectors on one side only
		for i := range evidenceProfiles {
			evidenceProfiles[i].Vector = nil
		}
		for i := range questionProfiles {
			questionProfiles[i].Vector = nil
		}
	}

	results := make([]model.MatchResult, len(valid))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, m.cfg.Workers)

	for i, iq := range valid {
		wg.Add(1)
		go func(slot int, iq indexedQuestion) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[slot] = m.matchOne(iq, questionProfiles[slot], evidenceProfiles, set, degraded)
		}(i, iq)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("match cancelled: %w", err)
	}

	m.logger.Debug("matched questions",
		"questions", len(results),
		"skipped", len(questions)-len(valid),
		"evidence", set.Len(),
		"backend", m.scorer.Backend(),
		"degraded", degraded)

	return results, nil
}

func (m *Matcher) matchOne(iq indexedQuestion, qp similarity.Profile, evidence []similarity.Profile, set *model.EvidenceSet, degraded bool) model.MatchResult {
	hint := iq.q.Category
	category := hint
	if category == "" {
		category = m.categorizer.Categorize(iq.q.Text)
	}

	result := model.MatchResult{
		QuestionID:    iq.q.ID,
		QuestionIndex: iq.index,
		QuestionText:  iq.q.Text,
		Category:      category,
		CategoryHint:  hint,
		Tier:          model.TierNotFound,
		Degraded:      degraded,
	}

	candidates := m.candidates(hint, set)
	if len(candidates) == 0 {
		return result
	}

	scored := make([]model.ScoredEvidence, 0, len(candidates))
	for _, i := range candidates {
		b := m.scorer.Score(qp, evidence[i])
		scored = append(scored, model.ScoredEvidence{
			Evidence: set.At(i),
			Score:    b.Score,
			Semantic: b.Semantic,
			Lexical:  b.Lexical,
		})
	}

	// candidates are in set order, so a stable sort leaves the lower index first on full ties
	sort.SliceStable(scored, func(a, b int) bool {
		x, y := scored[a], scored[b]
		if x.Score != y.Score {
			return x.Score > y.Score
		}
		if x.Evidence.TrustWeight != y.Evidence.TrustWeight {
			return x.Evidence.TrustWeight > y.Evidence.TrustWeight
		}
		return hint != "" && x.Evidence.Category == hint && y.Evidence.Category != hint
	})

	best := scored[0]
	result.SimilarityScore = best.Score
	if best.Score <= m.cfg.NotFoundFloor {
		return result
	}

	result.Best = &best
	result.Tier = m.tier(best.Score)

	for _, se := range scored[1:] {
		if len(result.Supporting) >= m.cfg.MaxSupporting {
			break
		}
		if se.Score+scoreEpsilon < m.cfg.SupportThreshold || best.Score-se.Score > m.cfg.SupportMargin+scoreEpsilon {
			continue
		}
		result.Supporting = append(result.Supporting, se)
	}

	kinds := make(map[model.SourceKind]struct{})
	for _, se := range result.Candidates() {
		kinds[se.Evidence.SourceKind] = struct{}{}
	}
	result.SourceDiversity = len(kinds)

	if m.cfg.CapUncorroboratedWeb && result.Tier == model.TierHigh {
		if _, web := kinds[model.SourceWebSearch]; web && len(kinds) == 1 {
			result.Tier = model.TierMedium
		}
	}

	return result
}

// candidates returns evidence indices to score. Under the strict filter only the
// hinted category and GENERAL are eligible, unless that leaves nothing.
func (m *Matcher) candidates(hint model.Category, set *model.EvidenceSet) []int {
	all := make([]int, set.Len())
	for i := range all {
		all[i] = i
	}
	if !m.cfg.StrictCategoryFilter || hint == "" {
		return all
	}

	filtered := make([]int, 0, len(all))
	for _, i := range all {
		c := set.At(i).Category
		if c == hint || c == model.CategoryGeneral {
			filtered = append(filtered, i)
		}
	}
	if len(filtered) == 0 {
		return all
	}
	return filtered
}

func (m *Matcher) tier(score float64) model.ConfidenceTier {
	switch {
	case score >= m.cfg.HighThreshold:
		return model.TierHigh
	case score >= m.cfg.MediumThreshold:
		return model.TierMedium
	default:
		return model.TierLow
	}
}
