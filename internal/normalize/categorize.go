package normalize

import (
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// Categorizer assigns a category to free text from a keyword/pattern table
type Categorizer struct {
	matchers map[model.Category][]*KeywordMatcher
}

// NewCategorizer builds a categorizer from rules. A nil rule set falls back to the defaults.
func NewCategorizer(rules []model.CategoryRule) *Categorizer {
	if rules == nil {
		rules = model.DefaultTables().CategoryRules
	}

	c := &Categorizer{matchers: make(map[model.Category][]*KeywordMatcher)}
	for _, rule := range rules {
		if rule.Category == model.CategoryGeneral {
			continue
		}
		c.matchers[rule.Category] = append(c.matchers[rule.Category], NewKeywordMatcher(rule.Keywords, rule.Patterns))
	}
	return c
}

// Categorize returns the category with the most hits. Ties go to the category
// listed first in model.Categories; no hits yields GENERAL.
func (c *Categorizer) Categorize(text string) model.Category {
	best := model.CategoryGeneral
	bestHits := 0

	for _, category := range model.Categories {
		hits := 0
		for _, m := range c.matchers[category] {
			hits += m.Hits(text)
		}
		if hits > bestHits {
			best = category
			bestHits = hits
		}
	}

	return best
}

// Hits returns per-category hit counts; categories without hits are omitted
func (c *Categorizer) Hits(text string) map[model.Category]int {
	out := make(map[model.Category]int)
	for category, matchers := range c.matchers {
		for _, m := range matchers {
			if h := m.Hits(text); h > 0 {
				out[category] += h
			}
		}
	}
	return out
}
