package normalize

import (
	"regexp"
	"strings"
)

// KeywordMatcher counts how many distinct keywords or patterns occur in a text.
// Keywords match case-insensitively on word boundaries; whitespace inside a
// keyword matches any run of whitespace.
type KeywordMatcher struct {
	patterns []*regexp.Regexp
}

// NewKeywordMatcher compiles keywords and raw patterns. Patterns that fail to
// compile are skipped; model.Config.Validate reports them up front.
func NewKeywordMatcher(keywords, patterns []string) *KeywordMatcher {
	m := &KeywordMatcher{patterns: make([]*regexp.Regexp, 0, len(keywords)+len(patterns))}

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		expr := strings.ReplaceAll(regexp.QuoteMeta(strings.ToLower(kw)), " ", `\s+`)
		if re, err := regexp.Compile(`(?i)\b` + expr + `\b`); err == nil {
			m.patterns = append(m.patterns, re)
		}
	}

	for _, p := range patterns {
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		if re, err := regexp.Compile(p); err == nil {
			m.patterns = append(m.patterns, re)
		}
	}

	return m
}

// Hits returns the number of distinct keywords/patterns found in text
func (m *KeywordMatcher) Hits(text string) int {
	hits := 0
	for _, re := range m.patterns {
		if re.MatchString(text) {
			hits++
		}
	}
	return hits
}

// Match reports whether any keyword or pattern occurs in text
func (m *KeywordMatcher) Match(text string) bool {
	for _, re := range m.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns
func (m *KeywordMatcher) Len() int {
	return len(m.patterns)
}
