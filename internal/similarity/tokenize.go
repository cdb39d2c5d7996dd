// Package similarity scores question/evidence pairs with a hybrid of lexical
// overlap and embedding cosine.
package similarity

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:[-'][\p{L}\p{N}]+)*`)

// Tokenizer splits text into lowercase word tokens and drops stop words
type Tokenizer struct {
	stop map[string]struct{}
}

// NewTokenizer creates a tokenizer. A nil stop list uses the default table.
func NewTokenizer(stopWords []string) *Tokenizer {
	if stopWords == nil {
		stopWords = defaultStopWords()
	}
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stop: stop}
}

// Tokens returns the non-stop-word tokens of text in order
func (t *Tokenizer) Tokens(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := words[:0]
	for _, w := range words {
		if _, ok := t.stop[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Stems returns the set of stemmed tokens
func (t *Tokenizer) Stems(text string) map[string]struct{} {
	tokens := t.Tokens(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[Stem(tok)] = struct{}{}
	}
	return set
}

type suffixRule struct {
	suffix  string
	replace string
}

// Longest suffixes first; the first rule that leaves at least three runes wins.
var suffixRules = []suffixRule{
	{"ications", ""},
	{"ication", ""},
	{"ations", ""},
	{"ation", ""},
	{"ified", "if"},
	{"ifies", "if"},
	{"ments", ""},
	{"ment", ""},
	{"ness", ""},
	{"ings", ""},
	{"ions", ""},
	{"ify", "if"},
	{"ing", ""},
	{"ion", ""},
	{"ies", "y"},
	{"ied", "y"},
	{"ed", ""},
	{"s", ""},
}

// Stem strips common English suffixes so that inflected forms
// (certified, certification, certify) share a stem.
func Stem(word string) string {
	if len(word) <= 3 {
		return word
	}
	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		if rule.suffix == "s" && (strings.HasSuffix(word, "ss") || strings.HasSuffix(word, "us") || strings.HasSuffix(word, "is")) {
			continue
		}
		stem := word[:len(word)-len(rule.suffix)] + rule.replace
		if len(stem) < 3 {
			continue
		}
		word = stem
		break
	}
	if len(word) > 4 && strings.HasSuffix(word, "e") {
		word = word[:len(word)-1]
	}
	return word
}

// Overlap returns |q∩e| / |q|, the share of question stems present in the evidence
func Overlap(question, evidence map[string]struct{}) float64 {
	if len(question) == 0 {
		return 0
	}
	hits := 0
	for s := range question {
		if _, ok := evidence[s]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(question))
}
