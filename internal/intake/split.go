package intake

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinSentenceLength is the shortest sentence kept by SplitSentences, in runes
const MinSentenceLength = 20

// SplitSentences breaks text at '.', '!' or '?' followed by whitespace.
// Sentences shorter than minLength runes are dropped.
func SplitSentences(text string, minLength int) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.Join(strings.Fields(current.String()), " ")
		if utf8.RuneCountInString(sentence) >= minLength {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) && !isAbbreviation(current.String()) {
				flush()
			}
		}
	}
	if current.Len() > 0 {
		flush()
	}

	return sentences
}

// isAbbreviation reports whether s ends with a short abbreviation such as
// "e.g." or "Inc." that should not end a sentence
func isAbbreviation(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[len(fields)-1]) {
	case "e.g.", "i.e.", "etc.", "inc.", "ltd.", "corp.", "co.", "no.", "vs.", "approx.":
		return true
	}
	return false
}
