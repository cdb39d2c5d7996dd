// Package normalize turns raw evidence batches into a deduplicated, categorized EvidenceSet.
package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalizer cleans, categorizes, weights and deduplicates raw evidence
type Normalizer struct {
	cfg         model.NormalizeConfig
	categorizer *Categorizer
	trust       *TrustTable
	logger      *slog.Logger
}

// NewNormalizer creates a normalizer. A nil categorizer uses the default category table.
func NewNormalizer(cfg model.NormalizeConfig, categorizer *Categorizer) *Normalizer {
	if categorizer == nil {
		categorizer = NewCategorizer(nil)
	}
	return &Normalizer{
		cfg:         cfg,
		categorizer: categorizer,
		trust:       NewTrustTable(cfg),
		logger:      slog.Default(),
	}
}

// SetLogger replaces the logger
func (n *Normalizer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		n.logger = logger
	}
}

type candidate struct {
	ev     model.Evidence
	key    string
	tokens map[string]struct{}
}

// Normalize produces an EvidenceSet from raw batches. It never fails: items that
// are empty, too short or from an unknown source kind are dropped. Feeding the
// result back through AsBatches yields the same set.
func (n *Normalizer) Normalize(batches []model.RawEvidenceBatch) *model.EvidenceSet {
	fold := cases.Fold()
	var candidates []candidate
	dropped := 0

	for bi, batch := range batches {
		if !n.trust.Known(batch.SourceKind) {
			n.logger.Debug("skipping batch with unknown source kind", "batch", bi, "source_kind", batch.SourceKind)
			dropped += len(batch.Items)
			continue
		}

		for _, raw := range batch.Items {
			text := CleanText(raw.Text, n.cfg.MaxEvidenceLength)
			if utf8.RuneCountInString(text) < n.cfg.MinEvidenceLength {
				dropped++
				continue
			}

			key := dedupKey(fold, text)
			if key == "" {
				dropped++
				continue
			}

			ref := raw.Ref
			if ref == "" {
				ref = batch.SourceRef
			}
			rank := raw.Rank
			if rank < 0 {
				rank = 0
			}

			candidates = append(candidates, candidate{
				ev: model.Evidence{
					Text:        text,
					SourceKind:  batch.SourceKind,
					SourceRef:   ref,
					Category:    n.categorizer.Categorize(text),
					TrustWeight: n.trust.Weight(batch.SourceKind, rank, ref),
					Rank:        rank,
				},
				key:    key,
				tokens: tokenSet(key),
			})
		}
	}

	// Visit by trust (desc); candidates are already in (batch, item) order so a
	// stable sort keeps the earliest source first among equal trust.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].ev.TrustWeight > candidates[order[b]].ev.TrustWeight
	})

	kept := make([]int, 0, len(candidates))
	for _, i := range order {
		duplicate := false
		for _, k := range kept {
			if n.isDuplicate(candidates[i], candidates[k]) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, i)
		}
	}
	sort.Ints(kept)

	items := make([]model.Evidence, 0, len(kept))
	for _, i := range kept {
		ev := candidates[i].ev
		ev.ID = fmt.Sprintf("E%d", len(items)+1)
		items = append(items, ev)
	}

	n.logger.Debug("normalized evidence",
		"batches", len(batches),
		"candidates", len(candidates),
		"duplicates", len(candidates)-len(kept),
		"dropped", dropped,
		"kept", len(items))

	return model.NewEvidenceSet(items)
}

func (n *Normalizer) isDuplicate(a, b candidate) bool {
	if a.key == b.key {
		return true
	}
	return Jaccard(a.tokens, b.tokens) >= n.cfg.DedupThreshold
}

// CleanText applies NFKC, drops control characters, collapses whitespace and
// truncates to maxRunes at a word boundary when one is reasonably close.
func CleanText(s string, maxRunes int) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)[:maxRunes]
	cut := len(runes)
	for i := len(runes) - 1; i > maxRunes/2; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut]))
}

// dedupKey case-folds text, replaces punctuation and symbols with spaces and
// collapses whitespace.
func dedupKey(fold cases.Caser, text string) string {
	folded := fold.String(text)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(stripped), " ")
}

func tokenSet(key string) map[string]struct{} {
	fields := strings.Fields(key)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|; two empty sets are identical
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
