package normalize

import (
	"math"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// TrustTable assigns trust weights by source kind, decaying web results by search rank
type TrustTable struct {
	weights     map[model.SourceKind]float64
	authority   *DomainAuthority
	rankDecay   float64
	minWebTrust float64
}

// NewTrustTable creates a trust table from normalization settings
func NewTrustTable(cfg model.NormalizeConfig) *TrustTable {
	weights := make(map[model.SourceKind]float64, len(cfg.TrustWeights))
	for kind, w := range cfg.TrustWeights {
		weights[kind] = w
	}
	return &TrustTable{
		weights:     weights,
		authority:   NewDomainAuthority(cfg.DomainTrust),
		rankDecay:   cfg.RankDecay,
		minWebTrust: cfg.MinWebTrust,
	}
}

// Known reports whether the table has a weight for kind
func (t *TrustTable) Known(kind model.SourceKind) bool {
	_, ok := t.weights[kind]
	return ok
}

// Weight returns the trust weight for an item of the given kind, rank and source ref.
// Web results from a configured domain start from that domain's weight. Web results
// ranked below the first are scaled by rankDecay^(rank-1) and floored at
// minWebTrust (or the base weight, if that is lower).
func (t *TrustTable) Weight(kind model.SourceKind, rank int, ref string) float64 {
	base := t.weights[kind]
	if kind != model.SourceWebSearch {
		return base
	}
	if w, ok := t.authority.Lookup(ref); ok {
		base = w
	}
	if rank <= 1 {
		return base
	}

	w := base * math.Pow(t.rankDecay, float64(rank-1))
	floor := math.Min(base, t.minWebTrust)
	if w < floor {
		w = floor
	}
	return w
}
