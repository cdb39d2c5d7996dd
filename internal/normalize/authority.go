package normalize

import (
	"net/url"
	"strings"
)

// DomainAuthority maps web result hosts to configured base trust weights.
// A host matches its own entry or the closest configured parent domain,
// so "trust.acme.com" falls back to "acme.com" and then "com".
type DomainAuthority struct {
	weights map[string]float64
}

// NewDomainAuthority builds a lookup from domain -> weight. Keys are
// lower-cased and leading dots are ignored (".gov" and "gov" are the same).
func NewDomainAuthority(weights map[string]float64) *DomainAuthority {
	a := &DomainAuthority{weights: make(map[string]float64, len(weights))}
	for domain, w := range weights {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			a.weights[domain] = w
		}
	}
	return a
}

// Lookup returns the weight configured for ref's host, if any
func (a *DomainAuthority) Lookup(ref string) (float64, bool) {
	if a == nil || len(a.weights) == 0 {
		return 0, false
	}
	host := hostOf(ref)
	for host != "" {
		if w, ok := a.weights[host]; ok {
			return w, true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return 0, false
}

// hostOf extracts the lower-cased host from a URL or bare "host/path" reference
func hostOf(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.ContainsAny(ref, " \t") {
		return ""
	}
	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}
