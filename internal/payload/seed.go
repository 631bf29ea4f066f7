package payload

import (
	"sort"
	"strings"
)

// SeedPolicy picks the single seed keyword for a harvest-only goal from the
// SKU. The platform rejects keyword goals with an empty search space on some
// accounts, so harvesting needs one term to start from.
type SeedPolicy struct {
	prefixes []seedPrefix
	fallback string
}

type seedPrefix struct {
	prefix string
	term   string
}

// NewSeedPolicy builds a policy from a SKU-prefix table and a fallback term.
// Empty prefixes and terms are ignored.
func NewSeedPolicy(table map[string]string, fallback string) *SeedPolicy {
	p := &SeedPolicy{fallback: strings.TrimSpace(fallback)}
	for prefix, term := range table {
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		term = strings.TrimSpace(term)
		if prefix == "" || term == "" {
			continue
		}
		p.prefixes = append(p.prefixes, seedPrefix{prefix: prefix, term: term})
	}

	// Longest prefix first; ties broken alphabetically so lookups are stable.
	sort.Slice(p.prefixes, func(i, j int) bool {
		a, b := p.prefixes[i].prefix, p.prefixes[j].prefix
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return p
}

// Seed returns the seed term for sku and whether one was found.
func (p *SeedPolicy) Seed(sku string) (string, bool) {
	if p == nil {
		return "", false
	}
	upper := strings.ToUpper(strings.TrimSpace(sku))
	for _, sp := range p.prefixes {
		if strings.HasPrefix(upper, sp.prefix) {
			return sp.term, true
		}
	}
	if p.fallback != "" {
		return p.fallback, true
	}
	return "", false
}
