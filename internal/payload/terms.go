package payload

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/mrz1836/goalsync/internal/domain"
)

// cleanTerms NFC-normalises and trims terms, drops empties and removes
// case-insensitive repeats. The first spelling seen is kept.
func cleanTerms(terms []string) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(norm.NFC.String(term))
		if term == "" {
			continue
		}
		key := fold.String(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	return out
}

// productTarget renders a product target as an asin expression. Bare ASINs and
// asin="..." expressions are both accepted; other expressions pass through.
//
//	productTarget("b0abc12345")         // asin="B0ABC12345"
//	productTarget(`asin="B0ABC12345"`)  // asin="B0ABC12345"
//	productTarget(`category="12345"`)   // category="12345"
func productTarget(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if rest, ok := cutPrefixFold(s, "asin="); ok {
		s = strings.Trim(strings.TrimSpace(rest), `"'`)
	} else if strings.Contains(s, "=") {
		return s
	}
	return `asin="` + strings.ToUpper(s) + `"`
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// entries maps cleaned terms onto search-space entries of one match type.
func entries(terms []string, mt domain.MatchType) []domain.SearchSpaceEntry {
	out := make([]domain.SearchSpaceEntry, 0, len(terms))
	for _, t := range terms {
		out = append(out, domain.SearchSpaceEntry{Text: t, MatchType: mt})
	}
	return out
}

// productEntries normalises product targets and de-duplicates them after
// rendering, so "B0X" and `asin="B0X"` collapse into one entry.
func productEntries(targets []string) []domain.SearchSpaceEntry {
	rendered := make([]string, 0, len(targets))
	for _, t := range cleanTerms(targets) {
		if expr := productTarget(t); expr != "" {
			rendered = append(rendered, expr)
		}
	}
	return entries(cleanTerms(rendered), domain.MatchExpression)
}
