// Package domain provides shared domain types for goalsync.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All serialized field names use snake_case.
package domain

import (
	"fmt"
	"strings"
)

// Segment classifies a goal and governs its targeting and harvesting policy.
type Segment string

// Segment values accepted in task files.
const (
	SegmentBranded    Segment = "branded"
	SegmentUnbranded  Segment = "unbranded"
	SegmentCompetitor Segment = "competitor"
	SegmentAutomatic  Segment = "automatic"
	SegmentCustom     Segment = "custom"
)

// Segments returns every supported segment in display order.
func Segments() []Segment {
	return []Segment{SegmentBranded, SegmentUnbranded, SegmentCompetitor, SegmentAutomatic, SegmentCustom}
}

// Valid reports whether s is a known segment.
func (s Segment) Valid() bool {
	for _, known := range Segments() {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSegment maps task-file spellings onto a Segment. The original
// spreadsheet labels ("manual", "non-branded", "auto") are accepted.
func ParseSegment(raw string) (Segment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "branded", "brand":
		return SegmentBranded, nil
	case "unbranded", "non-branded", "nonbranded", "manual":
		return SegmentUnbranded, nil
	case "competitor", "competitors":
		return SegmentCompetitor, nil
	case "automatic", "auto":
		return SegmentAutomatic, nil
	case "custom":
		return SegmentCustom, nil
	default:
		return "", fmt.Errorf("unknown segment %q", raw)
	}
}

// TargetingMode selects between keyword and product-attribute targeting.
type TargetingMode string

// Targeting modes.
const (
	ModeKeyword TargetingMode = "keyword"
	ModeProduct TargetingMode = "product"
)

// ParseTargetingMode maps task-file spellings onto a TargetingMode.
// An empty value means keyword targeting.
func ParseTargetingMode(raw string) (TargetingMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "keyword", "kw":
		return ModeKeyword, nil
	case "product", "pat", "product-attribute", "product_attribute":
		return ModeProduct, nil
	default:
		return "", fmt.Errorf("unknown targeting mode %q", raw)
	}
}

// MatchType is the match scope of a search-space entry.
type MatchType string

// Match types. EXPRESSION tags product targets, both positive and negative.
const (
	MatchExact          MatchType = "EXACT"
	MatchPhrase         MatchType = "PHRASE"
	MatchBroad          MatchType = "BROAD"
	MatchExpression     MatchType = "EXPRESSION"
	MatchNegativeExact  MatchType = "NEGATIVE_EXACT"
	MatchNegativePhrase MatchType = "NEGATIVE_PHRASE"
)

// ParseMatchType maps task-file spellings onto a positive MatchType.
func ParseMatchType(raw string) (MatchType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "EXACT":
		return MatchExact, nil
	case "PHRASE":
		return MatchPhrase, nil
	case "BROAD":
		return MatchBroad, nil
	case "EXPRESSION", "TARGETING_EXPRESSION", "TARGETING-EXPRESSION", "PAT":
		return MatchExpression, nil
	default:
		return "", fmt.Errorf("unknown match type %q", raw)
	}
}

// Task is one desired goal. Tasks are read-only input for a run.
//
// Example YAML representation:
//
//	- asin: B07Y5L9WLP
//	  sku: NT15511A
//	  segment: unbranded
//	  mode: keyword
//	  match_type: EXACT
//	  daily_budget: 16
//	  target_acos: 60
//	  terms: [widget]
type Task struct {
	// ID is an optional explicit key. When empty, the ASIN is the key.
	ID string `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`

	// ASIN is the identifier resolved to a remote product id.
	ASIN string `json:"asin" yaml:"asin" toml:"asin"`

	// SKU is the seller SKU; it leads the goal title.
	SKU string `json:"sku" yaml:"sku" toml:"sku"`

	Segment   Segment       `json:"segment" yaml:"segment" toml:"segment"`
	Mode      TargetingMode `json:"mode" yaml:"mode" toml:"mode"`
	MatchType MatchType     `json:"match_type" yaml:"match_type" toml:"match_type"`

	// DailyBudget of zero means use the segment allocation table.
	DailyBudget float64 `json:"daily_budget,omitempty" yaml:"daily_budget,omitempty" toml:"daily_budget,omitempty"`

	// TargetACoS is the target-return ratio in percent. Zero means use the
	// segment allocation table.
	TargetACoS float64 `json:"target_acos,omitempty" yaml:"target_acos,omitempty" toml:"target_acos,omitempty"`

	// Terms holds positive keywords (keyword mode) or product targets (product mode).
	Terms []string `json:"terms" yaml:"terms" toml:"terms"`

	NegativeTerms          []string `json:"negative_terms" yaml:"negative_terms" toml:"negative_terms"`
	NegativePhraseTerms    []string `json:"negative_phrase_terms" yaml:"negative_phrase_terms" toml:"negative_phrase_terms"`
	NegativeProductTargets []string `json:"negative_product_targets" yaml:"negative_product_targets" toml:"negative_product_targets"`
}

// Key returns the task's identity in the progress ledger: the explicit ID,
// or "{SKU}/{ASIN}/{ALLOCATION_KEY}" so one product can carry a goal per
// segment and match type. The SKU part is dropped when it equals the ASIN.
func (t *Task) Key() string {
	if t.ID != "" {
		return t.ID
	}
	parts := make([]string, 0, 3)
	if t.SKU != "" && t.SKU != t.ASIN {
		parts = append(parts, t.SKU)
	}
	parts = append(parts, t.ASIN, t.AllocationKey())
	return strings.Join(parts, "/")
}

// AllocationKey returns the SEGMENT_MATCH key used by the budget and ACoS
// allocation tables, e.g. "BRANDED_EXACT", "MANUAL_PHRASE", "COMPETITOR_PAT", "AUTO".
func (t *Task) AllocationKey() string {
	var prefix string
	switch t.Segment {
	case SegmentBranded:
		prefix = "BRANDED"
	case SegmentUnbranded:
		prefix = "MANUAL"
	case SegmentCompetitor:
		prefix = "COMPETITOR"
	case SegmentAutomatic:
		return "AUTO"
	default:
		prefix = "CUSTOM"
	}

	if t.Mode == ModeProduct {
		return prefix + "_PAT"
	}
	return prefix + "_" + string(t.MatchType)
}
