// Package payload turns a normalised task and its resolved product id into
// the goal creation request. Building is pure: the same task, product id and
// options always produce the same payload.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/fsutil, std lib
//   - MUST NOT import: internal/perpetua, internal/batch, internal/cli
package payload

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/domain"
)

// Skip reasons recorded in the ledger.
const (
	ReasonProductNotFound  = "product not found"
	ReasonNoKeywords       = "no keywords found"
	ReasonNoProductTargets = "no product targets found"
	ReasonNoSeed           = "no seed term for harvest-only goal"
)

// SkipReason explains why a task produced no payload. It is an expected
// outcome, not an error.
type SkipReason struct {
	Reason string
}

func (s *SkipReason) String() string {
	if s == nil {
		return ""
	}
	return s.Reason
}

func skip(reason string) *SkipReason {
	return &SkipReason{Reason: reason}
}

// Options configures a Builder.
type Options struct {
	MinBudget float64
	MinBid    float64
	MaxBid    float64
	Status    string

	// Allocation supplies budget and ACoS when a task leaves them at zero.
	// Nil means the built-in tables.
	Allocation *Allocation

	// HarvestOnly lists segments allowed to create keyword goals with no
	// positive terms.
	HarvestOnly []domain.Segment

	// RequireSeed makes harvest-only goals carry one seed term from Seeds.
	RequireSeed bool
	Seeds       *SeedPolicy

	// NegativeASINs are negated on every product-targeting goal.
	NegativeASINs []string
}

// Builder constructs goal payloads.
type Builder struct {
	opts        Options
	harvestOnly map[domain.Segment]struct{}
	status      string
}

// New creates a Builder. Zero-valued limits fall back to the built-in defaults.
func New(opts Options) *Builder {
	if opts.MinBudget <= 0 {
		opts.MinBudget = constants.DefaultMinBudget
	}
	if opts.MinBid <= 0 {
		opts.MinBid = constants.DefaultMinBid
	}
	if opts.MaxBid <= 0 {
		opts.MaxBid = constants.DefaultMaxBid
	}
	if opts.Allocation == nil {
		opts.Allocation = NewAllocation(nil, nil)
	}

	status := strings.TrimSpace(opts.Status)
	if status == "" {
		status = constants.DefaultGoalStatus
	}

	b := &Builder{
		opts:        opts,
		harvestOnly: make(map[domain.Segment]struct{}, len(opts.HarvestOnly)),
		status:      cases.Title(language.English).String(status),
	}
	for _, seg := range opts.HarvestOnly {
		b.harvestOnly[seg] = struct{}{}
	}
	return b
}

// Build returns the payload for task, or the reason the task must be skipped.
// A zero productID always skips.
func (b *Builder) Build(task *domain.Task, productID int64) (*domain.GoalPayload, *SkipReason) {
	if productID <= 0 {
		return nil, skip(ReasonProductNotFound)
	}

	p := &domain.GoalPayload{
		Name:        Title(task.SKU, task.Segment),
		GoalType:    domain.GoalTypeSingleCampaign,
		Status:      b.status,
		DailyBudget: b.budget(task),
		TargetACoS:  b.acos(task),
		MinBid:      b.opts.MinBid,
		MaxBid:      b.opts.MaxBid,
		Products: []domain.GoalProduct{
			{ProductID: productID, ASIN: task.ASIN, SKU: task.SKU},
		},
	}

	if task.Mode == domain.ModeProduct {
		return b.buildProduct(task, p)
	}
	return b.buildKeyword(task, p)
}

func (b *Builder) buildKeyword(task *domain.Task, p *domain.GoalPayload) (*domain.GoalPayload, *SkipReason) {
	p.TargetingType = domain.TargetingKeyword
	p.SearchSpace = entries(cleanTerms(task.Terms), task.MatchType)
	p.Harvesting = &domain.HarvestingSettings{
		Enabled:      true,
		Policy:       domain.HarvestPolicyDiscoverableTerms,
		ApprovalMode: approvalMode(task.Segment),
	}

	if len(p.SearchSpace) == 0 {
		if !b.allowsEmptySearchSpace(task.Segment) {
			return nil, skip(ReasonNoKeywords)
		}
		if b.opts.RequireSeed {
			seed, ok := b.opts.Seeds.Seed(task.SKU)
			if !ok {
				return nil, skip(ReasonNoSeed)
			}
			p.SearchSpace = entries([]string{seed}, task.MatchType)
		}
	}

	negatives := entries(cleanTerms(task.NegativeTerms), domain.MatchNegativeExact)
	negatives = append(negatives, entries(cleanTerms(task.NegativePhraseTerms), domain.MatchNegativePhrase)...)
	negatives = append(negatives, productEntries(task.NegativeProductTargets)...)
	p.NegativeSearchSpace = negatives
	return p, nil
}

// allowsEmptySearchSpace reports whether seg may rely on harvesting alone.
// Only listed segments whose harvested terms auto-activate qualify, so
// branded goals always keep manual approval.
func (b *Builder) allowsEmptySearchSpace(seg domain.Segment) bool {
	if _, ok := b.harvestOnly[seg]; !ok {
		return false
	}
	return approvalMode(seg) == domain.ApprovalAutoActivate
}

func (b *Builder) buildProduct(task *domain.Task, p *domain.GoalPayload) (*domain.GoalPayload, *SkipReason) {
	p.TargetingType = domain.TargetingProduct
	p.SearchSpace = productEntries(task.Terms)
	if len(p.SearchSpace) == 0 {
		return nil, skip(ReasonNoProductTargets)
	}

	negatives := append([]string{}, task.NegativeProductTargets...)
	negatives = append(negatives, b.opts.NegativeASINs...)
	p.NegativeSearchSpace = productEntries(negatives)
	return p, nil
}

func (b *Builder) budget(task *domain.Task) float64 {
	budget := task.DailyBudget
	if budget <= 0 {
		budget = b.opts.Allocation.Budget(task.AllocationKey())
	}
	if budget < b.opts.MinBudget {
		budget = b.opts.MinBudget
	}
	return budget
}

func (b *Builder) acos(task *domain.Task) float64 {
	if task.TargetACoS > 0 {
		return task.TargetACoS
	}
	return b.opts.Allocation.ACoS(task.AllocationKey())
}

// approvalMode keeps branded discoveries behind manual review; every other
// segment activates harvested terms automatically.
func approvalMode(seg domain.Segment) string {
	if seg == domain.SegmentBranded {
		return domain.ApprovalManualApproval
	}
	return domain.ApprovalAutoActivate
}

// Title returns the goal name "{SKU} -JN[SP_{LABEL}]" cut to the platform's
// 60-rune limit. Truncation always keeps the leading characters.
func Title(sku string, seg domain.Segment) string {
	name := norm.NFC.String(strings.TrimSpace(sku)) + " -JN[SP_" + segmentLabel(seg) + "]"
	runes := []rune(name)
	if len(runes) > constants.MaxGoalTitleLength {
		return string(runes[:constants.MaxGoalTitleLength])
	}
	return name
}

func segmentLabel(seg domain.Segment) string {
	switch seg {
	case domain.SegmentBranded:
		return "BRANDED"
	case domain.SegmentUnbranded:
		return "NON-BRANDED"
	case domain.SegmentCompetitor:
		return "COMPETITOR"
	case domain.SegmentAutomatic:
		return "AUTO"
	default:
		return "CUSTOM"
	}
}

// ParseSegments converts configured segment names, ignoring case.
func ParseSegments(raw []string) ([]domain.Segment, error) {
	out := make([]domain.Segment, 0, len(raw))
	for _, r := range raw {
		seg, err := domain.ParseSegment(r)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}
