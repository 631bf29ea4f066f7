package payload

import (
	"strings"

	"github.com/mrz1836/goalsync/internal/constants"
)

// defaultBudgetAllocation splits a $100 per-SKU budget across goal types:
// branded 5%, unbranded and automatic 65%, competitor 30%.
func defaultBudgetAllocation() map[string]float64 {
	return map[string]float64{
		"BRANDED_EXACT":     1,
		"BRANDED_PHRASE":    1,
		"BRANDED_BROAD":     1,
		"BRANDED_PAT":       2,
		"MANUAL_EXACT":      16,
		"MANUAL_PHRASE":     16,
		"MANUAL_BROAD":      16,
		"AUTO":              17,
		"COMPETITOR_EXACT":  8,
		"COMPETITOR_PHRASE": 8,
		"COMPETITOR_BROAD":  7,
		"COMPETITOR_PAT":    7,
	}
}

// defaultACoSAllocation targets 20% for branded goals and 60% elsewhere.
func defaultACoSAllocation() map[string]float64 {
	return map[string]float64{
		"BRANDED_EXACT":     20,
		"BRANDED_PHRASE":    20,
		"BRANDED_BROAD":     20,
		"BRANDED_PAT":       20,
		"MANUAL_EXACT":      60,
		"MANUAL_PHRASE":     60,
		"MANUAL_BROAD":      60,
		"AUTO":              60,
		"COMPETITOR_EXACT":  60,
		"COMPETITOR_PHRASE": 60,
		"COMPETITOR_BROAD":  60,
		"COMPETITOR_PAT":    60,
	}
}

// Allocation resolves budget and ACoS defaults by SEGMENT_MATCH key.
type Allocation struct {
	budget map[string]float64
	acos   map[string]float64
}

// NewAllocation merges overrides into the built-in tables. Override keys are
// matched case-insensitively because config loaders lowercase map keys.
func NewAllocation(budgetOverrides, acosOverrides map[string]float64) *Allocation {
	a := &Allocation{
		budget: defaultBudgetAllocation(),
		acos:   defaultACoSAllocation(),
	}
	for k, v := range budgetOverrides {
		a.budget[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	for k, v := range acosOverrides {
		a.acos[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return a
}

// Budget returns the daily budget for key, or DefaultDailyBudget.
func (a *Allocation) Budget(key string) float64 {
	if v, ok := a.budget[key]; ok {
		return v
	}
	return constants.DefaultDailyBudget
}

// ACoS returns the target ACoS for key, or DefaultTargetACoS.
func (a *Allocation) ACoS(key string) float64 {
	if v, ok := a.acos[key]; ok {
		return v
	}
	return constants.DefaultTargetACoS
}
