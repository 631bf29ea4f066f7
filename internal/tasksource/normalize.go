package tasksource

import (
	"fmt"
	"strings"

	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
)

// Normalize canonicalises raw tasks in place order and rejects invalid rows.
//
//   - ASIN is required, trimmed and upper-cased; SKU defaults to the ASIN.
//   - segment, mode and match_type accept their task-file spellings.
//   - An empty match_type means EXACT in keyword mode; product mode always
//     uses EXPRESSION.
//   - Missing lists become empty slices.
//   - Task keys must be unique.
func Normalize(raw []domain.Task) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for i := range raw {
		task, err := normalizeTask(raw[i])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", errors.ErrTaskSourceInvalid, i, err)
		}

		key := task.Key()
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %q at rows %d and %d", errors.ErrDuplicateTask, key, first, i)
		}
		seen[key] = i
		tasks = append(tasks, task)
	}

	return tasks, nil
}

func normalizeTask(t domain.Task) (domain.Task, error) {
	t.ID = strings.TrimSpace(t.ID)
	t.ASIN = strings.ToUpper(strings.TrimSpace(t.ASIN))
	t.SKU = strings.TrimSpace(t.SKU)

	if t.ASIN == "" {
		return t, fmt.Errorf("asin %w", errors.ErrEmptyValue)
	}
	if t.SKU == "" {
		t.SKU = t.ASIN
	}

	segment, err := domain.ParseSegment(string(t.Segment))
	if err != nil {
		return t, err
	}
	t.Segment = segment

	mode, err := domain.ParseTargetingMode(string(t.Mode))
	if err != nil {
		return t, err
	}
	t.Mode = mode

	switch {
	case t.Mode == domain.ModeProduct:
		t.MatchType = domain.MatchExpression
	case strings.TrimSpace(string(t.MatchType)) == "":
		t.MatchType = domain.MatchExact
	default:
		mt, err := domain.ParseMatchType(string(t.MatchType))
		if err != nil {
			return t, err
		}
		if mt == domain.MatchExpression {
			return t, fmt.Errorf("match type %s requires mode product", mt)
		}
		t.MatchType = mt
	}

	if t.DailyBudget < 0 {
		return t, fmt.Errorf("daily_budget %w: %g", errors.ErrValueOutOfRange, t.DailyBudget)
	}
	if t.TargetACoS < 0 {
		return t, fmt.Errorf("target_acos %w: %g", errors.ErrValueOutOfRange, t.TargetACoS)
	}

	t.Terms = orEmpty(t.Terms)
	t.NegativeTerms = orEmpty(t.NegativeTerms)
	t.NegativePhraseTerms = orEmpty(t.NegativePhraseTerms)
	t.NegativeProductTargets = orEmpty(t.NegativeProductTargets)

	return t, nil
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
