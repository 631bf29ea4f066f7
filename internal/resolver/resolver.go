// Package resolver maps ASINs to Perpetua product ids, cache first, with a
// bounded product search on a miss.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/perpetua"
)

// Searcher runs a product search. *perpetua.Client implements it.
type Searcher interface {
	SearchProducts(ctx context.Context, q perpetua.ProductQuery) ([]domain.ProductMatch, error)
}

// Options tunes the search issued on a cache miss.
type Options struct {
	// Lookback is the search window ending now.
	Lookback time.Duration
	// PageSize is the number of results requested.
	PageSize int
	// AcceptFirstMatch takes the first result when none matches the ASIN exactly.
	AcceptFirstMatch bool
	// Clock supplies "now" for the search window.
	Clock clock.Clock
}

// Resolver resolves ASINs. It is safe for concurrent use; concurrent lookups
// of one ASIN share a single remote search.
type Resolver struct {
	search Searcher
	cache  Cache
	opts   Options
	group  singleflight.Group
}

// New returns a Resolver over search and cache.
func New(search Searcher, cache Cache, opts Options) *Resolver {
	if opts.Lookback <= 0 {
		opts.Lookback = constants.DefaultLookbackWindow
	}
	if opts.PageSize <= 0 {
		opts.PageSize = constants.DefaultSearchPageSize
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Resolver{search: search, cache: cache, opts: opts}
}

// Resolve returns the product id for asin.
//
// A product that cannot be found, including after a transient or rejected
// search failure, yields errors.ErrProductNotFound. Auth and account-limit
// failures are returned as-is so the run halts instead of skipping every
// remaining task. Cache failures are fatal.
func (r *Resolver) Resolve(ctx context.Context, asin string) (int64, error) {
	key := strings.ToUpper(strings.TrimSpace(asin))
	if key == "" {
		return 0, fmt.Errorf("%w: empty asin", errors.ErrProductNotFound)
	}

	id, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.lookup(ctx, key)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// lookup runs inside the singleflight group for key.
func (r *Resolver) lookup(ctx context.Context, asin string) (int64, error) {
	logger := zerolog.Ctx(ctx).With().Str("component", "resolver").Str("asin", asin).Logger()

	// A caller that just finished the same flight may already have stored it.
	id, ok, err := r.cache.Get(ctx, asin)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	end := r.opts.Clock.Now()
	matches, err := r.search.SearchProducts(ctx, perpetua.ProductQuery{
		Search:    asin,
		StartDate: end.Add(-r.opts.Lookback),
		EndDate:   end,
		Offset:    0,
		Limit:     r.opts.PageSize,
	})
	if err != nil {
		if errors.IsFatalRemote(err) {
			return 0, err
		}
		logger.Warn().Err(err).Msg("product search failed")
		return 0, fmt.Errorf("%w: %s: %w", errors.ErrProductNotFound, asin, err)
	}

	match, ok := r.pick(asin, matches)
	if !ok {
		logger.Info().Int("results", len(matches)).Msg("product not found")
		return 0, fmt.Errorf("%w: %s", errors.ErrProductNotFound, asin)
	}
	if !strings.EqualFold(match.ASIN, asin) {
		logger.Warn().
			Str("accepted_asin", match.ASIN).
			Int64("product_id", match.ProductID).
			Str("title", match.Title).
			Msg("no exact match; accepting first search result")
	}

	if err := r.cache.Put(ctx, asin, match.ProductID); err != nil {
		return 0, err
	}

	logger.Debug().Int64("product_id", match.ProductID).Msg("product resolved")
	return match.ProductID, nil
}

// pick applies the matching policy: exact ASIN first, then optionally the first result.
func (r *Resolver) pick(asin string, matches []domain.ProductMatch) (domain.ProductMatch, bool) {
	for _, m := range matches {
		if strings.EqualFold(m.ASIN, asin) && m.ProductID != 0 {
			return m, true
		}
	}
	if r.opts.AcceptFirstMatch && len(matches) > 0 && matches[0].ProductID != 0 {
		return matches[0], true
	}
	return domain.ProductMatch{}, false
}
