package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/config"
	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/ledger"
	"github.com/mrz1836/goalsync/internal/payload"
	"github.com/mrz1836/goalsync/internal/perpetua"
	"github.com/mrz1836/goalsync/internal/resolver"
	"github.com/mrz1836/goalsync/internal/tui"
)

// newOutput returns the tui.Output for the selected format.
func newOutput(w io.Writer, format string) tui.Output {
	if format == OutputJSON {
		return tui.NewOutput(w, tui.FormatJSON)
	}
	return tui.NewOutput(w, tui.FormatText)
}

// serviceFactory builds the components of a run from configuration.
type serviceFactory struct {
	cfg    *config.Config
	clock  clock.Clock
	logger zerolog.Logger
}

// newServiceFactory loads .env and the layered configuration, honouring an
// explicit --config file.
func newServiceFactory(ctx context.Context, configFile string) (*serviceFactory, error) {
	logger := zerolog.Ctx(ctx).With().Str("component", "cli").Logger()

	if err := config.LoadDotEnv(constants.EnvFileName); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(ctx, configFile)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("ledger_dir", cfg.Ledger.Dir).
		Str("ledger_backend", cfg.Ledger.Backend).
		Str("api_base_url", cfg.API.BaseURL).
		Msg("configuration loaded")

	return &serviceFactory{cfg: cfg, clock: clock.RealClock{}, logger: logger}, nil
}

// Client creates the Perpetua client. It requires api.company_id and the token.
func (f *serviceFactory) Client() (*perpetua.Client, error) {
	if err := config.ValidateRemote(f.cfg); err != nil {
		return nil, err
	}
	token, err := f.cfg.API.Token()
	if err != nil {
		return nil, err
	}
	return perpetua.New(perpetua.Options{
		BaseURL:    f.cfg.API.BaseURL,
		GraphQLURL: f.cfg.API.GraphQLURL,
		CompanyID:  f.cfg.API.CompanyID,
		Token:      token,
		Origin:     f.cfg.API.Origin,
		Referer:    f.cfg.API.Referer,
		Timeout:    f.cfg.API.Timeout,
	})
}

// Cache opens the product cache. A read-only cache never writes back.
func (f *serviceFactory) Cache(readOnly bool) (resolver.Cache, error) {
	cache, err := resolver.OpenFileCache(f.cfg.ProductCachePath(), f.clock)
	if err != nil {
		return nil, err
	}
	if readOnly {
		return resolver.ReadOnly(cache), nil
	}
	return cache, nil
}

// Resolver wires search and cache together with the configured lookup policy.
func (f *serviceFactory) Resolver(search resolver.Searcher, cache resolver.Cache) *resolver.Resolver {
	if f.cfg.Resolver.AcceptFirstMatch {
		f.logger.Debug().Msg("first search result accepted when no exact ASIN match exists")
	}
	return resolver.New(search, cache, resolver.Options{
		Lookback:         f.cfg.Resolver.Lookback,
		PageSize:         f.cfg.Resolver.PageSize,
		AcceptFirstMatch: f.cfg.Resolver.AcceptFirstMatch,
		Clock:            f.clock,
	})
}

// Builder creates the payload builder from the payload and harvest settings.
func (f *serviceFactory) Builder() (*payload.Builder, error) {
	harvestOnly, err := payload.ParseSegments(f.cfg.Harvest.HarvestOnlySegments)
	if err != nil {
		return nil, fmt.Errorf("%w: harvest.harvest_only_segments: %w", errors.ErrConfigInvalidPayload, err)
	}
	negatives, err := payload.LoadNegativeASINs(f.cfg.Payload.NegativeASINsFile)
	if err != nil {
		return nil, err
	}
	if len(negatives) > 0 {
		f.logger.Debug().Int("count", len(negatives)).Msg("global negative ASINs loaded")
	}

	return payload.New(payload.Options{
		MinBudget:     f.cfg.Payload.MinBudget,
		MinBid:        f.cfg.Payload.MinBid,
		MaxBid:        f.cfg.Payload.MaxBid,
		Status:        f.cfg.Payload.Status,
		Allocation:    payload.NewAllocation(f.cfg.Payload.BudgetAllocation, f.cfg.Payload.ACoSAllocation),
		HarvestOnly:   harvestOnly,
		RequireSeed:   f.cfg.Harvest.RequireSeed,
		Seeds:         payload.NewSeedPolicy(f.cfg.Harvest.SeedTerms, f.cfg.Harvest.DefaultSeed),
		NegativeASINs: negatives,
	}), nil
}

// Ledger opens the configured progress ledger.
func (f *serviceFactory) Ledger() (ledger.Ledger, error) {
	return ledger.Open(f.cfg.Ledger.Backend, f.cfg.LedgerPath(), f.clock)
}

// ExistingLedger opens the ledger only when its file already exists, so
// read-only commands and dry runs never create state. It returns nil, nil
// when there is nothing to open.
func (f *serviceFactory) ExistingLedger() (ledger.Ledger, error) {
	if _, err := os.Stat(f.cfg.LedgerPath()); err != nil {
		if os.IsNotExist(err) {
			return nil, nil //nolint:nilnil // absent ledger is a valid state
		}
		return nil, errors.Wrap(err, "failed to stat ledger")
	}
	return ledger.OpenReadOnly(f.cfg.Ledger.Backend, f.cfg.LedgerPath(), f.clock)
}
