package config

import (
	"net/url"
	"strings"

	"github.com/mrz1836/goalsync/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// api.company_id is not checked here because offline commands (status,
// tasks check, cache list) run without it; see ValidateRemote.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateAPIConfig(&cfg.API); err != nil {
		return err
	}
	if err := validateRunConfig(&cfg.Run); err != nil {
		return err
	}
	if err := validateResolverConfig(&cfg.Resolver); err != nil {
		return err
	}
	if err := validatePayloadConfig(&cfg.Payload); err != nil {
		return err
	}
	if err := validateHarvestConfig(&cfg.Harvest); err != nil {
		return err
	}
	return validateLedgerConfig(&cfg.Ledger)
}

// ValidateRemote checks the settings needed to talk to Perpetua.
func ValidateRemote(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}
	if strings.TrimSpace(cfg.API.CompanyID) == "" {
		return errors.Wrap(errors.ErrConfigInvalidAPI,
			"api.company_id must be set (GOALSYNC_API_COMPANY_ID or config file)")
	}
	return nil
}

func validateAPIConfig(cfg *APIConfig) error {
	if err := validateHTTPURL("api.base_url", cfg.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("api.graphql_url", cfg.GraphQLURL); err != nil {
		return err
	}
	if cfg.TokenEnv == "" {
		return errors.Wrap(errors.ErrConfigInvalidAPI, "api.token_env must not be empty")
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidAPI,
			"api.timeout must be positive, got %s", cfg.Timeout)
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Wrapf(errors.ErrConfigInvalidAPI,
			"%s must be an http(s) URL, got %q", key, raw)
	}
	return nil
}

func validateRunConfig(cfg *RunConfig) error {
	if cfg.Delay < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidRun,
			"run.delay cannot be negative, got %s", cfg.Delay)
	}
	if cfg.RetryAttempts < 1 || cfg.RetryAttempts > 10 {
		return errors.Wrapf(errors.ErrConfigInvalidRun,
			"run.retry_attempts must be between 1 and 10, got %d", cfg.RetryAttempts)
	}
	if cfg.RetryBackoff < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidRun,
			"run.retry_backoff cannot be negative, got %s", cfg.RetryBackoff)
	}
	if cfg.StartRow < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidRun,
			"run.start_row cannot be negative, got %d", cfg.StartRow)
	}
	if cfg.MaxTasks < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidRun,
			"run.max_tasks cannot be negative, got %d", cfg.MaxTasks)
	}
	return nil
}

func validateResolverConfig(cfg *ResolverConfig) error {
	if cfg.Lookback <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidResolver,
			"resolver.lookback must be positive, got %s", cfg.Lookback)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return errors.Wrapf(errors.ErrConfigInvalidResolver,
			"resolver.page_size must be between 1 and 100, got %d", cfg.PageSize)
	}
	return nil
}

func validatePayloadConfig(cfg *PayloadConfig) error {
	if cfg.MinBudget <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidPayload,
			"payload.min_budget must be positive, got %g", cfg.MinBudget)
	}
	if cfg.MinBid <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidPayload,
			"payload.min_bid must be positive, got %g", cfg.MinBid)
	}
	if cfg.MaxBid < cfg.MinBid {
		return errors.Wrapf(errors.ErrConfigInvalidPayload,
			"payload.max_bid (%g) must not be below payload.min_bid (%g)", cfg.MaxBid, cfg.MinBid)
	}
	if !strings.EqualFold(cfg.Status, "Enabled") && !strings.EqualFold(cfg.Status, "Paused") {
		return errors.Wrapf(errors.ErrConfigInvalidPayload,
			"payload.status must be Enabled or Paused, got %q", cfg.Status)
	}
	for key, budget := range cfg.BudgetAllocation {
		if budget < 0 {
			return errors.Wrapf(errors.ErrConfigInvalidPayload,
				"payload.budget_allocation.%s cannot be negative, got %g", key, budget)
		}
	}
	for key, acos := range cfg.ACoSAllocation {
		if acos < 0 {
			return errors.Wrapf(errors.ErrConfigInvalidPayload,
				"payload.acos_allocation.%s cannot be negative, got %g", key, acos)
		}
	}
	return nil
}

func validateHarvestConfig(cfg *HarvestConfig) error {
	for _, segment := range cfg.HarvestOnlySegments {
		if strings.TrimSpace(segment) == "" {
			return errors.Wrap(errors.ErrConfigInvalidPayload,
				"harvest.harvest_only_segments must not contain empty entries")
		}
		if strings.EqualFold(strings.TrimSpace(segment), "branded") {
			return errors.Wrap(errors.ErrConfigInvalidPayload,
				"harvest.harvest_only_segments cannot include branded: branded goals require manual approval")
		}
	}
	return nil
}

func validateLedgerConfig(cfg *LedgerConfig) error {
	if cfg.Backend != LedgerBackendJSON && cfg.Backend != LedgerBackendSQLite {
		return errors.Wrapf(errors.ErrConfigInvalidLedger,
			"ledger.backend must be %q or %q, got %q", LedgerBackendJSON, LedgerBackendSQLite, cfg.Backend)
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return errors.Wrap(errors.ErrConfigInvalidLedger, "ledger.dir must not be empty")
	}
	return nil
}
