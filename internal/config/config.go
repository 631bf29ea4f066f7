// Package config provides configuration management for goalsync with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (applied by the cli package after Load)
//  2. Environment variables (GOALSYNC_* prefix)
//  3. Explicit --config file
//  4. Project config (.goalsync/config.yaml)
//  5. Global config (~/.goalsync/config.yaml)
//  6. Built-in defaults
//
// The Perpetua API token is never stored in config files. It is read from the
// environment variable named by api.token_env, after an optional .env file in
// the working directory has been loaded.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Ledger backends.
const (
	LedgerBackendJSON   = "json"
	LedgerBackendSQLite = "sqlite"
)

// Config is the root configuration structure for goalsync.
type Config struct {
	// API contains Perpetua endpoint and credential settings.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Run contains batch pacing and retry settings.
	Run RunConfig `yaml:"run" mapstructure:"run"`

	// Resolver contains product lookup settings.
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`

	// Payload contains goal defaults applied by the payload builder.
	Payload PayloadConfig `yaml:"payload" mapstructure:"payload"`

	// Harvest contains the harvest-only goal and seed term policy.
	Harvest HarvestConfig `yaml:"harvest" mapstructure:"harvest"`

	// Ledger contains progress and cache persistence settings.
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
}

// APIConfig contains settings for the Perpetua REST and GraphQL endpoints.
type APIConfig struct {
	// BaseURL is the REST root; goals are created under
	// {base_url}/companies/{company_id}/goals/custom/.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// GraphQLURL is the product search endpoint.
	GraphQLURL string `yaml:"graphql_url" mapstructure:"graphql_url"`

	// CompanyID scopes every request to one advertiser account. Required.
	CompanyID string `yaml:"company_id" mapstructure:"company_id"`

	// TokenEnv names the environment variable holding the bearer token.
	// Default: PERPETUA_TOKEN
	TokenEnv string `yaml:"token_env" mapstructure:"token_env"`

	// Origin and Referer are sent on every request; the platform rejects
	// calls without them.
	Origin  string `yaml:"origin" mapstructure:"origin"`
	Referer string `yaml:"referer" mapstructure:"referer"`

	// Timeout bounds each HTTP request.
	// Default: 30 seconds
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RunConfig contains batch driver settings.
type RunConfig struct {
	// Delay is the pause after every task attempt.
	// Default: 2 seconds
	Delay time.Duration `yaml:"delay" mapstructure:"delay"`

	// RetryAttempts is the total number of create attempts for transient failures.
	// Default: 2, Valid range: 1-10
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`

	// RetryBackoff is the first backoff; each later retry doubles it.
	// Default: 5 seconds
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// StartRow is a 0-based offset into the task list.
	StartRow int `yaml:"start_row" mapstructure:"start_row"`

	// MaxTasks caps how many tasks one run attempts. 0 means no cap.
	MaxTasks int `yaml:"max_tasks" mapstructure:"max_tasks"`
}

// ResolverConfig contains product lookup settings.
type ResolverConfig struct {
	// Lookback is the search window ending now.
	// Default: 30 days
	Lookback time.Duration `yaml:"lookback" mapstructure:"lookback"`

	// PageSize is the number of search results requested.
	// Default: 10
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// AcceptFirstMatch accepts the first search result when no result matches
	// the ASIN exactly. Disable it when precision matters more than coverage.
	// Default: true
	AcceptFirstMatch bool `yaml:"accept_first_match" mapstructure:"accept_first_match"`
}

// PayloadConfig contains goal defaults.
type PayloadConfig struct {
	// MinBudget is the floor for any daily budget.
	MinBudget float64 `yaml:"min_budget" mapstructure:"min_budget"`

	// MinBid and MaxBid bound the platform's automated bidding.
	MinBid float64 `yaml:"min_bid" mapstructure:"min_bid"`
	MaxBid float64 `yaml:"max_bid" mapstructure:"max_bid"`

	// Status is the initial goal status: Enabled or Paused.
	Status string `yaml:"status" mapstructure:"status"`

	// NegativeASINsFile lists ASINs negated on every product-targeting goal.
	NegativeASINsFile string `yaml:"negative_asins_file" mapstructure:"negative_asins_file"`

	// BudgetAllocation and ACoSAllocation override the built-in tables,
	// keyed by SEGMENT_MATCH (e.g. MANUAL_EXACT, COMPETITOR_PAT, AUTO).
	BudgetAllocation map[string]float64 `yaml:"budget_allocation" mapstructure:"budget_allocation"`
	ACoSAllocation   map[string]float64 `yaml:"acos_allocation" mapstructure:"acos_allocation"`
}

// HarvestConfig contains the harvest-only goal policy.
type HarvestConfig struct {
	// HarvestOnlySegments may create keyword goals with no positive terms.
	// Default: [automatic]
	HarvestOnlySegments []string `yaml:"harvest_only_segments" mapstructure:"harvest_only_segments"`

	// RequireSeed supplies one seed term to harvest-only goals because the
	// platform rejects an empty keyword list.
	RequireSeed bool `yaml:"require_seed" mapstructure:"require_seed"`

	// SeedTerms maps SKU prefixes to seed terms; the longest prefix wins.
	SeedTerms map[string]string `yaml:"seed_terms" mapstructure:"seed_terms"`

	// DefaultSeed is used when no SKU prefix matches.
	DefaultSeed string `yaml:"default_seed" mapstructure:"default_seed"`
}

// LedgerConfig contains persistence settings.
type LedgerConfig struct {
	// Backend is "json" (default) or "sqlite".
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Dir holds the progress ledger and product cache.
	// Default: .goalsync/state in the working directory
	Dir string `yaml:"dir" mapstructure:"dir"`
}
