package config

import (
	"path/filepath"

	"github.com/mrz1836/goalsync/internal/constants"
)

// DefaultConfig returns a Config with the built-in defaults. It mirrors
// setDefaults, which seeds the same values into viper.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    constants.DefaultAPIBaseURL,
			GraphQLURL: constants.DefaultGraphQLURL,
			TokenEnv:   constants.DefaultTokenEnv,
			Origin:     constants.DefaultOrigin,
			Referer:    constants.DefaultReferer,
			Timeout:    constants.DefaultRequestTimeout,
		},
		Run: RunConfig{
			Delay:         constants.DefaultTaskDelay,
			RetryAttempts: constants.DefaultRetryAttempts,
			RetryBackoff:  constants.DefaultRetryBackoff,
		},
		Resolver: ResolverConfig{
			Lookback:         constants.DefaultLookbackWindow,
			PageSize:         constants.DefaultSearchPageSize,
			AcceptFirstMatch: true,
		},
		Payload: PayloadConfig{
			MinBudget: constants.DefaultMinBudget,
			MinBid:    constants.DefaultMinBid,
			MaxBid:    constants.DefaultMaxBid,
			Status:    constants.DefaultGoalStatus,
		},
		Harvest: HarvestConfig{
			HarvestOnlySegments: []string{"automatic"},
		},
		Ledger: LedgerConfig{
			Backend: LedgerBackendJSON,
			Dir:     filepath.Join(constants.GoalsyncHome, constants.StateDir),
		},
	}
}
