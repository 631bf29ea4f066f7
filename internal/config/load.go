package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/errors"
)

// newViperInstance creates a Viper instance with the GOALSYNC_ env prefix,
// a "." to "_" key replacer, and all defaults registered so AutomaticEnv can
// reach every key during Unmarshal.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from defaults, the global and project config
// files, and GOALSYNC_* environment variables.
//
// Missing config files are expected and not an error.
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, "")
}

// LoadFile is Load plus an explicit config file that takes precedence over
// the global and project files. An explicit file that does not exist is an error.
func LoadFile(ctx context.Context, explicitPath string) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", explicitPath)
		}
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("api.base_url", cfg.API.BaseURL).
		Str("api.company_id", cfg.API.CompanyID).
		Dur("run.delay", cfg.Run.Delay).
		Int("run.retry_attempts", cfg.Run.RetryAttempts).
		Bool("resolver.accept_first_match", cfg.Resolver.AcceptFirstMatch).
		Str("ledger.backend", cfg.Ledger.Backend).
		Str("ledger.dir", cfg.Ledger.Dir).
		Msg("configuration loaded")

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// loadGlobalConfig merges ~/.goalsync/config.yaml when it exists.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig merges .goalsync/config.yaml when it exists.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setDefaults registers every key with its default.
// IMPORTANT: Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.graphql_url", d.API.GraphQLURL)
	v.SetDefault("api.company_id", "")
	v.SetDefault("api.token_env", d.API.TokenEnv)
	v.SetDefault("api.origin", d.API.Origin)
	v.SetDefault("api.referer", d.API.Referer)
	v.SetDefault("api.timeout", d.API.Timeout.String())

	v.SetDefault("run.delay", d.Run.Delay.String())
	v.SetDefault("run.retry_attempts", d.Run.RetryAttempts)
	v.SetDefault("run.retry_backoff", d.Run.RetryBackoff.String())
	v.SetDefault("run.start_row", 0)
	v.SetDefault("run.max_tasks", 0)

	v.SetDefault("resolver.lookback", d.Resolver.Lookback.String())
	v.SetDefault("resolver.page_size", d.Resolver.PageSize)
	v.SetDefault("resolver.accept_first_match", d.Resolver.AcceptFirstMatch)

	v.SetDefault("payload.min_budget", d.Payload.MinBudget)
	v.SetDefault("payload.min_bid", d.Payload.MinBid)
	v.SetDefault("payload.max_bid", d.Payload.MaxBid)
	v.SetDefault("payload.status", d.Payload.Status)
	v.SetDefault("payload.negative_asins_file", "")
	v.SetDefault("payload.budget_allocation", map[string]float64{})
	v.SetDefault("payload.acos_allocation", map[string]float64{})

	v.SetDefault("harvest.harvest_only_segments", d.Harvest.HarvestOnlySegments)
	v.SetDefault("harvest.require_seed", false)
	v.SetDefault("harvest.seed_terms", map[string]string{})
	v.SetDefault("harvest.default_seed", "")

	v.SetDefault("ledger.backend", d.Ledger.Backend)
	v.SetDefault("ledger.dir", d.Ledger.Dir)
}

// viperDecoderOption configures mapstructure to decode durations from strings
// and comma-separated env values into slices.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
