// Package constants provides centralized constant values used throughout goalsync.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by goalsync for state persistence.
const (
	// LedgerFileName is the JSON document that records per-task outcomes.
	LedgerFileName = "progress.json"

	// LedgerDBFileName is the SQLite database used when ledger.backend is "sqlite".
	LedgerDBFileName = "progress.db"

	// ProductCacheFileName is the JSON document mapping ASINs to remote product ids.
	ProductCacheFileName = "product_cache.json"

	// LockFileSuffix is appended to a state file path to form its lock file.
	LockFileSuffix = ".lock"

	// TempFileSuffix is appended to a state file path during atomic writes.
	TempFileSuffix = ".tmp"
)

// Directory names and paths used by goalsync for organizing data.
const (
	// GoalsyncHome is the hidden directory name where goalsync stores all its data.
	// This directory is created in the user's home directory.
	GoalsyncHome = ".goalsync"

	// StateDir is the directory name where the ledger and product cache live.
	StateDir = "state"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Remote platform defaults.
const (
	// DefaultAPIBaseURL is the REST root of the Perpetua platform.
	DefaultAPIBaseURL = "https://api.perpetua.io/v2"

	// DefaultGraphQLURL is the query endpoint used for product lookups.
	DefaultGraphQLURL = "https://api.perpetua.io/graphql"

	// DefaultOrigin is the Origin header the platform expects on every call.
	DefaultOrigin = "https://app.perpetua.io"

	// DefaultReferer is the Referer header the platform expects on every call.
	DefaultReferer = "https://app.perpetua.io/"

	// DefaultTokenEnv is the environment variable holding the API bearer token.
	DefaultTokenEnv = "PERPETUA_TOKEN"

	// DefaultRequestTimeout bounds every remote call.
	DefaultRequestTimeout = 30 * time.Second
)

// Batch run defaults.
const (
	// DefaultTaskDelay is the pause enforced after every task attempt.
	DefaultTaskDelay = 2 * time.Second

	// DefaultRetryAttempts is the total number of create attempts for transient failures.
	DefaultRetryAttempts = 2

	// DefaultRetryBackoff is the wait before the first transient retry; it doubles per retry.
	DefaultRetryBackoff = 5 * time.Second
)

// Product resolution defaults.
const (
	// DefaultLookbackWindow is the date window used by product search queries.
	DefaultLookbackWindow = 30 * 24 * time.Hour

	// DefaultSearchPageSize is the page size for product search queries.
	DefaultSearchPageSize = 10
)

// Goal payload limits and defaults.
const (
	// MaxGoalTitleLength is the hard cap on goal titles, counted in runes.
	MaxGoalTitleLength = 60

	// DefaultMinBudget is the failsafe floor for a goal's daily budget.
	DefaultMinBudget = 5

	// DefaultMinBid is the lowest bid the platform may place.
	DefaultMinBid = 0.20

	// DefaultMaxBid is the highest bid the platform may place.
	DefaultMaxBid = 2.00

	// DefaultDailyBudget applies when neither the task nor the allocation
	// table names a budget.
	DefaultDailyBudget = 10

	// DefaultTargetACoS applies when neither the task nor the allocation
	// table names a target ACoS.
	DefaultTargetACoS = 30

	// DefaultGoalStatus is the status new goals are created with.
	DefaultGoalStatus = "Enabled"

	// ASINLength is the length of a valid ASIN.
	ASINLength = 10
)

// Lock configuration.
const (
	// LockTimeout is the maximum duration to wait for acquiring a file lock.
	LockTimeout = 5 * time.Second

	// LockRetryInterval is the pause between lock acquisition attempts.
	LockRetryInterval = 50 * time.Millisecond
)

// Log rotation settings for the CLI log file.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.goalsync/logs/goalsync.log
	CLILogFileName = "goalsync.log"

	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 5

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated files.
	LogCompress = true
)

// Schema version constants for data migration support.
const (
	// LedgerSchemaVersion is the current version of the ledger JSON document.
	LedgerSchemaVersion = "1.0"

	// CacheSchemaVersion is the current version of the product cache document.
	CacheSchemaVersion = "1.0"
)

// Configuration file names.
const (
	// ConfigFileName is the name of both the global and project config files.
	ConfigFileName = "config.yaml"

	// EnvFileName is the dotenv file loaded from the working directory.
	EnvFileName = ".env"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "GOALSYNC"
)
