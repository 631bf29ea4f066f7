// Package errors provides centralized error handling for goalsync.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrAuthRejected indicates the platform rejected the API credential.
	// A run halts immediately when this is returned.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrAccountLimit indicates the remote account has exhausted its allowed
	// goal count. A run halts immediately when this is returned.
	ErrAccountLimit = errors.New("account resource limit reached")

	// ErrRemoteRequest indicates a recoverable remote failure (rejected payload,
	// server error, timeout).
	ErrRemoteRequest = errors.New("remote request failed")

	// ErrProductNotFound indicates an ASIN could not be resolved to a product id.
	ErrProductNotFound = errors.New("product not found")

	// ErrMissingToken indicates no API token was found in the environment.
	ErrMissingToken = errors.New("api token not set")

	// ErrLedgerWrite indicates the progress ledger could not be persisted.
	ErrLedgerWrite = errors.New("ledger write failed")

	// ErrLedgerCorrupted indicates the progress ledger document is unreadable.
	ErrLedgerCorrupted = errors.New("ledger corrupted")

	// ErrCacheWrite indicates the product cache could not be persisted.
	ErrCacheWrite = errors.New("product cache write failed")

	// ErrCacheCorrupted indicates the product cache document is unreadable.
	ErrCacheCorrupted = errors.New("product cache corrupted")

	// ErrTaskSourceInvalid indicates the task file could not be parsed or failed validation.
	ErrTaskSourceInvalid = errors.New("invalid task source")

	// ErrDuplicateTask indicates two tasks in one source share a key.
	ErrDuplicateTask = errors.New("duplicate task key")

	// ErrUnsupportedFormat indicates a task file extension that cannot be parsed.
	ErrUnsupportedFormat = errors.New("unsupported task file format")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidAPI indicates an invalid api configuration value.
	ErrConfigInvalidAPI = errors.New("invalid api configuration")

	// ErrConfigInvalidRun indicates an invalid run configuration value.
	ErrConfigInvalidRun = errors.New("invalid run configuration")

	// ErrConfigInvalidResolver indicates an invalid resolver configuration value.
	ErrConfigInvalidResolver = errors.New("invalid resolver configuration")

	// ErrConfigInvalidPayload indicates an invalid payload configuration value.
	ErrConfigInvalidPayload = errors.New("invalid payload configuration")

	// ErrConfigInvalidLedger indicates an invalid ledger configuration value.
	ErrConfigInvalidLedger = errors.New("invalid ledger configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRunInterrupted indicates the run was stopped by a signal before draining.
	ErrRunInterrupted = errors.New("run interrupted")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}

// IsFatalRemote reports whether err must halt a batch run.
func IsFatalRemote(err error) bool {
	return errors.Is(err, ErrAuthRejected) || errors.Is(err, ErrAccountLimit)
}
