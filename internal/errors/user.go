package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their operator-facing messages.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Remote platform
	// ===================
	{
		err: ErrAuthRejected,
		info: ErrorInfo{
			Message: "Perpetua rejected the API credential. The run was halted.",
			Action:  "Re-authenticate: export a fresh token in PERPETUA_TOKEN (or .env), then rerun to resume.",
		},
	},
	{
		err: ErrAccountLimit,
		info: ErrorInfo{
			Message: "The Perpetua account has reached its goal limit. The run was halted.",
			Action:  "Contact Perpetua to raise the account limit, then rerun to resume.",
		},
	},
	{
		err: ErrMissingToken,
		info: ErrorInfo{
			Message: "No Perpetua API token is configured.",
			Action:  "Set PERPETUA_TOKEN in the environment or in a .env file.",
		},
	},
	{
		err: ErrRemoteRequest,
		info: ErrorInfo{
			Message: "A request to Perpetua failed.",
			Action:  "Check 'goalsync status' for the failed tasks; they are retried on the next run.",
		},
	},

	// ===================
	// Local state
	// ===================
	{
		err: ErrLedgerWrite,
		info: ErrorInfo{
			Message: "The progress ledger could not be written. The run was stopped to keep state consistent.",
			Action:  "Check disk space and permissions on the state directory, then rerun.",
		},
	},
	{
		err: ErrLedgerCorrupted,
		info: ErrorInfo{
			Message: "The progress ledger is corrupted.",
			Action:  "Restore progress.json from a backup or move it aside to start a fresh run.",
		},
	},
	{
		err: ErrCacheWrite,
		info: ErrorInfo{
			Message: "The product cache could not be written. The run was stopped.",
			Action:  "Check disk space and permissions on the state directory, then rerun.",
		},
	},
	{
		err: ErrCacheCorrupted,
		info: ErrorInfo{
			Message: "The product cache is corrupted.",
			Action:  "Delete product_cache.json; products are looked up again on the next run.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Could not acquire lock. Another goalsync run may be using the state files.",
			Action:  "Wait for the other run to finish, or check for stuck processes.",
		},
	},

	// ===================
	// Input
	// ===================
	{
		err: ErrTaskSourceInvalid,
		info: ErrorInfo{
			Message: "The task file is invalid.",
			Action:  "Run 'goalsync tasks check <file>' to see the problem.",
		},
	},
	{
		err: ErrDuplicateTask,
		info: ErrorInfo{
			Message: "The task file contains two tasks with the same key.",
			Action:  "Give each task a unique id, or remove the duplicate row.",
		},
	},
	{
		err: ErrUnsupportedFormat,
		info: ErrorInfo{
			Message: "The task file format is not supported.",
			Action:  "Use a .json, .yaml, .yml or .toml file.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is not loaded.",
			Action:  "Ensure .goalsync/config.yaml exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalidAPI,
		info: ErrorInfo{
			Message: "Invalid api configuration.",
			Action:  "Check the 'api' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidRun,
		info: ErrorInfo{
			Message: "Invalid run configuration.",
			Action:  "Check the 'run' section in config.yaml or the run flags.",
		},
	},
	{
		err: ErrConfigInvalidResolver,
		info: ErrorInfo{
			Message: "Invalid resolver configuration.",
			Action:  "Check the 'resolver' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidPayload,
		info: ErrorInfo{
			Message: "Invalid payload configuration.",
			Action:  "Check the 'payload' and 'harvest' sections in config.yaml.",
		},
	},
	{
		err: ErrConfigInvalidLedger,
		info: ErrorInfo{
			Message: "Invalid ledger configuration.",
			Action:  "Set ledger.backend to 'json' or 'sqlite'.",
		},
	},
	{
		err: ErrValueOutOfRange,
		info: ErrorInfo{
			Message: "Value is outside the allowed range.",
			Action:  "Check the documentation for valid value ranges.",
		},
	},
	{
		err: ErrEmptyValue,
		info: ErrorInfo{
			Message: "A required value was not provided.",
			Action:  "Provide the required value and try again.",
		},
	},
	{
		err: ErrRunInterrupted,
		info: ErrorInfo{
			Message: "The run was interrupted. Progress up to the last finished task is saved.",
			Action:  "Rerun the same command to resume.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries O(1) direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the operator can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
