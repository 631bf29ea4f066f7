package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/errors"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution, including runs that
	// recorded recoverable task errors.
	ExitSuccess = 0
	// ExitError indicates a general error.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
	// ExitHaltedAuth indicates a run halted because the credential was rejected.
	ExitHaltedAuth = 3
	// ExitHaltedLimit indicates a run halted on the account resource limit.
	ExitHaltedLimit = 4
)

// Output format constants.
const (
	// OutputText is the default human-readable output format.
	OutputText = "text"
	// OutputJSON is the machine-readable JSON output format.
	OutputJSON = "json"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// ConfigFile is an explicit config file layered over the global and
	// project files.
	ConfigFile string
}

// AddGlobalFlags adds global flags to a command.
// These flags are available to all subcommands via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "config file (default: .goalsync/config.yaml)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper so GOALSYNC_OUTPUT,
// GOALSYNC_VERBOSE and GOALSYNC_QUIET can stand in for them.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	// Root().PersistentFlags() finds root flags even from a subcommand's PersistentPreRunE.
	rootFlags := cmd.Root().PersistentFlags()

	for _, name := range []string{"output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	return nil
}

// applyEnvOverrides copies environment-provided values into flags the user
// did not set explicitly.
func applyEnvOverrides(v *viper.Viper, cmd *cobra.Command, flags *GlobalFlags) {
	rootFlags := cmd.Root().PersistentFlags()
	if !rootFlags.Changed("output") {
		flags.Output = v.GetString("output")
	}
	if !rootFlags.Changed("verbose") && !rootFlags.Changed("quiet") {
		flags.Verbose = v.GetBool("verbose")
		flags.Quiet = !flags.Verbose && v.GetBool("quiet")
	}
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	for _, valid := range ValidOutputFormats() {
		if format == valid {
			return true
		}
	}
	return false
}

// ExitCodeForError returns the appropriate exit code for the given error.
//
// Halts get their own codes so wrappers can tell "refresh the token" apart
// from "raise the account limit". Bad flags, unreadable task files and
// invalid configuration exit with ExitInvalidInput.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case stderrors.Is(err, errors.ErrAuthRejected), stderrors.Is(err, errors.ErrMissingToken):
		return ExitHaltedAuth
	case stderrors.Is(err, errors.ErrAccountLimit):
		return ExitHaltedLimit
	case errors.IsExitCode2Error(err):
		return ExitInvalidInput
	}

	for _, sentinel := range invalidInputErrors() {
		if stderrors.Is(err, sentinel) {
			return ExitInvalidInput
		}
	}

	// Cobra flag parsing errors (mutually exclusive flags, unknown flags, etc.)
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}

	return ExitError
}

// invalidInputErrors lists the sentinels that mean the operator's input,
// not the environment, is wrong.
func invalidInputErrors() []error {
	return []error{
		errors.ErrInvalidOutputFormat,
		errors.ErrTaskSourceInvalid,
		errors.ErrDuplicateTask,
		errors.ErrUnsupportedFormat,
		errors.ErrConfigInvalidAPI,
		errors.ErrConfigInvalidRun,
		errors.ErrConfigInvalidResolver,
		errors.ErrConfigInvalidPayload,
		errors.ErrConfigInvalidLedger,
	}
}

// isInvalidInputError checks if an error message indicates invalid user input.
// This catches Cobra's built-in flag validation errors.
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts 1 arg",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
