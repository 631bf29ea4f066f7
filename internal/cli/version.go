package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionInfo is the JSON form of BuildInfo.
type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// AddVersionCommand adds the version command to the root command.
func AddVersionCommand(root *cobra.Command, flags *GlobalFlags, info BuildInfo) {
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the goalsync version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.Output == OutputJSON {
				out := newOutput(cmd.OutOrStdout(), flags.Output)
				return out.JSON(versionInfo{
					Version: orDefault(info.Version, "dev"),
					Commit:  orDefault(info.Commit, "none"),
					Date:    orDefault(info.Date, "unknown"),
				})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "goalsync "+formatVersion(info))
			return err
		},
	})
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
