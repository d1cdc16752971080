package main

import (
	"fmt"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"
)

var version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the playersheet version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "playersheet", version.String())
	},
}
