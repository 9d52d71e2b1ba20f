package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lspl/gradereco/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "gradereco", version.String())
	},
}
