package cmd

import (
	"fmt"

	"github.com/rohmanhakim/wiki-crawler/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.Describe())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
