package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("docstage %s (commit: %s, built: %s)\n", appVersion, appCommit, appDate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
