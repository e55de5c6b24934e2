// Package cmd implements the docstage CLI commands using Cobra.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rwdocs/docstage/internal/adapters/config"
)

// Build-time version information, set via SetVersionInfo from main.go.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// Persistent flag values accessible to all subcommands.
var (
	cfgFile     string
	projectRoot string
	verbose     bool
)

var loader = config.NewLoader()

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docstage",
	Short: "Render, serve, and publish Markdown documentation",
	Long: `docstage renders a tree of Markdown sources into a documentation site:
an embedded HTTP server with live reload for local preview, or a Confluence
page updated in place with diagrams rendered through Kroki and inline
comments preserved across re-renders.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: auto-discover docstage.toml)")
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "project", "p", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "serving", Title: "Serving"},
		&cobra.Group{ID: "publishing", Title: "Publishing"},
	)
}

// Execute runs the root command. Called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets build-time version information from ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("docstage %s (commit: %s, built: %s)\n", version, commit, date))
}
