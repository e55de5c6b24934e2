package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rwdocs/docstage/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve documentation locally",
	Long:    "Render the configured source tree and serve it over HTTP with live reload.",
	GroupID: "serving",
	Example: `  docstage serve
  docstage serve --port 3000
  docstage serve --source ./docs --host 0.0.0.0`,
	RunE: runServeCmd,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("source", "", "documentation source directory (overrides config)")
	serveCmd.Flags().String("host", "", "server bind address (overrides config)")
	serveCmd.Flags().Int("port", 0, "server port (overrides config)")
	serveCmd.Flags().Bool("no-live-reload", false, "disable the live-reload WebSocket")
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loader.Load(cfgFile, projectRoot)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("source"); v != "" {
		cfg.Docs.SourceDir = v
	}
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.Port = v
	}
	if noReload, _ := cmd.Flags().GetBool("no-live-reload"); noReload {
		cfg.Server.LiveReloadEnabled = false
	}

	return runServe(cfg, ui.NewOutput())
}
