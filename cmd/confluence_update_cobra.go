package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rwdocs/docstage/internal/ui"
)

var confluenceUpdateCmd = &cobra.Command{
	Use:   "update <page-id> <markdown-file>",
	Short: "Render a markdown file and update a Confluence page in place",
	Long: `Renders the given markdown file to Confluence storage format, uploads any
diagrams as attachments, preserves existing inline comments, and updates
the page at its next version. Use --dry-run to preview the result without
writing anything.`,
	Args: cobra.ExactArgs(2),
	Example: `  docstage confluence update 123456 docs/overview.md
  docstage confluence update 123456 docs/overview.md --dry-run
  docstage confluence update 123456 docs/overview.md --message "weekly sync"`,
	RunE: runConfluenceUpdateCmd,
}

func init() {
	confluenceCmd.AddCommand(confluenceUpdateCmd)
	confluenceUpdateCmd.Flags().Bool("dry-run", false, "preview the update without writing to Confluence")
	confluenceUpdateCmd.Flags().String("message", "", "version comment to attach to the update")
}

func runConfluenceUpdateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loader.Load(cfgFile, projectRoot)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	message, _ := cmd.Flags().GetString("message")

	return runConfluenceUpdate(cmd.Context(), cfg, args[0], args[1], message, dryRun, ui.NewOutput())
}
