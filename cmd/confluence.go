package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rwdocs/docstage/internal/adapters/confluence"
	"github.com/rwdocs/docstage/internal/adapters/diagrams"
	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
	"github.com/rwdocs/docstage/internal/ui"
)

var confluenceCmd = &cobra.Command{
	Use:     "confluence",
	Short:   "Publish documentation to a Confluence page",
	GroupID: "publishing",
}

func init() {
	rootCmd.AddCommand(confluenceCmd)
}

func buildConfluenceClient(cfg entities.Config) (*confluence.Client, error) {
	if cfg.Confluence.BaseURL == "" {
		return nil, entities.NewError(entities.KindConfig, "confluence.base_url required", nil)
	}
	if cfg.Confluence.PrivateKeyPath == "" {
		return nil, entities.NewError(entities.KindConfig, "confluence.private_key_path required", nil)
	}
	keyPEM, err := confluence.ReadPrivateKey(cfg.Confluence.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	auth, err := confluence.NewOAuth1Auth(cfg.Confluence.ConsumerKey, keyPEM, cfg.Confluence.AccessToken, cfg.Confluence.AccessTokenSecret)
	if err != nil {
		return nil, err
	}
	return confluence.NewClient(cfg.Confluence.BaseURL, auth), nil
}

func buildDiagramRenderClient(cfg entities.Config) usecases.DiagramRenderClient {
	if cfg.Diagrams.KrokiURL == "" {
		return nil
	}
	return diagrams.NewHTTPRenderClient(cfg.Diagrams.KrokiURL)
}

func printUnmatchedComments(out *ui.Output, unmatched []confluence.UnmatchedComment) {
	if len(unmatched) == 0 {
		return
	}
	out.Warning(fmt.Sprintf("%d inline comment(s) could not be re-anchored:", len(unmatched)))
	items := make([]string, len(unmatched))
	for i, u := range unmatched {
		items[i] = fmt.Sprintf("%s: %q", u.RefID, u.Text)
	}
	out.List(items)
}

func runConfluenceUpdate(ctx context.Context, cfg entities.Config, pageID, markdownFile, message string, dryRun bool, out *ui.Output) error {
	client, err := buildConfluenceClient(cfg)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(markdownFile)
	if err != nil {
		return entities.NewError(entities.KindIO, "read "+markdownFile, err)
	}

	updater := confluence.NewPageUpdater(client, buildDiagramRenderClient(cfg), confluence.UpdateConfig{
		Diagrams:  cfg.Diagrams,
		Threshold: cfg.Confluence.CommentMatchThreshold,
	})

	if dryRun {
		result, err := updater.DryRun(ctx, pageID, string(source))
		if err != nil {
			return err
		}
		out.Title("Dry run: " + result.CurrentTitle)
		out.KeyValue("current version", fmt.Sprintf("%d", result.CurrentVersion))
		out.KeyValue("attachments", fmt.Sprintf("%d (%v)", result.AttachmentCount, result.AttachmentNames))
		if len(result.Warnings) > 0 {
			out.Warning("warnings:")
			out.List(result.Warnings)
		}
		printUnmatchedComments(out, result.UnmatchedComments)
		out.Success("dry run complete, no changes were written")
		return nil
	}

	result, err := updater.Update(ctx, pageID, string(source), message)
	if err != nil {
		return err
	}
	out.Success(fmt.Sprintf("updated %s to version %d", result.URL, result.Page.Version.Number))
	out.KeyValue("attachments uploaded", fmt.Sprintf("%d", result.AttachmentsUploaded))
	out.KeyValue("comments preserved", fmt.Sprintf("%d", result.CommentCount))
	if len(result.Warnings) > 0 {
		out.Warning("warnings:")
		out.List(result.Warnings)
	}
	printUnmatchedComments(out, result.UnmatchedComments)
	return nil
}
