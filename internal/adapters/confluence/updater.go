package confluence

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// UpdateConfig configures a PageUpdater (§4.8).
type UpdateConfig struct {
	Diagrams     entities.DiagramsConfig
	ExtractTitle bool
	Threshold    float64 // Jaccard threshold for comment matching; 0 picks the default
}

// DryRunResult previews what Update would do, without writing anything.
type DryRunResult struct {
	HTML              string
	Title             string
	CurrentTitle      string
	CurrentVersion    int
	UnmatchedComments []UnmatchedComment
	AttachmentCount   int
	AttachmentNames   []string
	Warnings          []string
}

// UpdateResult is the outcome of a completed page update.
type UpdateResult struct {
	Page                *Page
	URL                 string
	CommentCount        int
	UnmatchedComments   []UnmatchedComment
	AttachmentsUploaded int
	Warnings            []string
}

// PageUpdater encapsulates the five-step workflow for updating a Confluence
// page from Markdown (§4.8):
//  1. render Markdown to Confluence storage format, diagrams landing in a
//     temp directory
//  2. collect diagram attachments from that directory
//  3. fetch the current page body and version
//  4. preserve inline comments from the current body into the new body
//  5. upload attachments, then PUT the page at version+1
type PageUpdater struct {
	client        *Client
	diagramClient usecases.DiagramRenderClient
	config        UpdateConfig
}

// NewPageUpdater builds a PageUpdater.
func NewPageUpdater(client *Client, diagramClient usecases.DiagramRenderClient, config UpdateConfig) *PageUpdater {
	if config.Threshold <= 0 {
		config.Threshold = 0.6
	}
	return &PageUpdater{client: client, diagramClient: diagramClient, config: config}
}

// Update runs the full five-step workflow and publishes the new content.
func (u *PageUpdater) Update(ctx context.Context, pageID, markdownText, message string) (*UpdateResult, error) {
	if u.config.Diagrams.KrokiURL == "" {
		return nil, entities.NewError(entities.KindConfig, "kroki_url required (set diagrams.kroki_url in config)", nil)
	}

	tmpDir, err := os.MkdirTemp("", "docstage-confluence-update-*")
	if err != nil {
		return nil, entities.NewError(entities.KindIO, "create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	renderer := newRenderer(u.diagramClient, u.config.Diagrams, tmpDir)
	renderResult, err := renderer.Render(ctx, []byte(markdownText), "")
	if err != nil {
		return nil, err
	}

	attachments, err := collectAttachments(tmpDir)
	if err != nil {
		return nil, err
	}

	currentPage, err := u.client.GetPage(ctx, pageID, []string{"body.storage", "version"})
	if err != nil {
		return nil, err
	}

	preserveResult, err := PreserveComments(extractBodyHTML(currentPage), renderResult.HTML, u.config.Threshold)
	if err != nil {
		return nil, err
	}

	title := currentPage.Title
	if u.config.ExtractTitle && renderResult.Title != "" {
		title = renderResult.Title
	}

	for _, a := range attachments {
		if _, err := u.client.UploadAttachment(ctx, pageID, a.filename, a.data, "image/png", ""); err != nil {
			return nil, err
		}
	}

	updatedPage, err := u.client.UpdatePage(ctx, pageID, title, preserveResult.HTML, currentPage.Version.Number, message)
	if err != nil {
		return nil, err
	}

	url, err := u.client.GetPageURL(ctx, pageID)
	if err != nil {
		return nil, err
	}
	comments, err := u.client.GetComments(ctx, pageID)
	if err != nil {
		return nil, err
	}

	return &UpdateResult{
		Page:                updatedPage,
		URL:                 url,
		CommentCount:        comments.Size,
		UnmatchedComments:   preserveResult.UnmatchedComments,
		AttachmentsUploaded: len(attachments),
		Warnings:            renderResult.Warnings,
	}, nil
}

// DryRun runs steps 1-4 only; no attachment upload and no page write.
func (u *PageUpdater) DryRun(ctx context.Context, pageID, markdownText string) (*DryRunResult, error) {
	if u.config.Diagrams.KrokiURL == "" {
		return nil, entities.NewError(entities.KindConfig, "kroki_url required (set diagrams.kroki_url in config)", nil)
	}

	tmpDir, err := os.MkdirTemp("", "docstage-confluence-dryrun-*")
	if err != nil {
		return nil, entities.NewError(entities.KindIO, "create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	renderer := newRenderer(u.diagramClient, u.config.Diagrams, tmpDir)
	renderResult, err := renderer.Render(ctx, []byte(markdownText), "")
	if err != nil {
		return nil, err
	}

	names, err := collectAttachmentNames(tmpDir)
	if err != nil {
		return nil, err
	}

	currentPage, err := u.client.GetPage(ctx, pageID, []string{"body.storage", "version"})
	if err != nil {
		return nil, err
	}

	preserveResult, err := PreserveComments(extractBodyHTML(currentPage), renderResult.HTML, u.config.Threshold)
	if err != nil {
		return nil, err
	}

	return &DryRunResult{
		HTML:              preserveResult.HTML,
		Title:             renderResult.Title,
		CurrentTitle:      currentPage.Title,
		CurrentVersion:    currentPage.Version.Number,
		UnmatchedComments: preserveResult.UnmatchedComments,
		AttachmentCount:   len(names),
		AttachmentNames:   names,
		Warnings:          renderResult.Warnings,
	}, nil
}

type pendingAttachment struct {
	filename string
	data     []byte
}

// collectAttachments reads every .png file in dir, sorted by filename for
// deterministic upload order (§9 open question: SVG renders bypass
// attachment upload entirely, since Confluence storage format has no
// inline-SVG embed).
func collectAttachments(dir string) ([]pendingAttachment, error) {
	names, err := pngFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]pendingAttachment, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, entities.NewError(entities.KindIO, "read diagram attachment "+name, err)
		}
		out = append(out, pendingAttachment{filename: name, data: data})
	}
	return out, nil
}

func collectAttachmentNames(dir string) ([]string, error) {
	return pngFiles(dir)
}

func pngFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, entities.NewError(entities.KindIO, "read diagram output directory", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func extractBodyHTML(page *Page) string {
	if page.Body == nil || page.Body.Storage == nil {
		return ""
	}
	return page.Body.Storage.Value
}
