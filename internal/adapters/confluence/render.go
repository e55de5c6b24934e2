package confluence

import (
	"github.com/rwdocs/docstage/internal/adapters/diagrams"
	"github.com/rwdocs/docstage/internal/adapters/markdown"
	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// newRenderer builds an uncached, one-off Confluence-dialect markdown
// renderer for ad-hoc CLI-supplied text: diagram output lands in outputDir,
// a fresh temp directory per call, rather than the content-addressed cache
// used for site builds (§4.8 step 1).
func newRenderer(diagramClient usecases.DiagramRenderClient, diagrams_ entities.DiagramsConfig, outputDir string) *markdown.Renderer {
	backend := markdown.ConfluenceBackend{}
	processor := diagrams.New(diagramClient, nil, diagrams.ConfluenceDialect{}, diagrams.Options{
		IncludeDirs: diagrams_.IncludeDirs,
		ConfigFile:  diagrams_.ConfigFile,
		DPI:         diagrams_.DPI,
		Format:      entities.FormatPNG,
		OutputDir:   outputDir,
	})
	return markdown.NewRenderer(backend, processor)
}
