package diagrams

import "fmt"

// Dialect produces the backend-appropriate embed tag for a rendered
// diagram (§4.4 Embedding) — a separate, narrower concern than the
// RenderBackend port, since only the diagram processor needs it.
type Dialect interface {
	EmbedPNG(hash string, displayWidth int) string
	EmbedSVG(hash, svg string, displayWidth int) string
	EmbedError(message string) string
}

// ConfluenceDialect embeds diagrams as Confluence attachment references.
type ConfluenceDialect struct{}

func (ConfluenceDialect) EmbedPNG(hash string, displayWidth int) string {
	return fmt.Sprintf(`<ac:image ac:width="%d"><ri:attachment ri:filename="%s.png"/></ac:image>`, displayWidth, hash)
}

// EmbedSVG: Confluence storage format has no inline-SVG macro, so SVG
// diagrams are rendered to PNG upstream before reaching this dialect; if
// one slips through, fall back to a textual note rather than dropping it
// silently.
func (ConfluenceDialect) EmbedSVG(hash, svg string, displayWidth int) string {
	return fmt.Sprintf(`<ac:structured-macro ac:name="info" ac:schema-version="1"><ac:rich-text-body><p>SVG diagram %s could not be embedded in Confluence storage format.</p></ac:rich-text-body></ac:structured-macro>`, hash)
}

func (ConfluenceDialect) EmbedError(message string) string {
	return fmt.Sprintf(`<ac:structured-macro ac:name="warning" ac:schema-version="1"><ac:rich-text-body><p>%s</p></ac:rich-text-body></ac:structured-macro>`, message)
}

// HTMLDialect embeds diagrams as <img> or inline <svg>, served from the
// site's assets directory.
type HTMLDialect struct {
	AssetsPath string // e.g. "/assets/diagrams"
}

func (d HTMLDialect) EmbedPNG(hash string, displayWidth int) string {
	return fmt.Sprintf(`<img src="%s/%s.png" width="%d" alt="diagram" />`, d.AssetsPath, hash, displayWidth)
}

func (d HTMLDialect) EmbedSVG(hash, svg string, displayWidth int) string {
	return svg
}

func (d HTMLDialect) EmbedError(message string) string {
	return fmt.Sprintf(`<div class="diagram-error">%s</div>`, message)
}
