package markdown

import (
	"fmt"
	"path"
	"strings"

	"github.com/rwdocs/docstage/internal/core/usecases"
)

// ConfluenceBackend renders Confluence's storage-format XHTML dialect
// (`ac:`/`ri:` namespaces), mirroring the original_source ConfluenceBackend.
type ConfluenceBackend struct{}

var _ usecases.RenderBackend = (*ConfluenceBackend)(nil)

func (ConfluenceBackend) TitleAsMetadata() bool { return true }

func (ConfluenceBackend) CodeBlock(lang, content string, out *strings.Builder) {
	out.WriteString(`<ac:structured-macro ac:name="code" ac:schema-version="1">`)
	if lang != "" {
		fmt.Fprintf(out, `<ac:parameter ac:name="language">%s</ac:parameter>`, escapeAttr(lang))
	}
	out.WriteString(`<ac:parameter ac:name="linenumbers">true</ac:parameter>`)
	fmt.Fprintf(out, `<ac:plain-text-body><![CDATA[%s]]></ac:plain-text-body>`, content)
	out.WriteString(`</ac:structured-macro>`)
}

func (ConfluenceBackend) BlockquoteStart(out *strings.Builder) {
	out.WriteString(`<ac:structured-macro ac:name="info" ac:schema-version="1"><ac:rich-text-body>`)
}

func (ConfluenceBackend) BlockquoteEnd(out *strings.Builder) {
	out.WriteString(`</ac:rich-text-body></ac:structured-macro>`)
}

// Image distinguishes an externally hosted image (ri:url) from a local
// attachment (ri:attachment ri:filename, referencing the basename only —
// Confluence attachments are flat per page).
func (ConfluenceBackend) Image(src, alt, title string, out *strings.Builder) {
	if isExternal(src) {
		fmt.Fprintf(out, `<ac:image><ri:url ri:value="%s" /></ac:image>`, escapeAttr(src))
		return
	}
	fmt.Fprintf(out, `<ac:image><ri:attachment ri:filename="%s" /></ac:image>`, escapeAttr(path.Base(src)))
}

// TransformLink leaves Confluence links unchanged: cross-page links are
// resolved by the publisher at upload time, not by the renderer.
func (ConfluenceBackend) TransformLink(url, base string) string { return url }

func (ConfluenceBackend) HardBreak(out *strings.Builder)      { out.WriteString("<br />") }
func (ConfluenceBackend) HorizontalRule(out *strings.Builder) { out.WriteString("<hr />") }

// TaskListMarker emits a plain-text marker: Confluence storage format does
// not render raw HTML form controls.
func (ConfluenceBackend) TaskListMarker(checked bool, out *strings.Builder) {
	if checked {
		out.WriteString("[x] ")
		return
	}
	out.WriteString("[ ] ")
}
