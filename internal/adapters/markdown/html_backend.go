package markdown

import (
	"fmt"
	"path"
	"strings"

	"github.com/rwdocs/docstage/internal/core/usecases"
)

// HTMLBackend renders the generic HTML dialect served by the documentation
// site (§4.3 backend table).
type HTMLBackend struct {
	// RelativeLinks, when true, emits site-relative hrefs ("guide/intro")
	// instead of root-relative ones ("/guide/intro").
	RelativeLinks bool
	// TrailingSlash appends a trailing "/" to transformed directory links.
	TrailingSlash bool
	// AssetsPath is prefixed to local image sources that are not already
	// absolute URLs (e.g. "/assets").
	AssetsPath string
}

var _ usecases.RenderBackend = (*HTMLBackend)(nil)

func (b *HTMLBackend) TitleAsMetadata() bool { return false }

func (b *HTMLBackend) CodeBlock(lang, content string, out *strings.Builder) {
	if lang != "" {
		fmt.Fprintf(out, `<pre><code class="language-%s">%s</code></pre>`, escapeAttr(lang), escapeHTML(content))
		return
	}
	fmt.Fprintf(out, "<pre><code>%s</code></pre>", escapeHTML(content))
}

func (b *HTMLBackend) BlockquoteStart(out *strings.Builder) { out.WriteString("<blockquote>\n") }
func (b *HTMLBackend) BlockquoteEnd(out *strings.Builder)   { out.WriteString("</blockquote>\n") }

func (b *HTMLBackend) Image(src, alt, title string, out *strings.Builder) {
	resolved := src
	if !isExternal(src) && !strings.HasPrefix(src, "/") && b.AssetsPath != "" {
		resolved = path.Join(b.AssetsPath, src)
	}
	fmt.Fprintf(out, `<img src="%s" alt="%s"`, escapeAttr(resolved), escapeAttr(alt))
	if title != "" {
		fmt.Fprintf(out, ` title="%s"`, escapeAttr(title))
	}
	out.WriteString(" />")
}

// TransformLink rewrites a relative "*.md" link into the target's url-path;
// external links and anchors pass through unchanged.
func (b *HTMLBackend) TransformLink(url, base string) string {
	if isExternal(url) || strings.HasPrefix(url, "#") {
		return url
	}
	hashIdx := strings.IndexByte(url, '#')
	fragment := ""
	target := url
	if hashIdx >= 0 {
		target, fragment = url[:hashIdx], url[hashIdx:]
	}
	if !strings.HasSuffix(strings.ToLower(target), ".md") {
		return url
	}
	target = strings.TrimSuffix(target, target[len(target)-3:]) // strip ".md" preserving case-insensitivity
	if !path.IsAbs(target) && base != "" {
		target = path.Join(path.Dir(base), target)
	}
	target = strings.TrimSuffix(target, "/index")
	if target == "" || target == "." {
		target = "/"
	} else if !path.IsAbs(target) {
		target = "/" + target
	}
	if b.TrailingSlash && !strings.HasSuffix(target, "/") {
		target += "/"
	}
	if b.RelativeLinks {
		target = strings.TrimPrefix(target, "/")
	}
	return target + fragment
}

func (b *HTMLBackend) HardBreak(out *strings.Builder)      { out.WriteString("<br />\n") }
func (b *HTMLBackend) HorizontalRule(out *strings.Builder) { out.WriteString("<hr />\n") }

func (b *HTMLBackend) TaskListMarker(checked bool, out *strings.Builder) {
	if checked {
		out.WriteString(`<input type="checkbox" checked disabled /> `)
		return
	}
	out.WriteString(`<input type="checkbox" disabled /> `)
}

func isExternal(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "//")
}
