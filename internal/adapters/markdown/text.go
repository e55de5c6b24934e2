package markdown

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
)

// extractText collects the plain inline text of n's subtree, collapsing
// whitespace — used for heading titles and alt text, where markup should
// not leak through.
func extractText(n ast.Node, source []byte) string {
	var buf strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		switch tn := node.(type) {
		case *ast.Text:
			buf.Write(tn.Segment.Value(source))
			if tn.SoftLineBreak() || tn.HardLineBreak() {
				buf.WriteByte(' ')
			}
			return
		case *ast.String:
			buf.Write(tn.Value)
			return
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// slugify lowercases text, collapses non-alphanumeric runs to a single "-",
// and trims leading/trailing dashes (§4.3 heading anchors).
func slugify(text string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func escapeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeAttr(s string) string {
	s = escapeHTML(s)
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
