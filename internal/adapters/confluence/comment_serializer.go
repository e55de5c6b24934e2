package confluence

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// plainTextBodyPattern finds ac:plain-text-body elements so their escaped
// content can be restored to a CDATA section after serialization.
var plainTextBodyPattern = regexp.MustCompile(`(?s)(<(?:ac:|ns\d+:)?plain-text-body[^>]*>)(.*?)(</(?:ac:|ns\d+:)?plain-text-body>)`)

// serializeFragment renders root's children (root itself is the synthetic
// wrapper introduced by parseFragment) back to Confluence storage XHTML,
// restoring CDATA sections for plain-text-body elements.
func serializeFragment(root *treeNode) string {
	var out strings.Builder
	for _, child := range root.Children {
		serializeNode(child, &out)
	}
	return restoreCDATASections(out.String())
}

func serializeNode(n *treeNode, out *strings.Builder) {
	out.WriteByte('<')
	out.WriteString(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, ` %s="%s"`, k, escapeXML(n.Attrs[k], true))
	}

	if len(n.Children) == 0 && n.Text == "" {
		out.WriteString(" />")
	} else {
		out.WriteByte('>')
		if n.Text != "" {
			out.WriteString(escapeXML(n.Text, false))
		}
		for _, c := range n.Children {
			serializeNode(c, out)
		}
		fmt.Fprintf(out, "</%s>", n.Tag)
	}

	if n.Tail != "" {
		out.WriteString(escapeXML(n.Tail, false))
	}
}

func escapeXML(text string, attr bool) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			if attr {
				b.WriteString("&quot;")
			} else {
				b.WriteRune(r)
			}
		case '\'':
			if attr {
				b.WriteString("&apos;")
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// restoreCDATASections un-escapes plain-text-body content and wraps it in
// CDATA, mirroring the escape applied uniformly by serializeNode.
func restoreCDATASections(html string) string {
	return plainTextBodyPattern.ReplaceAllStringFunc(html, func(match string) string {
		groups := plainTextBodyPattern.FindStringSubmatch(match)
		content := groups[2]
		content = strings.NewReplacer(
			"&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&apos;", "'",
		).Replace(content)
		return groups[1] + "<![CDATA[" + content + "]]>" + groups[3]
	})
}
