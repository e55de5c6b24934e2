package confluence

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/rwdocs/docstage/internal/core/entities"
)

// acNamespace is the Confluence storage-format macro namespace. Fragments
// rarely declare it inline, so the decoder runs in non-strict mode and the
// raw prefix ("ac", "ri", ...) is kept as-is rather than resolved.
const acNamespace = "http://www.atlassian.com/schema/confluence/4/ac/"

// treeNode is one element of a parsed XHTML fragment. Tag carries any
// namespace prefix literally (e.g. "ac:inline-comment-marker"), matching
// how Confluence storage format is actually written.
type treeNode struct {
	Tag      string
	Text     string
	Tail     string
	Attrs    map[string]string
	Children []*treeNode
}

// textSignature concatenates this node's trimmed text, its children's
// signatures, and its trimmed tail, space-joined. Used both for matching
// (§4.7 step 4) and for locating a marker's original text run.
func (n *treeNode) textSignature() string {
	var parts []string
	if t := strings.TrimSpace(n.Text); t != "" {
		parts = append(parts, t)
	}
	for _, c := range n.Children {
		if sig := c.textSignature(); sig != "" {
			parts = append(parts, sig)
		}
	}
	if t := strings.TrimSpace(n.Tail); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

// innerSignature is like textSignature but excludes this node's own tail:
// the tail belongs to the parent's flow after this element, not to the
// element's own reinserted content.
func (n *treeNode) innerSignature() string {
	var parts []string
	if t := strings.TrimSpace(n.Text); t != "" {
		parts = append(parts, t)
	}
	for _, c := range n.Children {
		if sig := c.textSignature(); sig != "" {
			parts = append(parts, sig)
		}
	}
	return strings.Join(parts, " ")
}

// isCommentMarker reports whether tag names an inline-comment-marker
// element, tolerating a resolved namespace, an "ac:" prefix, or a bare tag.
func (n *treeNode) isCommentMarker() bool {
	return n.Tag == "{"+acNamespace+"}inline-comment-marker" ||
		n.Tag == "ac:inline-comment-marker" ||
		strings.Contains(n.Tag, "inline-comment-marker")
}

// markerRef returns the ac:ref attribute identifying a comment marker.
func (n *treeNode) markerRef() (string, bool) {
	if v, ok := n.Attrs["{"+acNamespace+"}ref"]; ok {
		return v, true
	}
	v, ok := n.Attrs["ac:ref"]
	return v, ok
}

// parseFragment parses an XHTML fragment (possibly several sibling
// elements/text runs) into a synthetic root treeNode whose children are the
// fragment's top-level nodes.
func parseFragment(fragment string) (*treeNode, error) {
	wrapped := "<root>" + fragment + "</root>"
	dec := xml.NewDecoder(strings.NewReader(wrapped))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	root := &treeNode{Tag: "root"}
	stack := []*treeNode{root}
	lastChild := []*treeNode{nil}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, entities.NewError(entities.KindCommentPreservation, "parse XHTML fragment", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &treeNode{Tag: qualifiedName(t.Name), Attrs: make(map[string]string)}
			for _, attr := range t.Attr {
				node.Attrs[qualifiedName(attr.Name)] = attr.Value
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, node)
			stack = append(stack, node)
			lastChild = append(lastChild, nil)

		case xml.EndElement:
			finished := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			lastChild = lastChild[:len(lastChild)-1]
			lastChild[len(lastChild)-1] = finished

		case xml.CharData:
			top := stack[len(stack)-1]
			if lc := lastChild[len(lastChild)-1]; lc != nil {
				lc.Tail += string(t)
			} else {
				top.Text += string(t)
			}
		}
	}

	return root, nil
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// markerOffset returns the character offset of marker within container's
// text signature, by summing the signature lengths of everything that
// precedes it among container's own text and children.
func markerOffset(container, marker *treeNode) int {
	offset := 0
	if t := strings.TrimSpace(container.Text); t != "" {
		offset += len(t) + 1
	}
	for _, c := range container.Children {
		if c == marker {
			return offset
		}
		if sig := c.textSignature(); sig != "" {
			offset += len(sig) + 1
		}
	}
	return offset
}

func (n *treeNode) String() string {
	return fmt.Sprintf("<%s>", n.Tag)
}
