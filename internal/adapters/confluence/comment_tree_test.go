package confluence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragment_SimpleParagraph(t *testing.T) {
	root, err := parseFragment(`<p>hello <b>world</b></p>`)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)

	p := root.Children[0]
	assert.Equal(t, "p", p.Tag)
	assert.Equal(t, "hello ", p.Text)
	require.Len(t, p.Children, 1)
	assert.Equal(t, "b", p.Children[0].Tag)
}

func TestParseFragment_UnboundNamespacePrefixPreserved(t *testing.T) {
	root, err := parseFragment(`<p>hello <ac:inline-comment-marker ac:ref="abc">hi</ac:inline-comment-marker> world</p>`)
	require.NoError(t, err)

	p := root.Children[0]
	require.Len(t, p.Children, 1)
	marker := p.Children[0]

	assert.Equal(t, "ac:inline-comment-marker", marker.Tag)
	ref, ok := marker.markerRef()
	assert.True(t, ok)
	assert.Equal(t, "abc", ref)
	assert.True(t, marker.isCommentMarker())
	assert.Equal(t, "hi", marker.Text)
	assert.Equal(t, " world", marker.Tail)
}

func TestTextSignature_IncludesTailInnerSignatureDoesNot(t *testing.T) {
	root, err := parseFragment(`<p>hello <ac:inline-comment-marker ac:ref="abc">hi</ac:inline-comment-marker> world</p>`)
	require.NoError(t, err)

	marker := root.Children[0].Children[0]
	assert.Equal(t, "hi world", marker.textSignature())
	assert.Equal(t, "hi", marker.innerSignature())
}

func TestQualifiedName_NoNamespace(t *testing.T) {
	root, err := parseFragment(`<div class="x">y</div>`)
	require.NoError(t, err)
	assert.Equal(t, "div", root.Children[0].Tag)
}
