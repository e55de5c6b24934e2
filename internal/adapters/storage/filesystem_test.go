package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_FindsLeafAndIndexDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home")
	writeFile(t, root, "guide/index.md", "# Guide")
	writeFile(t, root, "guide/intro.md", "# Intro")

	s := New(root, "")
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)

	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.URLPath
	}
	assert.Equal(t, []string{"", "guide", "guide/intro"}, paths)
}

func TestScan_SynthesizesDirectoryIndexWhenMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home")
	writeFile(t, root, "guide/intro.md", "# Intro")

	s := New(root, "")
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)

	var found bool
	for _, d := range docs {
		if d.URLPath == "guide" {
			found = true
			assert.True(t, d.Synthetic)
		}
	}
	assert.True(t, found, "expected a synthetic document for guide/")
}

func TestScan_IgnoresHiddenAndIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home")
	writeFile(t, root, ".git/config.md", "# Should not appear")
	writeFile(t, root, "node_modules/pkg/index.md", "# Should not appear")

	s := New(root, "")
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Len(t, docs, 1)
	assert.Equal(t, "", docs[0].URLPath)
}

func TestScan_SkipsSidecarFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home")
	writeFile(t, root, "_meta.yaml", "title: Home\n")

	s := New(root, "")
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMetadata_InheritsVarsAndOverridesTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_meta.yaml", "title: Root\nvars:\n  product: Docstage\n")
	writeFile(t, root, "guide/_meta.yaml", "title: Guide\ntype: section\nvars:\n  product: DocstageGuide\n  audience: eng\n")
	writeFile(t, root, "guide/index.md", "# Guide")

	s := New(root, "")
	meta, err := s.Metadata(context.Background(), "guide")
	require.NoError(t, err)

	assert.Equal(t, "Guide", meta.Title)
	assert.Equal(t, "section", meta.PageType)
	assert.Contains(t, string(meta.Vars["product"]), "DocstageGuide")
	assert.Contains(t, string(meta.Vars["audience"]), "eng")
}

func TestMetadata_LeafPageNeverInheritsTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_meta.yaml", "title: Root\n")
	writeFile(t, root, "guide/intro.md", "# Intro")

	s := New(root, "")
	meta, err := s.Metadata(context.Background(), "guide/intro")
	require.NoError(t, err)

	assert.Equal(t, "", meta.Title, "leaf pages never inherit title from an ancestor sidecar")
}

func TestReadAndExists(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home")

	s := New(root, "")
	ctx := context.Background()

	assert.True(t, s.Exists(ctx, "index.md"))
	assert.False(t, s.Exists(ctx, "missing.md"))

	data, err := s.Read(ctx, "index.md")
	require.NoError(t, err)
	assert.Equal(t, "# Home", string(data))

	_, err = s.Read(ctx, "missing.md")
	assert.Error(t, err)
}

func TestExtractFirstHeading(t *testing.T) {
	assert.Equal(t, "Title Here", extractFirstHeading([]byte("intro text\n# Title Here\nbody")))
	assert.Equal(t, "", extractFirstHeading([]byte("no heading at all")))
}
