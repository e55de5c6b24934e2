package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsApplyWithNoFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()
	cfg, err := l.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, "./docs", cfg.Docs.SourceDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.6, cfg.Confluence.CommentMatchThreshold)
	assert.Equal(t, "_meta.yaml", cfg.Metadata.SidecarName)
}

func TestLoader_ProjectFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docstage.toml"), []byte(`
[docs]
source_dir = "./content"

[server]
port = 9090
`), 0o644))

	l := NewLoader()
	cfg, err := l.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, "./content", cfg.Docs.SourceDir)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docstage.toml"), []byte(`
[server]
port = 9090
`), 0o644))
	t.Setenv("DOCSTAGE_SERVER_PORT", "7070")

	l := NewLoader()
	cfg, err := l.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoader_ExplicitConfigFileErrorsWhenMissing(t *testing.T) {
	l := NewLoader()
	_, err := l.Load(filepath.Join(t.TempDir(), "nope.toml"), t.TempDir())
	require.Error(t, err)
}

func TestLoader_ExpandsEnvVarsInValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSTAGE_TEST_KROKI", "https://kroki.internal")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docstage.toml"), []byte(`
[diagrams]
kroki_url = "${DOCSTAGE_TEST_KROKI}"
`), 0o644))

	l := NewLoader()
	cfg, err := l.Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "https://kroki.internal", cfg.Diagrams.KrokiURL)
}
