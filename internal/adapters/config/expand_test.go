package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwdocs/docstage/internal/core/entities"
)

func TestExpandEnv_SimpleVar(t *testing.T) {
	t.Setenv("TEST_VAR_SIMPLE", "hello")
	result, err := expandEnv("${TEST_VAR_SIMPLE}", "test.field")
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestExpandEnv_DefaultIgnoredWhenSet(t *testing.T) {
	t.Setenv("TEST_VAR_DEFAULT", "hello")
	result, err := expandEnv("${TEST_VAR_DEFAULT:-world}", "test.field")
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestExpandEnv_DefaultUsedWhenUnset(t *testing.T) {
	result, err := expandEnv("${UNSET_VAR_TEST:-default}", "test.field")
	require.NoError(t, err)
	assert.Equal(t, "default", result)
}

func TestExpandEnv_MissingVarErrors(t *testing.T) {
	_, err := expandEnv("${MISSING_VAR_TEST}", "test.field")
	require.Error(t, err)
	assert.True(t, entities.IsKind(err, entities.KindConfig))
	assert.Contains(t, err.Error(), "MISSING_VAR_TEST")
}

func TestExpandEnv_LiteralUnchanged(t *testing.T) {
	result, err := expandEnv("literal string", "test.field")
	require.NoError(t, err)
	assert.Equal(t, "literal string", result)
}

func TestExpandEnv_EmbeddedVar(t *testing.T) {
	t.Setenv("HOST_TEST", "example.com")
	result, err := expandEnv("https://${HOST_TEST}/api", "test.url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api", result)
}

func TestExpandEnv_MultipleVars(t *testing.T) {
	t.Setenv("USER_TEST", "admin")
	t.Setenv("PASS_TEST", "secret")
	result, err := expandEnv("${USER_TEST}:${PASS_TEST}", "test.creds")
	require.NoError(t, err)
	assert.Equal(t, "admin:secret", result)
}

func TestExpandEnv_BareDollarNotExpanded(t *testing.T) {
	result, err := expandEnv("$VAR", "test.field")
	require.NoError(t, err)
	assert.Equal(t, "$VAR", result)
}

func TestExpandEnv_URLWithDollarNotExpanded(t *testing.T) {
	result, err := expandEnv("https://example.com/$path", "test.url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/$path", result)
}

func TestExpandConfig_ExpandsNestedStringFields(t *testing.T) {
	t.Setenv("KROKI_URL_TEST", "https://kroki.example.com")
	cfg := entities.DefaultConfig()
	cfg.Diagrams.KrokiURL = "${KROKI_URL_TEST}"

	expanded, err := expandConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://kroki.example.com", expanded.Diagrams.KrokiURL)
}
