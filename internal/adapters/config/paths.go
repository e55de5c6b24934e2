package config

import (
	"os"
	"path/filepath"
)

const appName = "docstage"

// XDGPathResolver resolves the global config file location per the XDG Base
// Directory Specification, the same shape as the teacher's resolver.
type XDGPathResolver struct {
	configHome string
}

// NewXDGPathResolver builds a resolver honoring DOCSTAGE_CONFIG_HOME, then
// XDG_CONFIG_HOME, then the ~/.config fallback.
func NewXDGPathResolver() *XDGPathResolver {
	home, _ := os.UserHomeDir()
	return &XDGPathResolver{
		configHome: resolveDir(
			os.Getenv("DOCSTAGE_CONFIG_HOME"),
			envWithSuffix("XDG_CONFIG_HOME", appName),
			filepath.Join(home, ".config", appName),
		),
	}
}

func (r *XDGPathResolver) ConfigDir() string  { return r.configHome }
func (r *XDGPathResolver) ConfigFile() string { return filepath.Join(r.configHome, "config.toml") }

func resolveDir(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func envWithSuffix(envVar, suffix string) string {
	val := os.Getenv(envVar)
	if val == "" {
		return ""
	}
	return filepath.Join(val, suffix)
}
