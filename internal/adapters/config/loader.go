// Package config loads docstage.toml (plus the XDG global
// config, environment, and CLI flag layers) into entities.Config, the way
// the teacher's cmd/root.go initConfig does with spf13/viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rwdocs/docstage/internal/core/entities"
)

const envPrefix = "DOCSTAGE"

// Loader layers file, environment, and CLI-flag configuration on top of
// entities.DefaultConfig.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader bound to its own *viper.Viper instance (not the
// package-level singleton), so multiple Loaders never interfere in tests.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load resolves the full hierarchy: CLI flags (already bound via BindFlags)
// > DOCSTAGE_* env vars > project config file > global XDG config file >
// built-in defaults, decodes the result into entities.Config, then applies
// ${VAR}/${VAR:-default} expansion to its string fields.
func (l *Loader) Load(cfgFile, projectRoot string) (entities.Config, error) {
	defaults := entities.DefaultConfig()
	l.v.SetConfigType("toml")
	setDefaults(l.v, defaults)

	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
		if err := l.v.ReadInConfig(); err != nil {
			return entities.Config{}, entities.NewError(entities.KindConfig, "read config file "+cfgFile, err)
		}
	} else {
		xdg := NewXDGPathResolver()
		l.v.SetConfigFile(xdg.ConfigFile())
		_ = l.v.ReadInConfig() // absent global config is not an error
	}

	projectConfigPath := filepath.Join(projectRoot, "docstage.toml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		l.v.SetConfigFile(projectConfigPath)
		if err := l.v.MergeInConfig(); err != nil {
			return entities.Config{}, entities.NewError(entities.KindConfig, "merge project config "+projectConfigPath, err)
		}
	}

	l.v.SetEnvPrefix(envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	var cfg entities.Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return entities.Config{}, entities.NewError(entities.KindConfig, "decode configuration", err)
	}

	expanded, err := expandConfig(cfg)
	if err != nil {
		return entities.Config{}, err
	}
	return expanded, nil
}

// BindFlags wires the given command's flags as the highest-priority layer,
// mirroring the teacher's viper.BindPFlag calls in build_cobra.go.
func (l *Loader) BindFlags(cmd *cobra.Command, flagToKey map[string]string) error {
	for flag, key := range flagToKey {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s to %s: %w", flag, key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d entities.Config) {
	v.SetDefault("docs.source_dir", d.Docs.SourceDir)
	v.SetDefault("docs.project_dir", d.Docs.ProjectDir)
	v.SetDefault("docs.cache_enabled", d.Docs.CacheEnabled)
	v.SetDefault("diagrams.dpi", d.Diagrams.DPI)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.live_reload_enabled", d.Server.LiveReloadEnabled)
	v.SetDefault("confluence.comment_match_threshold", d.Confluence.CommentMatchThreshold)
	v.SetDefault("metadata.sidecar_name", d.Metadata.SidecarName)
}
