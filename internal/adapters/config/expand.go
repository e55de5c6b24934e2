package config

import (
	"os"
	"reflect"
	"regexp"

	"github.com/rwdocs/docstage/internal/core/entities"
)

// varPattern matches ${VAR} and ${VAR:-default}; bare $VAR is deliberately
// not matched, mirroring the original implementation's expand_env.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandEnv expands every ${VAR} / ${VAR:-default} reference in value.
// A ${VAR} with no default errors if VAR is unset; strings with no "${" are
// returned unchanged (and are idempotent under repeated expansion).
func expandEnv(value, field string) (string, error) {
	if !containsExpansion(value) {
		return value, nil
	}

	var firstErr error
	result := varPattern.ReplaceAllStringFunc(value, func(match string) string {
		if firstErr != nil {
			return match
		}
		groups := varPattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if hasDefault {
			return def
		}
		firstErr = entities.NewError(entities.KindConfig, "${"+name+"} not set (field "+field+")", nil)
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func containsExpansion(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '$' && s[i+1] == '{' {
			return true
		}
	}
	return false
}

// expandConfig walks every string field of cfg and applies expandEnv,
// returning a new Config with all values expanded.
func expandConfig(cfg entities.Config) (entities.Config, error) {
	v := reflect.ValueOf(&cfg).Elem()
	if err := expandStructStrings(v, ""); err != nil {
		return entities.Config{}, err
	}
	return cfg, nil
}

func expandStructStrings(v reflect.Value, path string) error {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			fieldPath := t.Field(i).Name
			if path != "" {
				fieldPath = path + "." + fieldPath
			}
			if err := expandStructStrings(v.Field(i), fieldPath); err != nil {
				return err
			}
		}
	case reflect.String:
		expanded, err := expandEnv(v.String(), path)
		if err != nil {
			return err
		}
		v.SetString(expanded)
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := expandStructStrings(v.Index(i), path); err != nil {
				return err
			}
		}
	}
	return nil
}
