package diagrams

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxIncludeDepth = 10

// preprocessSource resolves `!include path` directives against includeDirs
// (depth-capped; `<angle-bracket>` stdlib includes are left untouched),
// then prepends a DPI directive and an optional config file's contents
// (§4.4 preprocessing, PlantUML-like dialects).
func preprocessSource(source string, includeDirs []string, configFile string, dpi int) string {
	resolved := strings.TrimSuffix(resolveIncludes(source, includeDirs, 0), "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "skinparam dpi %d\n", dpi)
	if configFile != "" {
		if cfg, ok := readFromDirs(configFile, includeDirs); ok {
			b.WriteString(strings.TrimSuffix(cfg, "\n"))
			b.WriteByte('\n')
		}
	}
	b.WriteString(resolved)
	return b.String()
}

func resolveIncludes(source string, includeDirs []string, depth int) string {
	if depth >= maxIncludeDepth {
		return source
	}
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "!include ") {
			continue
		}
		path := strings.TrimSpace(strings.TrimPrefix(trimmed, "!include "))
		if strings.HasPrefix(path, "<") && strings.HasSuffix(path, ">") {
			// stdlib include, left for the rendering service to resolve
			continue
		}
		if content, ok := readFromDirs(path, includeDirs); ok {
			lines[i] = resolveIncludes(content, includeDirs, depth+1)
		}
	}
	return strings.Join(lines, "\n")
}

func readFromDirs(name string, dirs []string) (string, bool) {
	for _, dir := range dirs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), true
		}
	}
	return "", false
}

// countLines counts the lines of s as bufio.Scanner splits them.
func countLines(s string) int {
	sc := bufio.NewScanner(strings.NewReader(s))
	n := 0
	for sc.Scan() {
		n++
	}
	return n
}
