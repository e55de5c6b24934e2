package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// DirectiveResult is what a leaf directive handler returns: either literal
// HTML (passed through the Markdown parser verbatim) or Markdown (spliced
// in and reprocessed along with the rest of the document).
type DirectiveResult struct {
	HTML     string
	Markdown string
}

// InlineHandler handles a `:name[content]{attrs}` directive; its result is
// substituted directly into the line.
type InlineHandler func(content string, attrs map[string]string) (string, error)

// LeafHandler handles a standalone `::name[content]{attrs}` directive line.
type LeafHandler func(content string, attrs map[string]string) (DirectiveResult, error)

// ContainerHandler handles a `:::name[content]{attrs}` ... `:::` pair.
// Start returns the opening markup, End the closing markup; handlers manage
// their own nesting state if they need to track it across calls.
type ContainerHandler interface {
	Start(content string, attrs map[string]string) (string, error)
	End() (string, error)
}

// DirectivePreprocessor implements the §4.3 directive pre-pass: a
// line-oriented scan over raw Markdown source, fence-aware, that dispatches
// registered directive names and leaves everything else — including
// unknown directives — untouched.
type DirectivePreprocessor struct {
	inline    map[string]InlineHandler
	leaf      map[string]LeafHandler
	container map[string]func() ContainerHandler
}

// NewDirectivePreprocessor returns an empty preprocessor; register handlers
// before calling Process.
func NewDirectivePreprocessor() *DirectivePreprocessor {
	return &DirectivePreprocessor{
		inline:    make(map[string]InlineHandler),
		leaf:      make(map[string]LeafHandler),
		container: make(map[string]func() ContainerHandler),
	}
}

func (p *DirectivePreprocessor) RegisterInline(name string, h InlineHandler) { p.inline[name] = h }
func (p *DirectivePreprocessor) RegisterLeaf(name string, h LeafHandler)     { p.leaf[name] = h }

// RegisterContainer takes a factory so each `:::name ... :::` pair gets its
// own handler instance, letting stateful handlers track their nesting.
func (p *DirectivePreprocessor) RegisterContainer(name string, factory func() ContainerHandler) {
	p.container[name] = factory
}

var (
	containerLineRe = regexp.MustCompile(`^:::([A-Za-z][\w-]*)(?:\[([^\]]*)\])?(?:\{([^}]*)\})?\s*$`)
	containerEndRe  = regexp.MustCompile(`^:::\s*$`)
	leafLineRe      = regexp.MustCompile(`^::([A-Za-z][\w-]*)(?:\[([^\]]*)\])?(?:\{([^}]*)\})?\s*$`)
	inlineRe        = regexp.MustCompile(`(^|[^:]):([A-Za-z][\w-]*)(\[[^\]]*\])?(\{[^}]*\})?`)
)

type containerFrame struct {
	name    string
	handler ContainerHandler
}

// Process runs the directive pre-pass over source, returning the rewritten
// Markdown plus any handler-error warnings. Unknown directives pass through
// unchanged. A registered container with no closing ":::" line keeps its
// handler's opening output and gets no closing output.
func (p *DirectivePreprocessor) Process(source []byte) ([]byte, []string) {
	lines := strings.Split(string(source), "\n")
	var out []string
	var warnings []string
	var stack []containerFrame

	var fenceChar byte
	var fenceLen int
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")

		if fc, n, isFence := fenceMarker(trimmed); isFence {
			if !inFence {
				inFence, fenceChar, fenceLen = true, fc, n
			} else if fc == fenceChar && n >= fenceLen {
				inFence = false
			}
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		if containerEndRe.MatchString(trimmed) && len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			closing, err := top.handler.End()
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("directive %q: %v", top.name, err))
				continue
			}
			out = append(out, closing)
			continue
		}

		if m := containerLineRe.FindStringSubmatch(trimmed); m != nil {
			name, content, attrs := m[1], m[2], parseAttrs(m[3])
			factory, ok := p.container[name]
			if !ok {
				out = append(out, line)
				continue
			}
			handler := factory()
			opening, err := handler.Start(content, attrs)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("directive %q: %v", name, err))
				continue
			}
			stack = append(stack, containerFrame{name: name, handler: handler})
			out = append(out, opening)
			continue
		}

		if m := leafLineRe.FindStringSubmatch(trimmed); m != nil {
			name, content, attrs := m[1], m[2], parseAttrs(m[3])
			handler, ok := p.leaf[name]
			if !ok {
				out = append(out, line)
				continue
			}
			result, err := handler(content, attrs)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("directive %q: %v", name, err))
				continue
			}
			if result.HTML != "" {
				out = append(out, "", result.HTML, "")
			} else {
				out = append(out, result.Markdown)
			}
			continue
		}

		out = append(out, p.substituteInline(line, &warnings))
	}

	return []byte(strings.Join(out, "\n")), warnings
}

func (p *DirectivePreprocessor) substituteInline(line string, warnings *[]string) string {
	return inlineRe.ReplaceAllStringFunc(line, func(match string) string {
		sub := inlineRe.FindStringSubmatch(match)
		prefix, name, content, attrsRaw := sub[1], sub[2], sub[3], sub[4]
		handler, ok := p.inline[name]
		if !ok {
			return match
		}
		content = strings.TrimSuffix(strings.TrimPrefix(content, "["), "]")
		attrs := parseAttrs(strings.TrimSuffix(strings.TrimPrefix(attrsRaw, "{"), "}"))
		result, err := handler(content, attrs)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("directive %q: %v", name, err))
			return match
		}
		return prefix + result
	})
}

// fenceMarker reports whether trimmed is a fence line (3+ of the same
// backtick or tilde), and its character/length.
func fenceMarker(trimmed string) (char byte, length int, ok bool) {
	if len(trimmed) < 3 {
		return 0, 0, false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return 0, 0, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	return c, n, true
}

// parseAttrs parses a space-separated `key=value` / `key="quoted value"` /
// bare-flag attribute list.
func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return attrs
	}
	fields := splitAttrFields(raw)
	for _, f := range fields {
		if idx := strings.IndexByte(f, '='); idx >= 0 {
			key := f[:idx]
			val := strings.Trim(f[idx+1:], `"'`)
			attrs[key] = val
		} else {
			attrs[f] = ""
		}
	}
	return attrs
}

// splitAttrFields splits on whitespace but keeps quoted "a b" values intact.
func splitAttrFields(raw string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	var quoteChar byte
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case inQuote:
			cur.WriteByte(c)
			if c == quoteChar {
				inQuote = false
			}
		case c == '"' || c == '\'':
			inQuote = true
			quoteChar = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
