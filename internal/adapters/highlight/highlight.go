// Package highlight implements a CodeBlockProcessor that syntax-highlights
// fenced code blocks via chroma, claiming any language chroma recognizes
// that the diagram processor chain hasn't already claimed.
package highlight

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// Processor highlights fenced code blocks whose language chroma has a
// lexer for. Blocks in excludeLangs (typically the diagram languages) are
// left for another processor in the chain.
type Processor struct {
	styleName    string
	excludeLangs map[string]struct{}
}

var _ usecases.CodeBlockProcessor = (*Processor)(nil)

// New builds a Processor using the named chroma style ("github" if empty),
// skipping any language in exclude (handled upstream, e.g. by diagrams).
func New(styleName string, exclude ...string) *Processor {
	if styleName == "" {
		styleName = "github"
	}
	excludeSet := make(map[string]struct{}, len(exclude))
	for _, l := range exclude {
		excludeSet[strings.ToLower(l)] = struct{}{}
	}
	return &Processor{styleName: styleName, excludeLangs: excludeSet}
}

func (p *Processor) Handles(lang string) bool {
	if lang == "" {
		return false
	}
	if _, excluded := p.excludeLangs[strings.ToLower(lang)]; excluded {
		return false
	}
	return lexers.Get(lang) != nil
}

func (p *Processor) Extract(lang, content string, index int) entities.ExtractedBlock {
	return entities.ExtractedBlock{Lang: lang, Source: content, Index: index}
}

// PostProcess highlights each claimed block independently; a lexer/style
// failure degrades to an escaped <pre><code> block and a warning rather
// than failing the render.
func (p *Processor) PostProcess(ctx context.Context, rendered string, blocks []entities.ExtractedBlock) (map[string]string, []string, error) {
	repl := make(map[string]string, len(blocks))
	var warnings []string

	style := styles.Get(p.styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))

	for _, b := range blocks {
		lexer := lexers.Get(b.Lang)
		if lexer == nil {
			lexer = lexers.Fallback
		}
		lexer = chroma.Coalesce(lexer)

		iterator, err := lexer.Tokenise(nil, b.Source)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("highlight %q block %d: %v", b.Lang, b.Index, err))
			repl[placeholder(b.Index)] = fallbackBlock(b)
			continue
		}

		var buf strings.Builder
		if err := formatter.Format(&buf, style, iterator); err != nil {
			warnings = append(warnings, fmt.Sprintf("highlight %q block %d: %v", b.Lang, b.Index, err))
			repl[placeholder(b.Index)] = fallbackBlock(b)
			continue
		}
		repl[placeholder(b.Index)] = buf.String()
	}
	return repl, warnings, nil
}

func placeholder(index int) string {
	return fmt.Sprintf("{{PLACEHOLDER_%d}}", index)
}

func fallbackBlock(b entities.ExtractedBlock) string {
	return fmt.Sprintf("<pre><code>%s</code></pre>", escapeHTML(b.Source))
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
