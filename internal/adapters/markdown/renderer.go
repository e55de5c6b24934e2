// Package markdown implements the renderer port (§4.3): a goldmark-parsed
// event stream driven through a pluggable RenderBackend, with code-block
// processors intercepting fenced blocks for later single-pass
// post-processing.
package markdown

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// Renderer turns Markdown source into a backend-specific dialect plus a
// side-channel of title/TOC/warnings/extracted-blocks.
type Renderer struct {
	parser     parser.Parser
	backend    usecases.RenderBackend
	processors []usecases.CodeBlockProcessor
}

// NewRenderer builds a Renderer over the given backend and processor chain.
// GFM extensions (tables, strikethrough, task lists, autolinks) are always
// enabled, matching the "Common generic behavior" table in §4.3.
func NewRenderer(backend usecases.RenderBackend, processors ...usecases.CodeBlockProcessor) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &Renderer{parser: md.Parser(), backend: backend, processors: processors}
}

// Result is the output of one render: the dialect-specific markup plus the
// side-channel metadata the page renderer and diagram processor need.
type Result struct {
	HTML            string
	Title           string
	TOC             []entities.TOCEntry
	Warnings        []string
	ExtractedBlocks []entities.ExtractedBlock
}

// Render parses and walks source, driving the backend and code-block
// processors, then runs every processor's single-pass PostProcess over the
// assembled output.
func (r *Renderer) Render(ctx context.Context, source []byte, linkBase string) (*Result, error) {
	doc := r.parser.Parse(text.NewReader(source))

	st := &renderState{
		backend:     r.backend,
		processors:  r.processors,
		slugs:       make(map[string]int),
		byProcessor: make(map[usecases.CodeBlockProcessor][]entities.ExtractedBlock),
		linkBase:    linkBase,
	}

	if err := ast.Walk(doc, st.visit(source)); err != nil {
		return nil, entities.NewError(entities.KindRender, "render markdown", err)
	}

	rendered := st.out.String()
	replacements := make(map[string]string)
	for _, proc := range r.processors {
		blocks := st.byProcessor[proc]
		if len(blocks) == 0 {
			continue
		}
		repl, warnings, err := proc.PostProcess(ctx, rendered, blocks)
		if err != nil {
			st.warnings = append(st.warnings, err.Error())
			continue
		}
		for k, v := range repl {
			replacements[k] = v
		}
		st.warnings = append(st.warnings, warnings...)
	}
	pairs := make([]string, 0, 2*len(replacements))
	for placeholder, repl := range replacements {
		pairs = append(pairs, placeholder, repl)
	}
	rendered = strings.NewReplacer(pairs...).Replace(rendered)

	return &Result{
		HTML:            rendered,
		Title:           st.title,
		TOC:             st.toc,
		Warnings:        st.warnings,
		ExtractedBlocks: st.extracted,
	}, nil
}

type renderState struct {
	backend    usecases.RenderBackend
	processors []usecases.CodeBlockProcessor
	out        strings.Builder
	warnings   []string
	slugs      map[string]int

	title         string
	titleCaptured bool

	currentHeadingSuppressed bool
	currentHeadingLevel      int

	toc         []entities.TOCEntry
	extracted   []entities.ExtractedBlock
	byProcessor map[usecases.CodeBlockProcessor][]entities.ExtractedBlock
	linkBase    string
}

func (s *renderState) visit(source []byte) ast.Walker {
	return func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n.Kind() {
		case ast.KindDocument, ast.KindTextBlock:
			return ast.WalkContinue, nil

		case ast.KindParagraph:
			if entering {
				s.out.WriteString("<p>")
			} else {
				s.out.WriteString("</p>\n")
			}
			return ast.WalkContinue, nil

		case ast.KindHeading:
			return s.visitHeading(n.(*ast.Heading), source, entering)

		case ast.KindBlockquote:
			if entering {
				s.backend.BlockquoteStart(&s.out)
			} else {
				s.backend.BlockquoteEnd(&s.out)
			}
			return ast.WalkContinue, nil

		case ast.KindFencedCodeBlock:
			if entering {
				s.visitCodeBlock(n, string(n.(*ast.FencedCodeBlock).Language(source)), source)
			}
			return ast.WalkSkipChildren, nil

		case ast.KindCodeBlock:
			if entering {
				s.visitCodeBlock(n, "", source)
			}
			return ast.WalkSkipChildren, nil

		case ast.KindList:
			return s.visitList(n.(*ast.List), entering)

		case ast.KindListItem:
			if entering {
				s.out.WriteString("<li>")
			} else {
				s.out.WriteString("</li>\n")
			}
			return ast.WalkContinue, nil

		case ast.KindThematicBreak:
			if entering {
				s.backend.HorizontalRule(&s.out)
			}
			return ast.WalkContinue, nil

		case ast.KindEmphasis:
			em := n.(*ast.Emphasis)
			tag := "em"
			if em.Level >= 2 {
				tag = "strong"
			}
			if entering {
				fmt.Fprintf(&s.out, "<%s>", tag)
			} else {
				fmt.Fprintf(&s.out, "</%s>", tag)
			}
			return ast.WalkContinue, nil

		case ast.KindCodeSpan:
			if entering {
				s.out.WriteString("<code>")
			} else {
				s.out.WriteString("</code>")
			}
			return ast.WalkContinue, nil

		case ast.KindLink:
			return s.visitLink(n.(*ast.Link), entering)

		case ast.KindAutoLink:
			if entering {
				s.visitAutoLink(n.(*ast.AutoLink), source)
			}
			return ast.WalkSkipChildren, nil

		case ast.KindImage:
			if entering {
				img := n.(*ast.Image)
				alt := extractText(img, source)
				s.backend.Image(string(img.Destination), alt, string(img.Title), &s.out)
			}
			return ast.WalkSkipChildren, nil

		case ast.KindText:
			if entering {
				s.visitText(n.(*ast.Text), source)
			}
			return ast.WalkContinue, nil

		case ast.KindString:
			if entering {
				s.out.WriteString(escapeHTML(string(n.(*ast.String).Value)))
			}
			return ast.WalkContinue, nil

		case ast.KindRawHTML:
			if entering {
				raw := n.(*ast.RawHTML)
				for i := 0; i < raw.Segments.Len(); i++ {
					seg := raw.Segments.At(i)
					s.out.Write(seg.Value(source))
				}
			}
			return ast.WalkContinue, nil

		case ast.KindHTMLBlock:
			if entering {
				s.visitHTMLBlock(n.(*ast.HTMLBlock), source)
			}
			return ast.WalkContinue, nil

		case east.KindStrikethrough:
			if entering {
				s.out.WriteString("<del>")
			} else {
				s.out.WriteString("</del>")
			}
			return ast.WalkContinue, nil

		case east.KindTaskCheckBox:
			if entering {
				box := n.(*east.TaskCheckBox)
				s.backend.TaskListMarker(box.IsChecked, &s.out)
			}
			return ast.WalkContinue, nil

		case east.KindTable:
			if entering {
				s.out.WriteString("<table>\n")
			} else {
				s.out.WriteString("</table>\n")
			}
			return ast.WalkContinue, nil

		case east.KindTableHeader:
			if entering {
				s.out.WriteString("<thead><tr>\n")
			} else {
				s.out.WriteString("</tr></thead>\n")
			}
			return ast.WalkContinue, nil

		case east.KindTableRow:
			if entering {
				s.out.WriteString("<tr>\n")
			} else {
				s.out.WriteString("</tr>\n")
			}
			return ast.WalkContinue, nil

		case east.KindTableCell:
			return s.visitTableCell(n, entering)

		default:
			return ast.WalkContinue, nil
		}
	}
}

func (s *renderState) visitHeading(h *ast.Heading, source []byte, entering bool) (ast.WalkStatus, error) {
	if !entering {
		if !s.currentHeadingSuppressed {
			fmt.Fprintf(&s.out, "</h%d>\n", s.currentHeadingLevel)
		}
		return ast.WalkContinue, nil
	}

	titleEnabled := true // title extraction is always on; callers that don't want it ignore Result.Title
	text := extractText(h, source)
	isTitle := titleEnabled && !s.titleCaptured
	if isTitle {
		s.titleCaptured = true
		s.title = text
	}

	slug := s.uniqueSlug(text)

	effectiveLevel := h.Level
	suppressed := false
	if s.backend.TitleAsMetadata() {
		if isTitle {
			suppressed = true
		} else {
			effectiveLevel = h.Level - 1
			if effectiveLevel < 1 {
				effectiveLevel = 1
			}
		}
	}

	s.toc = append(s.toc, entities.TOCEntry{Level: effectiveLevel, Title: text, ID: slug})

	s.currentHeadingSuppressed = suppressed
	s.currentHeadingLevel = effectiveLevel
	if suppressed {
		return ast.WalkSkipChildren, nil
	}
	fmt.Fprintf(&s.out, `<h%d id="%s">`, effectiveLevel, slug)
	return ast.WalkContinue, nil
}

func (s *renderState) uniqueSlug(text string) string {
	base := slugify(text)
	if base == "" {
		base = "section"
	}
	n := s.slugs[base]
	s.slugs[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

func (s *renderState) visitCodeBlock(n ast.Node, lang string, source []byte) {
	content := codeBlockContent(n, source)
	if proc := s.findProcessor(lang); proc != nil {
		idx := len(s.extracted)
		block := proc.Extract(lang, content, idx)
		s.extracted = append(s.extracted, block)
		s.byProcessor[proc] = append(s.byProcessor[proc], block)
		fmt.Fprintf(&s.out, "{{PLACEHOLDER_%d}}", idx)
		return
	}
	s.backend.CodeBlock(lang, content, &s.out)
}

func (s *renderState) findProcessor(lang string) usecases.CodeBlockProcessor {
	for _, p := range s.processors {
		if p.Handles(lang) {
			return p
		}
	}
	return nil
}

func codeBlockContent(n ast.Node, source []byte) string {
	lines := n.Lines()
	var buf strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func (s *renderState) visitList(list *ast.List, entering bool) (ast.WalkStatus, error) {
	tag := "ul"
	if list.IsOrdered() {
		tag = "ol"
	}
	if entering {
		if list.IsOrdered() && list.Start != 1 {
			fmt.Fprintf(&s.out, `<%s start="%d">`, tag, list.Start)
		} else {
			fmt.Fprintf(&s.out, "<%s>", tag)
		}
	} else {
		fmt.Fprintf(&s.out, "</%s>\n", tag)
	}
	return ast.WalkContinue, nil
}

func (s *renderState) visitLink(link *ast.Link, entering bool) (ast.WalkStatus, error) {
	if entering {
		target := s.backend.TransformLink(string(link.Destination), s.linkBase)
		if len(link.Title) > 0 {
			fmt.Fprintf(&s.out, `<a href="%s" title="%s">`, escapeAttr(target), escapeAttr(string(link.Title)))
		} else {
			fmt.Fprintf(&s.out, `<a href="%s">`, escapeAttr(target))
		}
	} else {
		s.out.WriteString("</a>")
	}
	return ast.WalkContinue, nil
}

func (s *renderState) visitAutoLink(al *ast.AutoLink, source []byte) {
	url := string(al.URL(source))
	target := s.backend.TransformLink(url, s.linkBase)
	fmt.Fprintf(&s.out, `<a href="%s">%s</a>`, escapeAttr(target), escapeHTML(url))
}

func (s *renderState) visitText(t *ast.Text, source []byte) {
	s.out.WriteString(escapeHTML(string(t.Segment.Value(source))))
	if t.HardLineBreak() {
		s.backend.HardBreak(&s.out)
	} else if t.SoftLineBreak() {
		s.out.WriteByte('\n')
	}
}

func (s *renderState) visitHTMLBlock(h *ast.HTMLBlock, source []byte) {
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		s.out.Write(seg.Value(source))
	}
	if h.HasClosure() {
		s.out.Write(h.ClosureLine.Value(source))
	}
}

func (s *renderState) visitTableCell(n ast.Node, entering bool) (ast.WalkStatus, error) {
	tagName := "td"
	if n.Parent() != nil && n.Parent().Kind() == east.KindTableHeader {
		tagName = "th"
	}
	if entering {
		fmt.Fprintf(&s.out, "<%s>", tagName)
	} else {
		fmt.Fprintf(&s.out, "</%s>\n", tagName)
	}
	return ast.WalkContinue, nil
}
