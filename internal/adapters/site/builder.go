// Package site builds an immutable Page tree from a Storage scan (§4.5).
package site

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// Build constructs a Site from a sorted Document list, creating synthetic
// intermediate pages for any url-path segment that has no backing Document,
// and resolving each page's title per the inheritance-then-H1-then-filename
// priority.
func Build(ctx context.Context, docs []entities.Document, storage usecases.Storage) (*entities.Site, error) {
	sorted := make([]entities.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].URLPath < sorted[j].URLPath })

	root := &entities.Page{URLPath: ""}
	nodes := map[string]*entities.Page{"": root}

	for _, doc := range sorted {
		page := ensurePage(root, nodes, doc.URLPath)
		page.SourcePath = doc.SourcePath
		page.PageType = doc.PageType
		page.Description = doc.Description
		page.Vars = doc.Vars
		page.Title = resolveTitle(ctx, doc, storage)
	}

	// Any segment referenced only as an ancestor (no Document of its own)
	// keeps the synthetic title assigned when it was first created.

	flat := make([]*entities.Page, 0, len(nodes))
	var order func(p *entities.Page)
	order = func(p *entities.Page) {
		sortChildren(p.Children)
		flat = append(flat, p)
		for _, c := range p.Children {
			order(c)
		}
	}
	order(root)

	return entities.NewSite(root, flat), nil
}

// ensurePage walks urlPath's segments, creating synthetic intermediate pages
// as needed, and returns the leaf node for urlPath itself.
func ensurePage(root *entities.Page, nodes map[string]*entities.Page, urlPath string) *entities.Page {
	if urlPath == "" {
		return root
	}
	if p, ok := nodes[urlPath]; ok {
		return p
	}

	segments := strings.Split(urlPath, "/")
	parent := root
	built := ""
	for i, seg := range segments {
		if built == "" {
			built = seg
		} else {
			built = built + "/" + seg
		}
		if existing, ok := nodes[built]; ok {
			parent = existing
			continue
		}
		child := &entities.Page{
			URLPath: built,
			Title:   humanize(seg),
			Parent:  parent,
		}
		parent.Children = append(parent.Children, child)
		nodes[built] = child
		parent = child
		_ = i
	}
	return nodes[urlPath]
}

// resolveTitle applies §4.5 step 4: inherited metadata title, then the
// source's first H1, then a humanized filename/directory stem.
func resolveTitle(ctx context.Context, doc entities.Document, storage usecases.Storage) string {
	if doc.Title != "" {
		return doc.Title
	}
	if !doc.Synthetic && doc.SourcePath != "" && storage != nil {
		if data, err := storage.Read(ctx, doc.SourcePath); err == nil {
			if h := firstHeading(data); h != "" {
				return h
			}
		}
	}
	return humanize(lastSegment(doc.URLPath))
}

func lastSegment(urlPath string) string {
	if urlPath == "" {
		return "home"
	}
	if i := strings.LastIndex(urlPath, "/"); i >= 0 {
		return urlPath[i+1:]
	}
	return urlPath
}

// humanize turns a filename/directory stem into a display title:
// "getting-started" / "getting_started" -> "Getting Started".
func humanize(stem string) string {
	if stem == "" {
		return "Home"
	}
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// firstHeading returns the text of the first ATX H1 line, or "".
func firstHeading(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}

// sortChildren applies §4.5 step 5: a child that is itself a directory
// (has its own children) sorts before leaf children, then case-insensitive
// title, with url-path as the stable tie-break.
func sortChildren(children []*entities.Page) {
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		aDir, bDir := len(a.Children) > 0, len(b.Children) > 0
		if aDir != bDir {
			return aDir
		}
		at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if at != bt {
			return at < bt
		}
		return a.URLPath < b.URLPath
	})
}
