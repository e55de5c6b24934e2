package entities

import "encoding/json"

// Page is a node in the immutable Site tree.
type Page struct {
	URLPath     string
	Title       string
	SourcePath  string
	PageType    string
	Description string
	Vars        map[string]json.RawMessage
	Children    []*Page
	Parent      *Page
}

// IsLeaf reports whether the page has no children.
func (p *Page) IsLeaf() bool {
	return len(p.Children) == 0
}

// IsSection reports whether the page defines a navigation scope (§4.5).
func (p *Page) IsSection() bool {
	return p.PageType != ""
}

// Depth returns the number of ancestors between the page and the root,
// inclusive of the page itself (root has depth 0).
func (p *Page) Depth() int {
	d := 0
	for n := p; n.Parent != nil; n = n.Parent {
		d++
	}
	return d
}

// NavItem is the navigation-tree shape served at the HTTP boundary (§6).
type NavItem struct {
	Title       string     `json:"title"`
	Path        string     `json:"path"`
	SectionType string     `json:"sectionType,omitempty"`
	Children    []*NavItem `json:"children,omitempty"`
}

// ScopeInfo describes a section's identity for the scoped-navigation API.
type ScopeInfo struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Type  string `json:"type"`
}

// Breadcrumb is one entry of the root-to-page breadcrumb trail.
type Breadcrumb struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// ToNavItem converts a Page subtree into the NavItem shape, with "/"-prefixed
// paths as required by the HTTP surface ("/" for root).
func (p *Page) ToNavItem() *NavItem {
	item := &NavItem{
		Title:       p.Title,
		Path:        toHTTPPath(p.URLPath),
		SectionType: p.PageType,
	}
	for _, child := range p.Children {
		item.Children = append(item.Children, child.ToNavItem())
	}
	return item
}

func toHTTPPath(urlPath string) string {
	if urlPath == "" {
		return "/"
	}
	return "/" + urlPath
}

// TOCEntry is a single table-of-contents entry produced by the renderer.
type TOCEntry struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	ID    string `json:"id"`
}

// ExtractedBlock is a fenced code block a processor claimed ownership of.
type ExtractedBlock struct {
	Lang    string
	Source  string
	Index   int
}

// UnmatchedComment is an inline comment marker the preservation algorithm
// could not re-anchor onto the freshly rendered body.
type UnmatchedComment struct {
	RefID string `json:"ref_id"`
	Text  string `json:"text"`
}
