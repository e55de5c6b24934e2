package entities

// Site is an immutable snapshot of the Page tree built from a Storage scan.
// Mutation means building a new Site and publishing it atomically; there is
// no in-place mutation of a published Site.
type Site struct {
	Root         *Page
	Pages        []*Page // flat, deterministic scan order
	byURLPath    map[string]*Page
	bySourcePath map[string]*Page
	Sections     []*Page // pages with a non-empty PageType
}

// NewSite builds the flat indices and section list from a root page and its
// deterministically ordered descendant list. Callers (internal/adapters/site)
// are responsible for constructing Root/Pages in the correct tree shape.
func NewSite(root *Page, pages []*Page) *Site {
	s := &Site{
		Root:         root,
		Pages:        pages,
		byURLPath:    make(map[string]*Page, len(pages)),
		bySourcePath: make(map[string]*Page, len(pages)),
	}
	for _, p := range pages {
		s.byURLPath[p.URLPath] = p
		if p.SourcePath != "" {
			s.bySourcePath[p.SourcePath] = p
		}
		if p.IsSection() {
			s.Sections = append(s.Sections, p)
		}
	}
	return s
}

// Get looks up a page by its url-path.
func (s *Site) Get(urlPath string) (*Page, bool) {
	p, ok := s.byURLPath[urlPath]
	return p, ok
}

// GetBySource looks up a page by its source-path.
func (s *Site) GetBySource(sourcePath string) (*Page, bool) {
	p, ok := s.bySourcePath[sourcePath]
	return p, ok
}

// HasPage reports whether url-path resolves to a page.
func (s *Site) HasPage(urlPath string) bool {
	_, ok := s.byURLPath[urlPath]
	return ok
}

// PageTitle returns the title of the page at url-path, or "" if absent.
func (s *Site) PageTitle(urlPath string) string {
	if p, ok := s.byURLPath[urlPath]; ok {
		return p.Title
	}
	return ""
}

// Resolve returns the source-path backing a url-path.
func (s *Site) Resolve(urlPath string) (string, bool) {
	p, ok := s.byURLPath[urlPath]
	if !ok {
		return "", false
	}
	return p.SourcePath, true
}

// Breadcrumbs returns root..page inclusive, or nil if urlPath is unknown.
func (s *Site) Breadcrumbs(urlPath string) []Breadcrumb {
	p, ok := s.byURLPath[urlPath]
	if !ok {
		return nil
	}
	var chain []*Page
	for n := p; n != nil; n = n.Parent {
		chain = append(chain, n)
	}
	crumbs := make([]Breadcrumb, len(chain))
	for i, n := range chain {
		crumbs[len(chain)-1-i] = Breadcrumb{Title: n.Title, Path: toHTTPPath(n.URLPath)}
	}
	return crumbs
}

// Navigation returns the root's children as a NavItem tree.
func (s *Site) Navigation() []*NavItem {
	items := make([]*NavItem, 0, len(s.Root.Children))
	for _, c := range s.Root.Children {
		items = append(items, c.ToNavItem())
	}
	return items
}

// ScopedNavigation implements §4.5 scoped_navigation: resolve the section
// that urlPath belongs to (or the nearest section ancestor), and return that
// subtree plus scope / parent-scope info.
func (s *Site) ScopedNavigation(urlPath string) (items []*NavItem, scope *ScopeInfo, parentScope *ScopeInfo) {
	p, ok := s.byURLPath[urlPath]
	if !ok {
		return s.Navigation(), nil, nil
	}

	var section *Page
	if p.IsSection() {
		section = p
	} else {
		for n := p.Parent; n != nil; n = n.Parent {
			if n.IsSection() {
				section = n
				break
			}
		}
	}
	if section == nil {
		return s.Navigation(), nil, nil
	}

	for _, c := range section.Children {
		items = append(items, c.ToNavItem())
	}
	scope = &ScopeInfo{Title: section.Title, Path: toHTTPPath(section.URLPath), Type: section.PageType}

	for n := section.Parent; n != nil; n = n.Parent {
		if n.IsSection() {
			parentScope = &ScopeInfo{Title: n.Title, Path: toHTTPPath(n.URLPath), Type: n.PageType}
			break
		}
	}
	return items, scope, parentScope
}

// SectionSummaries returns {title, path, type} for every section, in scan
// order, for the GET /api/sections endpoint.
func (s *Site) SectionSummaries() []ScopeInfo {
	out := make([]ScopeInfo, 0, len(s.Sections))
	for _, p := range s.Sections {
		out = append(out, ScopeInfo{Title: p.Title, Path: toHTTPPath(p.URLPath), Type: p.PageType})
	}
	return out
}
