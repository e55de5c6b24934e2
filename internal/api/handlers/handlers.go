// Package handlers implements the HTTP content contracts of §6's external
// interfaces: config, navigation, sections, and rendered pages.
package handlers

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwdocs/docstage/internal/core/entities"
)

// SiteProvider is the subset of internal/adapters/site.Service handlers
// depend on, kept narrow so it can be faked in tests.
type SiteProvider interface {
	Current() *entities.Site
}

// PageRenderer is the subset of internal/adapters/page.Renderer handlers
// depend on.
type PageRenderer interface {
	Render(ctx context.Context, sourcePath, urlPath string) (*RenderResult, error)
}

// RenderResult mirrors internal/adapters/page.Result, kept as a local type
// so this package does not need to import the page adapter directly.
type RenderResult struct {
	HTML     string
	Title    string
	TOC      []entities.TOCEntry
	Warnings []string
}

// Handlers holds the dependencies every HTTP handler needs.
type Handlers struct {
	site       SiteProvider
	renderer   PageRenderer
	docsRoot   string
	liveReload bool
}

// NewHandlers builds a Handlers. docsRoot is used to stat a page's backing
// file for the Last-Modified header; liveReloadEnabled feeds GET /api/config.
func NewHandlers(site SiteProvider, renderer PageRenderer, docsRoot string, liveReloadEnabled bool) *Handlers {
	return &Handlers{site: site, renderer: renderer, docsRoot: docsRoot, liveReload: liveReloadEnabled}
}

// ConfigResponse is the body of GET /api/config.
type ConfigResponse struct {
	LiveReloadEnabled bool `json:"liveReloadEnabled"`
}

// Config handles GET /api/config.
func (h *Handlers) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{LiveReloadEnabled: h.liveReload})
}

// NavigationResponse is the body of GET /api/navigation.
type NavigationResponse struct {
	Items       []*entities.NavItem `json:"items"`
	Scope       *entities.ScopeInfo `json:"scope,omitempty"`
	ParentScope *entities.ScopeInfo `json:"parentScope,omitempty"`
}

// Navigation handles GET /api/navigation?scope=<path>.
func (h *Handlers) Navigation(w http.ResponseWriter, r *http.Request) {
	site := h.site.Current()
	scopePath := strings.TrimPrefix(r.URL.Query().Get("scope"), "/")

	items, scope, parentScope := site.ScopedNavigation(scopePath)
	writeJSON(w, http.StatusOK, NavigationResponse{Items: items, Scope: scope, ParentScope: parentScope})
}

// SectionsResponse is the body of GET /api/sections.
type SectionsResponse struct {
	Sections []entities.ScopeInfo `json:"sections"`
}

// Sections handles GET /api/sections.
func (h *Handlers) Sections(w http.ResponseWriter, r *http.Request) {
	site := h.site.Current()
	writeJSON(w, http.StatusOK, SectionsResponse{Sections: site.SectionSummaries()})
}

// PageMeta is the `meta` object in a page response.
type PageMeta struct {
	Title        string `json:"title,omitempty"`
	Path         string `json:"path"`
	SourceFile   string `json:"sourceFile"`
	LastModified string `json:"lastModified"`
}

// PageResponse is the body of GET /api/pages/{*path}.
type PageResponse struct {
	Meta        PageMeta              `json:"meta"`
	Breadcrumbs []entities.Breadcrumb `json:"breadcrumbs"`
	TOC         []entities.TOCEntry   `json:"toc"`
	Content     string                `json:"content"`
}

// Page handles GET /api/pages/{*path}: renders the page, sets ETag/
// Last-Modified, and honors If-None-Match with a 304 (§6).
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	urlPath := strings.TrimPrefix(r.PathValue("path"), "/")

	site := h.site.Current()
	page, ok := site.Get(urlPath)
	if !ok {
		writeError(w, http.StatusNotFound, "page not found: "+urlPath)
		return
	}

	result, err := h.renderer.Render(r.Context(), page.SourcePath, page.URLPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	modTime := h.sourceModTime(page.SourcePath)
	etag := computeETag(modTime, result.HTML)

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", modTime.UTC().Format(http.TimeFormat))

	resp := PageResponse{
		Meta: PageMeta{
			Title:        page.Title,
			Path:         "/" + page.URLPath,
			SourceFile:   page.SourcePath,
			LastModified: modTime.UTC().Format(time.RFC3339),
		},
		Breadcrumbs: site.Breadcrumbs(page.URLPath),
		TOC:         result.TOC,
		Content:     result.HTML,
	}
	writeJSON(w, http.StatusOK, resp)
}

// computeETag is the double-quoted 16-hex-char MD5 of "{version}:{html}",
// version standing in for the page's modification time (§6).
func computeETag(version time.Time, html string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d:%s", version.UnixNano(), html)))
	return `"` + hex.EncodeToString(sum[:])[:16] + `"`
}

func (h *Handlers) sourceModTime(sourcePath string) time.Time {
	if h.docsRoot == "" || sourcePath == "" {
		return time.Time{}
	}
	info, err := os.Stat(filepath.Join(h.docsRoot, sourcePath))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
