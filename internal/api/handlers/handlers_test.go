package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSiteProvider struct {
	site *entities.Site
}

func (f fakeSiteProvider) Current() *entities.Site { return f.site }

type fakeRenderer struct {
	result *RenderResult
	err    error
}

func (f fakeRenderer) Render(ctx context.Context, sourcePath, urlPath string) (*RenderResult, error) {
	return f.result, f.err
}

func buildTestSite() *entities.Site {
	root := &entities.Page{URLPath: "", Title: "Home"}
	guide := &entities.Page{URLPath: "guide", Title: "Guide", SourcePath: "guide.md", Parent: root}
	root.Children = []*entities.Page{guide}
	return entities.NewSite(root, []*entities.Page{root, guide})
}

func TestConfig_ReturnsLiveReloadFlag(t *testing.T) {
	h := NewHandlers(fakeSiteProvider{site: buildTestSite()}, fakeRenderer{}, "", true)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	h.Config(w, req)

	var resp ConfigResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.LiveReloadEnabled)
}

func TestNavigation_ReturnsRootItemsWithLeadingSlashPaths(t *testing.T) {
	h := NewHandlers(fakeSiteProvider{site: buildTestSite()}, fakeRenderer{}, "", false)

	req := httptest.NewRequest(http.MethodGet, "/api/navigation", nil)
	w := httptest.NewRecorder()
	h.Navigation(w, req)

	var resp NavigationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "/guide", resp.Items[0].Path)
}

func TestSections_ReturnsEmptyWhenNoneConfigured(t *testing.T) {
	h := NewHandlers(fakeSiteProvider{site: buildTestSite()}, fakeRenderer{}, "", false)

	req := httptest.NewRequest(http.MethodGet, "/api/sections", nil)
	w := httptest.NewRecorder()
	h.Sections(w, req)

	var resp SectionsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Sections)
}

func TestPage_UnknownPathReturns404(t *testing.T) {
	h := NewHandlers(fakeSiteProvider{site: buildTestSite()}, fakeRenderer{}, "", false)

	req := httptest.NewRequest(http.MethodGet, "/api/pages/missing", nil)
	req.SetPathValue("path", "missing")
	w := httptest.NewRecorder()
	h.Page(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPage_RendersAndSetsETag(t *testing.T) {
	h := NewHandlers(fakeSiteProvider{site: buildTestSite()}, fakeRenderer{
		result: &RenderResult{HTML: "<p>hi</p>", Title: "Guide", TOC: nil},
	}, "", false)

	req := httptest.NewRequest(http.MethodGet, "/api/pages/guide", nil)
	req.SetPathValue("path", "guide")
	w := httptest.NewRecorder()
	h.Page(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.NotEmpty(t, etag)

	var resp PageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "<p>hi</p>", resp.Content)
	assert.Equal(t, "/guide", resp.Meta.Path)
	require.Len(t, resp.Breadcrumbs, 2)
}

func TestPage_IfNoneMatchReturns304(t *testing.T) {
	h := NewHandlers(fakeSiteProvider{site: buildTestSite()}, fakeRenderer{
		result: &RenderResult{HTML: "<p>hi</p>"},
	}, "", false)

	req := httptest.NewRequest(http.MethodGet, "/api/pages/guide", nil)
	req.SetPathValue("path", "guide")
	w := httptest.NewRecorder()
	h.Page(w, req)
	etag := w.Header().Get("ETag")

	req2 := httptest.NewRequest(http.MethodGet, "/api/pages/guide", nil)
	req2.SetPathValue("path", "guide")
	req2.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	h.Page(w2, req2)

	assert.Equal(t, http.StatusNotModified, w2.Code)
}
