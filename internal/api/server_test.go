package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_SetsExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.LiveReloadEnabled)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.WriteTimeout)
}

func TestPathExt_ReturnsExtensionWithoutDot(t *testing.T) {
	assert.Equal(t, "css", pathExt("/assets/app.css"))
	assert.Equal(t, "", pathExt("/guide"))
	assert.Equal(t, "", pathExt("/"))
	assert.Equal(t, "html", pathExt("/index.html"))
}

func TestStaticHandler_ExtensionlessPathFallsBackToIndex(t *testing.T) {
	handler := newStaticHandler("")

	req := httptest.NewRequest(http.MethodGet, "/guide/getting-started", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "docstage")
}

func TestStaticHandler_APIPathNeverFallsThrough(t *testing.T) {
	handler := newStaticHandler("")

	req := httptest.NewRequest(http.MethodGet, "/api/pages/guide", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticHandler_WebsocketPathNeverFallsThrough(t *testing.T) {
	handler := newStaticHandler("")

	req := httptest.NewRequest(http.MethodGet, "/ws/live-reload", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticHandler_AssetPathServedDirectly(t *testing.T) {
	handler := newStaticHandler("")

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<html")
}
