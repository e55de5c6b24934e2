// Package api implements the transport boundary: HTTP routing, middleware,
// and the WebSocket live-reload upgrade over the rendering core (§6).
package api

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rwdocs/docstage/internal/adapters/page"
	"github.com/rwdocs/docstage/internal/adapters/site"
	"github.com/rwdocs/docstage/internal/api/handlers"
	"github.com/rwdocs/docstage/internal/api/middleware"
	"github.com/rwdocs/docstage/internal/api/static"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// Config configures the HTTP server (§6 `server` config section).
type Config struct {
	Host              string
	Port              int
	LiveReloadEnabled bool
	DocsRoot          string
	StaticDir         string // on-disk override; empty serves the embedded default
	DiagramsDir       string // rendered diagram output, served at /assets/diagrams/
	AssetsDir         string // docs source tree, served at /assets/ (relative image links)
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultConfig returns docstage's default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:              "127.0.0.1",
		Port:              8080,
		LiveReloadEnabled: true,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}

// LiveReloadHub is the subset of internal/adapters/livereload.Hub the
// server depends on.
type LiveReloadHub interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Server is docstage's HTTP API server.
type Server struct {
	config     Config
	site       *site.Service
	pageRender *page.Renderer
	hub        LiveReloadHub
	log        usecases.Logger
	httpServer *http.Server
}

// NewServer builds a Server. hub may be nil when live-reload is disabled.
func NewServer(config Config, siteSvc *site.Service, pageRenderer *page.Renderer, hub LiveReloadHub, log usecases.Logger) *Server {
	return &Server{config: config, site: siteSvc, pageRender: pageRenderer, hub: hub, log: log}
}

// pageRendererAdapter adapts *page.Renderer's concrete Result to the
// handlers package's narrow PageRenderer port.
type pageRendererAdapter struct {
	renderer *page.Renderer
}

func (a pageRendererAdapter) Render(ctx context.Context, sourcePath, urlPath string) (*handlers.RenderResult, error) {
	result, err := a.renderer.Render(ctx, sourcePath, urlPath)
	if err != nil {
		return nil, err
	}
	return &handlers.RenderResult{HTML: result.HTML, Title: result.Title, TOC: result.TOC, Warnings: result.Warnings}, nil
}

// Start builds the route table and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	h := handlers.NewHandlers(s.site, pageRendererAdapter{renderer: s.pageRender}, s.config.DocsRoot, s.config.LiveReloadEnabled)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", h.Config)
	mux.HandleFunc("GET /api/navigation", h.Navigation)
	mux.HandleFunc("GET /api/sections", h.Sections)
	mux.HandleFunc("GET /api/pages/{path...}", h.Page)

	if s.config.LiveReloadEnabled && s.hub != nil {
		mux.HandleFunc("GET /ws/live-reload", s.hub.ServeHTTP)
	}

	if s.config.DiagramsDir != "" {
		diagramHandler := http.StripPrefix("/assets/diagrams/", http.FileServer(http.Dir(s.config.DiagramsDir)))
		mux.Handle("GET /assets/diagrams/", diagramHandler)
	}
	if s.config.AssetsDir != "" {
		assetHandler := http.StripPrefix("/assets/", http.FileServer(http.Dir(s.config.AssetsDir)))
		mux.Handle("GET /assets/", assetHandler)
	}

	mux.Handle("GET /", newStaticHandler(s.config.StaticDir))

	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logger(s.log)(handler)
	handler = middleware.Recovery(s.log)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// newStaticHandler serves staticDir on disk if set, else the embedded
// default shell; unknown, extensionless, non-"/api"/"/ws" paths fall back to
// index.html (SPA routing, §6).
func newStaticHandler(staticDir string) http.Handler {
	var fileSystem http.FileSystem
	if staticDir != "" {
		fileSystem = http.Dir(staticDir)
	} else {
		sub, err := staticSubFS()
		if err != nil {
			fileSystem = http.Dir(".")
		} else {
			fileSystem = sub
		}
	}
	fileServer := http.FileServer(fileSystem)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/ws/") {
			http.NotFound(w, r)
			return
		}
		if ext := pathExt(r.URL.Path); ext == "" {
			r2 := new(http.Request)
			*r2 = *r
			r2.URL = new(url.URL)
			*r2.URL = *r.URL
			r2.URL.Path = "/index.html"
			fileServer.ServeHTTP(w, r2)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func pathExt(p string) string {
	i := strings.LastIndex(p, "/")
	name := p[i+1:]
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return ""
	}
	return name[dot+1:]
}

func staticSubFS() (http.FileSystem, error) {
	sub, err := fs.Sub(static.DefaultAssets, "assets")
	if err != nil {
		return nil, err
	}
	return http.FS(sub), nil
}
