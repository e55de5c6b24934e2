package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rwdocs/docstage/internal/adapters/cache"
	"github.com/rwdocs/docstage/internal/adapters/diagrams"
	"github.com/rwdocs/docstage/internal/adapters/highlight"
	"github.com/rwdocs/docstage/internal/adapters/livereload"
	"github.com/rwdocs/docstage/internal/adapters/logging"
	"github.com/rwdocs/docstage/internal/adapters/markdown"
	"github.com/rwdocs/docstage/internal/adapters/page"
	"github.com/rwdocs/docstage/internal/adapters/site"
	"github.com/rwdocs/docstage/internal/adapters/storage"
	"github.com/rwdocs/docstage/internal/api"
	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
	"github.com/rwdocs/docstage/internal/ui"
)

const diagramsAssetPath = "/assets/diagrams"

// runServe builds the full adapter graph (storage, cache, markdown/diagram
// rendering, site snapshot, live-reload coordinator) and serves it over
// HTTP until interrupted.
func runServe(cfg entities.Config, out *ui.Output) error {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	log := logging.New(level, "serve")

	fileStorage := storage.New(cfg.Docs.SourceDir, cfg.Metadata.SidecarName)

	var pageCache usecases.Cache = cache.NullCache{}
	if cfg.Docs.CacheEnabled {
		fc, err := cache.Open(filepath.Join(cfg.Docs.ProjectDir, "cache"), appVersion)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		pageCache = fc
	}

	diagramsDir := filepath.Join(cfg.Docs.ProjectDir, "diagrams")
	var diagramClient usecases.DiagramRenderClient
	if cfg.Diagrams.KrokiURL != "" {
		diagramClient = diagrams.NewHTTPRenderClient(cfg.Diagrams.KrokiURL)
	}

	var processors []usecases.CodeBlockProcessor
	processors = append(processors, highlight.New("monokai"))
	if diagramClient != nil {
		processors = append(processors, diagrams.New(diagramClient, pageCache, diagrams.HTMLDialect{AssetsPath: diagramsAssetPath}, diagrams.Options{
			IncludeDirs: cfg.Diagrams.IncludeDirs,
			ConfigFile:  cfg.Diagrams.ConfigFile,
			DPI:         cfg.Diagrams.DPI,
			OutputDir:   diagramsDir,
		}))
	}

	backend := &markdown.HTMLBackend{AssetsPath: "/assets"}
	mdRenderer := markdown.NewRenderer(backend, processors...)
	directives := markdown.NewDirectivePreprocessor()
	pageRenderer := page.New(fileStorage, pageCache, mdRenderer, directives, page.Config{
		BackendIdentity:  "html",
		GFM:              true,
		DiagramServerURL: cfg.Diagrams.KrokiURL,
		DPI:              cfg.Diagrams.DPI,
		IncludeDirs:      cfg.Diagrams.IncludeDirs,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	siteSvc, err := site.New(ctx, fileStorage)
	if err != nil {
		return fmt.Errorf("build initial site: %w", err)
	}

	var hub *livereload.Hub
	if cfg.Server.LiveReloadEnabled {
		hub = livereload.NewHub()
		coordinator := livereload.New(fileStorage, siteSvc, hub)
		go func() {
			if err := coordinator.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("live-reload coordinator stopped", err)
			}
		}()
	}

	server := api.NewServer(api.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		LiveReloadEnabled: cfg.Server.LiveReloadEnabled,
		DocsRoot:          cfg.Docs.SourceDir,
		DiagramsDir:       diagramsDir,
		AssetsDir:         cfg.Docs.SourceDir,
		ReadTimeout:       api.DefaultConfig().ReadTimeout,
		WriteTimeout:      api.DefaultConfig().WriteTimeout,
	}, siteSvc, pageRenderer, hub, log)

	out.Success(fmt.Sprintf("serving %s at http://%s:%d", cfg.Docs.SourceDir, cfg.Server.Host, cfg.Server.Port))
	if cfg.Server.LiveReloadEnabled {
		out.Info("live reload enabled")
	}
	return server.Start(ctx)
}
