package diagrams

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

const cacheBucketName = "diagrams"

const defaultWorkers = 4

// Options configures a Processor; zero values pick the spec defaults.
type Options struct {
	IncludeDirs []string
	ConfigFile  string
	DPI         int
	Format      entities.DiagramFormat
	OutputDir   string // directory rendered images are written to
	Workers     int
	Timeout     time.Duration
}

// Processor is the CodeBlockProcessor for diagram languages (§4.4): it
// claims any fenced block whose language is a known diagram kind,
// preprocesses it at Extract time, and at PostProcess time cache-checks and
// renders each claimed block through a remote service before embedding it
// via a Dialect.
type Processor struct {
	client  usecases.DiagramRenderClient
	cache   usecases.Cache
	dialect Dialect
	opts    Options
}

var _ usecases.CodeBlockProcessor = (*Processor)(nil)

// New builds a diagram Processor. cache may be nil; lookups and writes are
// then skipped.
func New(client usecases.DiagramRenderClient, cache usecases.Cache, dialect Dialect, opts Options) *Processor {
	if opts.DPI <= 0 {
		opts.DPI = entities.DefaultDPI
	}
	if opts.Format == "" {
		opts.Format = entities.FormatPNG
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Processor{client: client, cache: cache, dialect: dialect, opts: opts}
}

func (p *Processor) Handles(lang string) bool {
	_, ok := entities.Endpoints[entities.DiagramKind(lang)]
	return ok
}

// Extract preprocesses the raw fence content immediately, so the content
// key used for caching reflects resolved includes and the DPI preamble,
// not the raw source.
func (p *Processor) Extract(lang, content string, index int) entities.ExtractedBlock {
	preprocessed := preprocessSource(content, p.opts.IncludeDirs, p.opts.ConfigFile, p.opts.DPI)
	return entities.ExtractedBlock{Lang: lang, Source: preprocessed, Index: index}
}

type renderResult struct {
	index       int
	replacement string
	warning     string
}

// PostProcess renders every claimed block through a bounded worker pool,
// consulting the cache before calling out to the remote service, then
// returns the placeholder substitutions.
func (p *Processor) PostProcess(ctx context.Context, rendered string, blocks []entities.ExtractedBlock) (map[string]string, []string, error) {
	repl := make(map[string]string, len(blocks))
	if len(blocks) == 0 {
		return repl, nil, nil
	}

	var bucket usecases.CacheBucket
	if p.cache != nil {
		bucket = p.cache.Bucket(cacheBucketName)
	}

	results := make(chan renderResult, len(blocks))
	sem := make(chan struct{}, p.opts.Workers)
	var wg sync.WaitGroup

	for _, b := range blocks {
		wg.Add(1)
		go func(b entities.ExtractedBlock) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- p.renderOne(ctx, bucket, b)
		}(b)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var warnings []string
	for r := range results {
		repl[placeholder(r.index)] = r.replacement
		if r.warning != "" {
			warnings = append(warnings, r.warning)
		}
	}
	return repl, warnings, nil
}

func (p *Processor) renderOne(ctx context.Context, bucket usecases.CacheBucket, b entities.ExtractedBlock) renderResult {
	endpoint := entities.Endpoints[entities.DiagramKind(b.Lang)]
	key := entities.DiagramKey{
		Endpoint: endpoint,
		Format:   p.opts.Format,
		DPI:      p.opts.DPI,
		Source:   b.Source,
	}
	hash := key.ComputeHash()

	var data []byte
	if bucket != nil {
		if cached, ok := bucket.Get(hash, ""); ok {
			data = cached
		}
	}

	if data == nil {
		rendered, err := p.client.Render(ctx, endpoint, p.opts.Format, b.Source, p.opts.Timeout)
		if err != nil {
			return renderResult{
				index:       b.Index,
				replacement: p.dialect.EmbedError(fmt.Sprintf("diagram %d (%s) failed to render: %v", b.Index, b.Lang, err)),
				warning:     fmt.Sprintf("render %s block %d: %v", b.Lang, b.Index, err),
			}
		}
		data = rendered
		if bucket != nil {
			bucket.Set(hash, "", data)
		}
	}

	if err := p.writeOutput(hash, data); err != nil {
		return renderResult{
			index:       b.Index,
			replacement: p.dialect.EmbedError(fmt.Sprintf("diagram %d (%s) could not be written: %v", b.Index, b.Lang, err)),
			warning:     fmt.Sprintf("write %s block %d: %v", b.Lang, b.Index, err),
		}
	}

	if p.opts.Format == entities.FormatSVG {
		return renderResult{index: b.Index, replacement: p.dialect.EmbedSVG(hash, string(data), 0)}
	}

	width, _, err := decodePNGDimensions(data)
	if err != nil {
		return renderResult{
			index:       b.Index,
			replacement: p.dialect.EmbedError(fmt.Sprintf("diagram %d (%s) produced an unreadable image: %v", b.Index, b.Lang, err)),
			warning:     fmt.Sprintf("decode %s block %d: %v", b.Lang, b.Index, err),
		}
	}
	rd := entities.RenderedDiagram{Hash: hash, Format: p.opts.Format, Width: width}
	return renderResult{index: b.Index, replacement: p.dialect.EmbedPNG(hash, rd.DisplayWidth(p.opts.DPI))}
}

func (p *Processor) writeOutput(hash string, data []byte) error {
	if p.opts.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return err
	}
	ext := "png"
	if p.opts.Format == entities.FormatSVG {
		ext = "svg"
	}
	path := filepath.Join(p.opts.OutputDir, hash+"."+ext)
	return os.WriteFile(path, data, 0o644)
}

func decodePNGDimensions(data []byte) (width, height int, err error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func placeholder(index int) string {
	return fmt.Sprintf("{{PLACEHOLDER_%d}}", index)
}
