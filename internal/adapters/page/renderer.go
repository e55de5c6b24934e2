// Package page implements the page renderer (§4.6): source + url-path in,
// {html, title, toc, warnings} out, with a fingerprint-keyed cache in front
// of the markdown rendering pipeline.
package page

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/rwdocs/docstage/internal/adapters/markdown"
	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

const cacheBucketName = "pages"

// Renderer turns markdown bytes into the Result below. The document-level
// Markdown rendering itself (goldmark parse + backend dispatch) is provided
// by MarkdownRenderer; page.Renderer's own job is the fingerprint, cache
// lookup, and directive preprocessing wiring around it.
type Renderer struct {
	storage           usecases.Storage
	cache             usecases.Cache
	markdown          MarkdownRenderer
	directives        DirectivePreprocessor
	configFingerprint string
}

// MarkdownRenderer is the subset of internal/adapters/markdown's Renderer
// this package depends on, kept as a narrow port rather than a concrete
// struct so tests can substitute a fake.
type MarkdownRenderer interface {
	Render(ctx context.Context, source []byte, linkBase string) (*markdown.Result, error)
}

// DirectivePreprocessor runs the optional directive pre-pass over raw
// Markdown source before it reaches the parser.
type DirectivePreprocessor interface {
	Process(source []byte) ([]byte, []string)
}

// Result is the page renderer's public output (§4.6).
type Result struct {
	HTML     string              `json:"html"`
	Title    string              `json:"title"`
	TOC      []entities.TOCEntry `json:"toc"`
	Warnings []string            `json:"warnings"`
}

// Config captures the renderer-config fingerprint inputs (§4.6): backend
// identity, GFM on/off, title extraction on/off, diagram server URL, DPI,
// include dirs, link-style options. Two Renderers built from equal Configs
// produce byte-identical output for the same source.
type Config struct {
	BackendIdentity  string
	GFM              bool
	TitleExtraction  bool
	DiagramServerURL string
	DPI              int
	IncludeDirs      []string
	RelativeLinks    bool
	TrailingSlash    bool
}

func (c Config) fingerprint() string {
	data, _ := json.Marshal(c)
	return string(data)
}

// New builds a page Renderer. cache may be nil to bypass caching entirely.
func New(storage usecases.Storage, cache usecases.Cache, markdown MarkdownRenderer, directives DirectivePreprocessor, cfg Config) *Renderer {
	return &Renderer{
		storage:           storage,
		cache:             cache,
		markdown:          markdown,
		directives:        directives,
		configFingerprint: cfg.fingerprint(),
	}
}

// Render implements §4.6's algorithm: fingerprint, cache lookup, else
// directive-preprocess + markdown-render + cache-store.
func (r *Renderer) Render(ctx context.Context, sourcePath, urlPath string) (*Result, error) {
	source, err := r.storage.Read(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	fingerprint := r.pageFingerprint(source)

	var bucket usecases.CacheBucket
	if r.cache != nil {
		bucket = r.cache.Bucket(cacheBucketName)
		if cached, ok := bucket.Get(fingerprint, ""); ok {
			var result Result
			if err := json.Unmarshal(cached, &result); err == nil {
				return &result, nil
			}
		}
	}

	preprocessed := source
	var directiveWarnings []string
	if r.directives != nil {
		preprocessed, directiveWarnings = r.directives.Process(source)
	}

	rendered, err := r.markdown.Render(ctx, preprocessed, urlPath)
	if err != nil {
		return nil, entities.NewError(entities.KindRender, "render "+sourcePath, err)
	}

	result := &Result{
		HTML:     rendered.HTML,
		Title:    rendered.Title,
		TOC:      rendered.TOC,
		Warnings: append(directiveWarnings, rendered.Warnings...),
	}

	if bucket != nil {
		if data, err := json.Marshal(result); err == nil {
			bucket.Set(fingerprint, "", data)
		}
	}
	return result, nil
}

// pageFingerprint computes SHA-256(source-bytes + renderer-config-fingerprint).
func (r *Renderer) pageFingerprint(source []byte) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte(r.configFingerprint))
	return hex.EncodeToString(h.Sum(nil))
}
