// Package usecases defines the ports the core pipeline depends on, and the
// orchestration that wires adapters together. Pure interfaces live here;
// implementations live under internal/adapters/*.
package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/rwdocs/docstage/internal/core/entities"
)

// Storage enumerates, reads, and watches a tree of Markdown sources, and
// resolves inherited page metadata (§4.1).
type Storage interface {
	Scan(ctx context.Context) ([]entities.Document, error)
	Read(ctx context.Context, sourcePath string) ([]byte, error)
	Exists(ctx context.Context, sourcePath string) bool
	Metadata(ctx context.Context, urlPath string) (entities.Metadata, error)
	Watch(ctx context.Context) (<-chan WatchEvent, func(), error)
}

// WatchEventKind is the storage-level change classification (§4.1).
type WatchEventKind string

const (
	WatchCreated  WatchEventKind = "created"
	WatchRemoved  WatchEventKind = "removed"
	WatchModified WatchEventKind = "modified"
)

// WatchEvent is one filesystem change, with the re-extracted title for
// Modified events so the live-reload coordinator can classify content vs
// structure changes.
type WatchEvent struct {
	Path     string
	Kind     WatchEventKind
	NewTitle string // populated only for WatchModified
}

// CacheBucket is a key/etag/bytes store (§4.2). get returns bytes only when
// the stored etag equals the supplied etag; an empty etag bypasses the
// check.
type CacheBucket interface {
	Get(key, etag string) ([]byte, bool)
	Set(key, etag string, value []byte)
}

// Cache is a factory for named CacheBuckets.
type Cache interface {
	Bucket(name string) CacheBucket
}

// Logger is the structured logging port (§ AMBIENT STACK).
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, err error, keysAndValues ...any)
	WithContext(ctx context.Context) Logger
	WithFields(keysAndValues ...any) Logger
}

// RenderBackend abstracts the differences between the HTML and Confluence
// XHTML output dialects (§4.3 table).
type RenderBackend interface {
	// TitleAsMetadata reports whether the first H1 is suppressed from output
	// and heading levels are shifted up by one.
	TitleAsMetadata() bool
	CodeBlock(lang, content string, out *strings.Builder)
	BlockquoteStart(out *strings.Builder)
	BlockquoteEnd(out *strings.Builder)
	Image(src, alt, title string, out *strings.Builder)
	TransformLink(url, base string) string
	HardBreak(out *strings.Builder)
	HorizontalRule(out *strings.Builder)
	TaskListMarker(checked bool, out *strings.Builder)
}

// CodeBlockProcessor may claim ownership of a fenced code block by language
// tag, producing a placeholder now and a final replacement in a later
// single-pass post-processing step (§4.3).
type CodeBlockProcessor interface {
	// Handles reports whether this processor claims fenced blocks tagged lang.
	Handles(lang string) bool
	// Extract registers a claimed block and returns its extracted-block
	// record; the renderer assigns the zero-based index.
	Extract(lang, content string, index int) entities.ExtractedBlock
	// PostProcess runs once per render after the full output is assembled,
	// returning literal placeholder->replacement substitutions.
	PostProcess(ctx context.Context, rendered string, blocks []entities.ExtractedBlock) (map[string]string, []string, error)
}

// DiagramRenderClient renders preprocessed diagram source via a remote
// diagram service (§4.4).
type DiagramRenderClient interface {
	Render(ctx context.Context, endpoint string, format entities.DiagramFormat, source string, timeout time.Duration) ([]byte, error)
}

// ProgressReporter communicates build/publish progress to the CLI (§ AMBIENT).
type ProgressReporter interface {
	ReportInfo(message string)
	ReportSuccess(message string)
	ReportError(err error)
}
