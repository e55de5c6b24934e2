// Package storage implements the Storage port (§4.1) over a local directory
// tree of Markdown sources and YAML sidecar metadata files.
package storage

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

const defaultSidecarName = "_meta.yaml"

var defaultIgnoredDirs = map[string]struct{}{
	".git":          {},
	"node_modules":  {},
	".venv":         {},
	"venv":          {},
	"__pycache__":   {},
	".pytest_cache": {},
	"dist":          {},
	"build":         {},
	"target":        {},
}

// FileStorage is a Storage backed by a local directory tree.
type FileStorage struct {
	root        string
	sidecarName string
	ignoreDirs  map[string]struct{}
}

var _ usecases.Storage = (*FileStorage)(nil)

// New creates a FileStorage rooted at root. An empty sidecarName falls back
// to "_meta.yaml".
func New(root, sidecarName string) *FileStorage {
	if sidecarName == "" {
		sidecarName = defaultSidecarName
	}
	return &FileStorage{root: root, sidecarName: sidecarName, ignoreDirs: defaultIgnoredDirs}
}

type dirInfo struct {
	hasIndex    bool
	hasChildren bool
}

// Scan walks the source tree and yields one Document per Markdown source,
// plus a synthetic directory-index Document for any directory that has
// children but no own index source. I/O and metadata errors are attached to
// the affected Document rather than aborting the scan.
func (s *FileStorage) Scan(ctx context.Context) ([]entities.Document, error) {
	dirs := map[string]*dirInfo{"": {}}
	var docs []entities.Document

	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}

		name := d.Name()
		if rel != "" && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel != "" {
				if _, ignored := s.ignoreDirs[name]; ignored {
					return filepath.SkipDir
				}
			}
			if _, ok := dirs[rel]; !ok {
				dirs[rel] = &dirInfo{}
			}
			return nil
		}

		if name == s.sidecarName {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), ".md") {
			return nil
		}

		parentDir := parentOf(rel)
		if pd, ok := dirs[parentDir]; ok {
			pd.hasChildren = true
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		isIndex := strings.EqualFold(stem, "index")

		var urlPath string
		if isIndex {
			urlPath = parentDir
			if _, ok := dirs[parentDir]; !ok {
				dirs[parentDir] = &dirInfo{}
			}
			dirs[parentDir].hasIndex = true
		} else {
			urlPath = strings.TrimSuffix(rel, filepath.Ext(rel))
		}

		docs = append(docs, s.documentFor(ctx, urlPath, rel, false))
		return nil
	})
	if walkErr != nil {
		return nil, entities.NewError(entities.KindIO, "scan source tree", walkErr)
	}

	for dirPath := range dirs {
		if dirPath == "" {
			continue
		}
		parentDir := parentOf(dirPath)
		if pd, ok := dirs[parentDir]; ok {
			pd.hasChildren = true
		}
	}

	for dirPath, info := range dirs {
		if !info.hasIndex && info.hasChildren {
			docs = append(docs, s.documentFor(ctx, dirPath, "", true))
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].URLPath < docs[j].URLPath })
	return docs, nil
}

func (s *FileStorage) documentFor(ctx context.Context, urlPath, sourcePath string, synthetic bool) entities.Document {
	doc := entities.Document{URLPath: urlPath, SourcePath: sourcePath, Synthetic: synthetic}
	meta, err := s.Metadata(ctx, urlPath)
	if err != nil {
		doc.ParseError = err
		return doc
	}
	doc.Title = meta.Title
	doc.Description = meta.Description
	doc.PageType = meta.PageType
	doc.Vars = meta.Vars
	return doc
}

func parentOf(relPath string) string {
	idx := strings.LastIndex(relPath, "/")
	if idx < 0 {
		return ""
	}
	return relPath[:idx]
}

// Read returns the raw bytes of sourcePath.
func (s *FileStorage) Read(ctx context.Context, sourcePath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(sourcePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, entities.NewError(entities.KindFileNotFound, sourcePath, err)
		}
		return nil, entities.NewError(entities.KindIO, "read source file", err)
	}
	return data, nil
}

// Exists reports whether sourcePath is present on disk.
func (s *FileStorage) Exists(ctx context.Context, sourcePath string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(sourcePath)))
	return err == nil
}

// Metadata resolves inherited sidecar metadata for urlPath by walking the
// ancestor-directory chain from root down, merging each level's sidecar per
// the inheritance rule (§3): vars deep-merged with deeper levels overriding;
// title/description/page_type come only from the last, most-specific
// sidecar in the chain and are never inherited from an ancestor.
func (s *FileStorage) Metadata(ctx context.Context, urlPath string) (entities.Metadata, error) {
	merged := entities.Metadata{}
	for _, dir := range s.metadataChain(urlPath) {
		raw, err := s.readSidecar(dir)
		if err != nil {
			return entities.Metadata{}, entities.NewError(entities.KindIO, "read sidecar metadata for "+dir, err)
		}
		merged = entities.MergeChild(merged, raw)
	}
	return merged, nil
}

// metadataChain returns the ancestor directories to merge, root first. When
// urlPath itself names a directory (an index page), its own directory is
// the final, most-specific link in the chain; otherwise the chain stops at
// its containing directory, since only directories carry sidecars.
func (s *FileStorage) metadataChain(urlPath string) []string {
	if urlPath == "" {
		return []string{""}
	}
	parts := strings.Split(urlPath, "/")
	last := len(parts)
	if !s.isDirectoryURLPath(urlPath) {
		last--
	}
	dirs := make([]string, 0, last+1)
	dirs = append(dirs, "")
	for i := 0; i < last; i++ {
		dirs = append(dirs, strings.Join(parts[:i+1], "/"))
	}
	return dirs
}

func (s *FileStorage) isDirectoryURLPath(urlPath string) bool {
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(urlPath)))
	return err == nil && info.IsDir()
}

func (s *FileStorage) readSidecar(dirURLPath string) (entities.RawMetadata, error) {
	path := filepath.Join(s.root, filepath.FromSlash(dirURLPath), s.sidecarName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entities.RawMetadata{}, nil
		}
		return entities.RawMetadata{}, err
	}
	var raw entities.RawMetadata
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entities.RawMetadata{}, err
	}
	return raw, nil
}

// Watch starts a filesystem watch rooted at s.root, debouncing rapid
// successive events per path by 100ms (mirroring teacher fsnotify usage).
// The returned func stops and drains the watcher; calling it more than once
// is safe.
func (s *FileStorage) Watch(ctx context.Context) (<-chan usecases.WatchEvent, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, entities.NewError(entities.KindIO, "create filesystem watcher", err)
	}
	if err := s.addRecursive(w); err != nil {
		_ = w.Close()
		return nil, nil, entities.NewError(entities.KindIO, "watch source tree", err)
	}

	events := make(chan usecases.WatchEvent, 16)
	done := make(chan struct{})
	var closeOnce sync.Once

	go s.processWatchEvents(ctx, w, events, done)

	release := func() {
		closeOnce.Do(func() {
			close(done)
			_ = w.Close()
		})
	}
	return events, release, nil
}

func (s *FileStorage) addRecursive(w *fsnotify.Watcher) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}
		if s.shouldIgnoreDir(rel) {
			return filepath.SkipDir
		}
		_ = w.Add(path)
		return nil
	})
}

func (s *FileStorage) shouldIgnoreDir(rel string) bool {
	if rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
		if _, ignored := s.ignoreDirs[part]; ignored {
			return true
		}
	}
	return false
}

func (s *FileStorage) isMarkdownOrSidecar(absPath string) bool {
	name := filepath.Base(absPath)
	if name == s.sidecarName {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".md")
}

func (s *FileStorage) processWatchEvents(ctx context.Context, w *fsnotify.Watcher, out chan<- usecases.WatchEvent, done chan struct{}) {
	defer close(out)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := make(map[string]fsnotify.Op)

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
				if ev.Op&fsnotify.Create != 0 {
					rel, relErr := filepath.Rel(s.root, ev.Name)
					if relErr == nil && !s.shouldIgnoreDir(filepath.ToSlash(rel)) {
						_ = w.Add(ev.Name)
					}
				}
				continue
			}
			if !s.isMarkdownOrSidecar(ev.Name) {
				continue
			}
			rel, relErr := filepath.Rel(s.root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			pending[rel] |= ev.Op
			debounce.Reset(100 * time.Millisecond)

		case <-debounce.C:
			for rel, op := range pending {
				event, ok := s.classifyOp(rel, op)
				if !ok {
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
			pending = make(map[string]fsnotify.Op)

		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *FileStorage) classifyOp(sourcePath string, op fsnotify.Op) (usecases.WatchEvent, bool) {
	switch {
	case op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0:
		return usecases.WatchEvent{Path: sourcePath, Kind: usecases.WatchRemoved}, true
	case op&fsnotify.Create != 0:
		return usecases.WatchEvent{Path: sourcePath, Kind: usecases.WatchCreated}, true
	case op&fsnotify.Write != 0:
		return usecases.WatchEvent{Path: sourcePath, Kind: usecases.WatchModified, NewTitle: s.sniffTitle(sourcePath)}, true
	default:
		return usecases.WatchEvent{}, false
	}
}

func (s *FileStorage) sniffTitle(sourcePath string) string {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(sourcePath)))
	if err != nil {
		return ""
	}
	return extractFirstHeading(data)
}

// extractFirstHeading does a lightweight scan for the first ATX H1, without
// invoking the full Markdown renderer — good enough to classify a live-reload
// event as content-only vs title-changing.
func extractFirstHeading(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "#" {
			return ""
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}
