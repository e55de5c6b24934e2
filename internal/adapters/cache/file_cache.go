// Package cache provides a bucketed key/etag/bytes cache store (§4.2): a
// file-backed implementation with a process-version gate, and a null
// implementation for callers that disable caching.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rwdocs/docstage/internal/core/usecases"
)

const versionFileName = "VERSION"

// FileCache is a version-gated, directory-per-bucket cache. On Open, if
// VERSION is absent or does not match the supplied process version, the
// entire cache root is wiped and recreated — this is the cheapest way to
// avoid stale-schema corruption across upgrades, with no migration
// machinery required.
type FileCache struct {
	root    string
	version string
	mu      sync.Mutex
	buckets map[string]*fileBucket
}

var _ usecases.Cache = (*FileCache)(nil)

// Open creates or validates the cache root directory for the given process
// version, wiping it if stale, and writes a .gitignore so the directory
// never gets committed.
func Open(root, version string) (*FileCache, error) {
	fc := &FileCache{root: root, version: version, buckets: make(map[string]*fileBucket)}
	if err := fc.ensureVersion(); err != nil {
		return nil, err
	}
	return fc, nil
}

func (fc *FileCache) ensureVersion() error {
	versionPath := filepath.Join(fc.root, versionFileName)

	current, err := os.ReadFile(versionPath)
	stale := err != nil || string(current) != fc.version
	if stale {
		if err := os.RemoveAll(fc.root); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(fc.root, 0o755); err != nil {
		return err
	}
	if stale {
		if err := os.WriteFile(versionPath, []byte(fc.version), 0o644); err != nil {
			return err
		}
		gitignore := filepath.Join(fc.root, ".gitignore")
		_ = os.WriteFile(gitignore, []byte("*\n"), 0o644)
	}
	return nil
}

// Bucket returns (creating if necessary) the named cache bucket.
func (fc *FileCache) Bucket(name string) usecases.CacheBucket {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if b, ok := fc.buckets[name]; ok {
		return b
	}
	b := &fileBucket{dir: filepath.Join(fc.root, name)}
	fc.buckets[name] = b
	return b
}

type fileBucket struct {
	dir string
}

type entryEnvelope struct {
	ETag string `json:"etag"`
}

// Get implements §4.2: return bytes only when the stored etag equals the
// requested one; an empty requested etag bypasses the check entirely.
func (b *fileBucket) Get(key, etag string) ([]byte, bool) {
	metaPath, dataPath := b.paths(key)

	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, false
	}
	if etag == "" {
		return data, true
	}

	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, false
	}
	var meta entryEnvelope
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, false
	}
	if meta.ETag != etag {
		return nil, false
	}
	return data, true
}

// Set is best-effort: write failures are swallowed so caching never fails a
// user-visible operation.
func (b *fileBucket) Set(key, etag string, value []byte) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return
	}
	metaPath, dataPath := b.paths(key)
	_ = os.WriteFile(dataPath, value, 0o644)

	metaBytes, err := json.Marshal(entryEnvelope{ETag: etag})
	if err != nil {
		return
	}
	_ = os.WriteFile(metaPath, metaBytes, 0o644)
}

func (b *fileBucket) paths(key string) (metaPath, dataPath string) {
	safe := sanitizeKey(key)
	return filepath.Join(b.dir, safe+".meta.json"), filepath.Join(b.dir, safe+".bin")
}

// sanitizeKey replaces path separators so a cache key can never escape its
// bucket directory; keys are typically content hashes or url-paths already,
// so this only matters for url-path keys that contain "/".
func sanitizeKey(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '/' || c == '\\' || c == 0 {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	if len(out) == 0 {
		return "_root"
	}
	return string(out)
}
