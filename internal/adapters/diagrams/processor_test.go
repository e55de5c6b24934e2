package diagrams

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

type fakeRenderClient struct {
	mu    sync.Mutex
	calls int
	fail  bool
	body  []byte
}

func (f *fakeRenderClient) Render(ctx context.Context, endpoint string, format entities.DiagramFormat, source string, timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, entities.NewError(entities.KindHTTPRequest, "render failed", nil)
	}
	return f.body, nil
}

type memBucket struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (b *memBucket) Get(key, etag string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.items[key]
	return v, ok
}

func (b *memBucket) Set(key, etag string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.items == nil {
		b.items = map[string][]byte{}
	}
	b.items[key] = value
}

type memCache struct {
	buckets map[string]*memBucket
}

func newMemCache() *memCache {
	return &memCache{buckets: map[string]*memBucket{}}
}

func (c *memCache) Bucket(name string) usecases.CacheBucket {
	b, ok := c.buckets[name]
	if !ok {
		b = &memBucket{}
		c.buckets[name] = b
	}
	return b
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_HandlesDiagramLanguagesOnly(t *testing.T) {
	p := New(&fakeRenderClient{}, nil, HTMLDialect{}, Options{})
	assert.True(t, p.Handles("plantuml"))
	assert.True(t, p.Handles("mermaid"))
	assert.False(t, p.Handles("go"))
}

func TestProcessor_RendersAndEmbedsPNG(t *testing.T) {
	client := &fakeRenderClient{body: tinyPNG(t)}
	cache := newMemCache()
	p := New(client, cache, HTMLDialect{AssetsPath: "/assets/diagrams"}, Options{DPI: 96})

	block := p.Extract("plantuml", "@startuml\nA -> B\n@enduml", 0)
	repl, warnings, err := p.PostProcess(context.Background(), "{{PLACEHOLDER_0}}", []entities.ExtractedBlock{block})

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Contains(t, repl["{{PLACEHOLDER_0}}"], "<img")
	assert.Equal(t, 1, client.calls)
}

func TestProcessor_CacheHitSkipsRenderCall(t *testing.T) {
	client := &fakeRenderClient{body: tinyPNG(t)}
	cache := newMemCache()
	p := New(client, cache, HTMLDialect{}, Options{DPI: 96})

	block := p.Extract("plantuml", "@startuml\nA -> B\n@enduml", 0)
	_, _, err := p.PostProcess(context.Background(), "", []entities.ExtractedBlock{block})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)

	_, _, err = p.PostProcess(context.Background(), "", []entities.ExtractedBlock{block})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls, "second call should be served from cache")
}

func TestProcessor_RenderFailureEmitsWarningAndErrorTag(t *testing.T) {
	client := &fakeRenderClient{fail: true}
	p := New(client, nil, HTMLDialect{}, Options{DPI: 96})

	block := p.Extract("mermaid", "graph TD\nA-->B", 0)
	repl, warnings, err := p.PostProcess(context.Background(), "", []entities.ExtractedBlock{block})

	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, repl["{{PLACEHOLDER_0}}"], "diagram-error")
}

func TestProcessor_NoBlocksReturnsEmpty(t *testing.T) {
	p := New(&fakeRenderClient{}, nil, HTMLDialect{}, Options{})
	repl, warnings, err := p.PostProcess(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, repl)
}
