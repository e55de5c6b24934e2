package livereload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

type fakeSite struct {
	current      *entities.Site
	invalidated  bool
	rebuildCalls int
	rebuildFunc  func() *entities.Site
}

func (f *fakeSite) Invalidate() { f.invalidated = true }
func (f *fakeSite) Current() *entities.Site { return f.current }
func (f *fakeSite) Rebuild(ctx context.Context) error {
	f.rebuildCalls++
	if f.rebuildFunc != nil {
		f.current = f.rebuildFunc()
	}
	return nil
}

type fakeStorage struct {
	events chan usecases.WatchEvent
}

func (f *fakeStorage) Scan(ctx context.Context) ([]entities.Document, error) { return nil, nil }
func (f *fakeStorage) Read(ctx context.Context, sourcePath string) ([]byte, error) { return nil, nil }
func (f *fakeStorage) Exists(ctx context.Context, sourcePath string) bool { return false }
func (f *fakeStorage) Metadata(ctx context.Context, urlPath string) (entities.Metadata, error) {
	return entities.Metadata{}, nil
}
func (f *fakeStorage) Watch(ctx context.Context) (<-chan usecases.WatchEvent, func(), error) {
	return f.events, func() {}, nil
}

func siteWithPage(urlPath, sourcePath, title string) *entities.Site {
	root := &entities.Page{URLPath: ""}
	page := &entities.Page{URLPath: urlPath, SourcePath: sourcePath, Title: title, Parent: root}
	root.Children = []*entities.Page{page}
	return entities.NewSite(root, []*entities.Page{root, page})
}

func TestCoordinator_ModifiedSameTitleEmitsContentOnly(t *testing.T) {
	site := &fakeSite{current: siteWithPage("guide", "guide.md", "Guide")}
	hub := NewHub()
	sub := hub.subscribe()
	defer hub.unsubscribe(sub)

	c := New(&fakeStorage{}, site, hub)
	c.handleModified(context.Background(), usecases.WatchEvent{Path: "guide.md", Kind: usecases.WatchModified, NewTitle: "Guide"})

	ev := <-sub
	assert.Equal(t, EventContent, ev.Type)
	assert.Equal(t, "/guide", ev.Path)
	assert.False(t, site.invalidated)
	select {
	case <-sub:
		t.Fatal("expected no second event")
	default:
	}
}

func TestCoordinator_ModifiedDifferentTitleEmitsContentThenStructure(t *testing.T) {
	site := &fakeSite{current: siteWithPage("guide", "guide.md", "Guide")}
	hub := NewHub()
	sub := hub.subscribe()
	defer hub.unsubscribe(sub)

	c := New(&fakeStorage{}, site, hub)
	c.handleModified(context.Background(), usecases.WatchEvent{Path: "guide.md", Kind: usecases.WatchModified, NewTitle: "Guide v2"})

	ev1 := <-sub
	ev2 := <-sub
	assert.Equal(t, EventContent, ev1.Type)
	assert.Equal(t, EventStructure, ev2.Type)
	assert.True(t, site.invalidated)
	assert.Equal(t, 1, site.rebuildCalls)
}

func TestCoordinator_ModifiedUnknownPageIgnored(t *testing.T) {
	site := &fakeSite{current: siteWithPage("guide", "guide.md", "Guide")}
	hub := NewHub()
	sub := hub.subscribe()
	defer hub.unsubscribe(sub)

	c := New(&fakeStorage{}, site, hub)
	c.handleModified(context.Background(), usecases.WatchEvent{Path: "unknown.md", Kind: usecases.WatchModified, NewTitle: "X"})

	select {
	case <-sub:
		t.Fatal("expected no event for unknown page")
	default:
	}
}

func TestCoordinator_RemovedKnownPageInvalidatesAndEmitsStructure(t *testing.T) {
	site := &fakeSite{current: siteWithPage("guide", "guide.md", "Guide")}
	hub := NewHub()
	sub := hub.subscribe()
	defer hub.unsubscribe(sub)

	c := New(&fakeStorage{}, site, hub)
	c.handleRemoved(context.Background(), usecases.WatchEvent{Path: "guide.md", Kind: usecases.WatchRemoved})

	ev := <-sub
	assert.Equal(t, EventStructure, ev.Type)
	assert.Equal(t, "/guide", ev.Path)
	assert.True(t, site.invalidated)
}

func TestCoordinator_CreatedRebuildsThenResolvesPath(t *testing.T) {
	site := &fakeSite{current: siteWithPage("other", "other.md", "Other")}
	site.rebuildFunc = func() *entities.Site {
		return siteWithPage("new-page", "new.md", "New Page")
	}
	hub := NewHub()
	sub := hub.subscribe()
	defer hub.unsubscribe(sub)

	c := New(&fakeStorage{}, site, hub)
	c.handleCreated(context.Background(), usecases.WatchEvent{Path: "new.md", Kind: usecases.WatchCreated})

	ev := <-sub
	assert.Equal(t, EventStructure, ev.Type)
	assert.Equal(t, "/new-page", ev.Path)
	require.Equal(t, 1, site.rebuildCalls)
}
