package livereload

import (
	"context"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// SiteInvalidator is the subset of internal/adapters/site.Service the
// coordinator depends on, kept narrow so it can be faked in tests.
type SiteInvalidator interface {
	Invalidate()
	Current() *entities.Site
	Rebuild(ctx context.Context) error
}

// Coordinator subscribes to a Storage watch stream, classifies each event
// per §4.9's table, invalidates the site snapshot when structure changes,
// and broadcasts Content/Structure events to Hub subscribers.
type Coordinator struct {
	storage usecases.Storage
	site    SiteInvalidator
	hub     *Hub
}

// New builds a Coordinator.
func New(storage usecases.Storage, site SiteInvalidator, hub *Hub) *Coordinator {
	return &Coordinator{storage: storage, site: site, hub: hub}
}

// Run subscribes to storage.Watch and classifies events until ctx is
// canceled. It blocks; call it in its own goroutine.
func (c *Coordinator) Run(ctx context.Context) error {
	events, release, err := c.storage.Watch(ctx)
	if err != nil {
		return err
	}
	defer release()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ctx, ev)
		}
	}
}

// handle implements the §4.9 classification table.
func (c *Coordinator) handle(ctx context.Context, ev usecases.WatchEvent) {
	switch ev.Kind {
	case usecases.WatchModified:
		c.handleModified(ctx, ev)
	case usecases.WatchRemoved:
		c.handleRemoved(ctx, ev)
	case usecases.WatchCreated:
		c.handleCreated(ctx, ev)
	}
}

func (c *Coordinator) handleModified(ctx context.Context, ev usecases.WatchEvent) {
	snapshot := c.site.Current()
	page, known := lookupBySource(snapshot, ev.Path)
	if !known {
		return // Modified on unknown page: ignored.
	}
	c.hub.Broadcast(Event{Type: EventContent, Path: httpPath(page.URLPath)})

	if ev.NewTitle == "" || ev.NewTitle == page.Title {
		return
	}
	c.site.Invalidate()
	_ = c.site.Rebuild(ctx)
	c.hub.Broadcast(Event{Type: EventStructure, Path: httpPath(page.URLPath)})
}

func (c *Coordinator) handleRemoved(ctx context.Context, ev usecases.WatchEvent) {
	page, known := lookupBySource(c.site.Current(), ev.Path)
	if !known {
		return
	}
	c.site.Invalidate()
	_ = c.site.Rebuild(ctx)
	c.hub.Broadcast(Event{Type: EventStructure, Path: httpPath(page.URLPath)})
}

func (c *Coordinator) handleCreated(ctx context.Context, ev usecases.WatchEvent) {
	c.site.Invalidate()
	_ = c.site.Rebuild(ctx)
	page, known := lookupBySource(c.site.Current(), ev.Path)
	if !known {
		return
	}
	c.hub.Broadcast(Event{Type: EventStructure, Path: httpPath(page.URLPath)})
}

func lookupBySource(snapshot *entities.Site, sourcePath string) (*entities.Page, bool) {
	if snapshot == nil {
		return nil, false
	}
	return snapshot.GetBySource(sourcePath)
}

func httpPath(urlPath string) string {
	if urlPath == "" {
		return "/"
	}
	return "/" + urlPath
}
