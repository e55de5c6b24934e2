package site

import (
	"context"
	"sync/atomic"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// Service holds an atomically replaceable Site snapshot (§4.5 reload model):
// readers calling Current see a consistent view for the duration of a
// request, even while a rebuild is in flight on another goroutine.
type Service struct {
	storage  usecases.Storage
	snapshot atomic.Pointer[entities.Site]
	dirty    atomic.Bool
}

// New builds a Service and performs an initial scan + build.
func New(ctx context.Context, storage usecases.Storage) (*Service, error) {
	s := &Service{storage: storage}
	if err := s.Rebuild(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the live snapshot. It never blocks on a rebuild.
func (s *Service) Current() *entities.Site {
	return s.snapshot.Load()
}

// Invalidate marks the snapshot dirty; the next Rebuild (or RebuildIfDirty)
// replaces it.
func (s *Service) Invalidate() {
	s.dirty.Store(true)
}

// Dirty reports whether Invalidate was called since the last Rebuild.
func (s *Service) Dirty() bool {
	return s.dirty.Load()
}

// Rebuild re-scans storage and atomically publishes a new Site snapshot,
// unconditionally.
func (s *Service) Rebuild(ctx context.Context) error {
	docs, err := s.storage.Scan(ctx)
	if err != nil {
		return err
	}
	built, err := Build(ctx, docs, s.storage)
	if err != nil {
		return err
	}
	s.snapshot.Store(built)
	s.dirty.Store(false)
	return nil
}

// RebuildIfDirty rebuilds only when Invalidate was called since the last
// rebuild, returning false if nothing happened.
func (s *Service) RebuildIfDirty(ctx context.Context) (bool, error) {
	if !s.dirty.Load() {
		return false, nil
	}
	if err := s.Rebuild(ctx); err != nil {
		return false, err
	}
	return true, nil
}
