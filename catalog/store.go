// ABOUTME: Lock-free holder of the current catalog snapshot
// ABOUTME: Reloads are collapsed with singleflight and swapped in atomically

package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markalston/inference-capacity-planner/metrics"
)

// ErrNoSnapshot is returned before the first successful load
var ErrNoSnapshot = errors.New("catalog snapshot not loaded")

// Store publishes immutable snapshots to concurrent readers.
// Readers never block; a reload swaps the pointer only after validation.
type Store struct {
	source  Source
	current atomic.Pointer[Snapshot]
	sfGroup singleflight.Group
}

// NewStore creates a store backed by source. Call Reload to populate it.
func NewStore(source Source) *Store {
	return &Store{source: source}
}

// NewStaticStore wraps an already-loaded snapshot (tests and offline CLI)
func NewStaticStore(snap *Snapshot) *Store {
	s := &Store{source: staticSource{snap: snap}}
	if snap != nil {
		s.current.Store(snap)
	}
	return s
}

// Snapshot returns the current snapshot or nil before the first load
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Source describes where snapshots come from
func (s *Store) Source() string {
	return s.source.String()
}

// Reload loads a fresh snapshot and publishes it. Concurrent callers share one load.
// On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := s.sfGroup.Do("reload", func() (interface{}, error) {
		snap, err := s.source.Load(ctx)
		metrics.RecordCatalogReload(err)
		if err != nil {
			return nil, err
		}
		prev := s.current.Swap(snap)
		metrics.SetCatalog(snap.Version, s.source.String())
		if prev == nil || prev.Version != snap.Version {
			slog.Info("Catalog snapshot loaded",
				"version", snap.Version,
				"source", s.source.String(),
				"offerings", len(snap.Offerings))
		}
		return snap, nil
	})
	if err != nil {
		slog.Error("Catalog reload failed", "source", s.source.String(), "error", err)
		return nil, err
	}
	if shared {
		slog.Debug("Catalog reload shared with concurrent caller")
	}
	return v.(*Snapshot), nil
}

// StartRefresh reloads on a fixed interval until ctx is cancelled
func (s *Store) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.Reload(ctx)
			}
		}
	}()
}

type staticSource struct {
	snap *Snapshot
}

func (s staticSource) Load(_ context.Context) (*Snapshot, error) {
	if s.snap == nil {
		return nil, ErrNoSnapshot
	}
	return s.snap, nil
}

func (staticSource) String() string { return "static" }
