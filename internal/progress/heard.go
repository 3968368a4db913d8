package progress

import (
	"context"
	"errors"
	"sync"

	"github.com/metafates/gache"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/filesystem"
	applog "github.com/nadav-o/sipurim/internal/log"
)

// Mirror is the remote per-user listens table. All calls are best-effort:
// failures are logged and swallowed, and an absent session is a normal no-op.
type Mirror interface {
	InsertListen(ctx context.Context, storyID string) error
	DeleteListen(ctx context.Context, storyID string) error
	Listens(ctx context.Context) ([]string, error)
}

// HeardSet is the persisted set of story ids considered consumed, either by
// crossing the playback threshold, finishing, or explicit user toggle.
// Local mutations never wait on the mirror.
type HeardSet struct {
	mu     sync.Mutex
	ids    map[string]struct{}
	cacher *gache.Cache[[]string]
	mirror Mirror

	wg sync.WaitGroup
}

// NewHeardSet opens the set persisted at path. mirror may be nil.
func NewHeardSet(path string, mirror Mirror) *HeardSet {
	h := &HeardSet{
		ids:    make(map[string]struct{}),
		mirror: mirror,
		cacher: gache.New[[]string](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
	cached, expired, err := h.cacher.Get()
	if err != nil {
		applog.Warnf("heard set unreadable, starting empty: %v", err)
		return h
	}
	if !expired {
		for _, id := range cached {
			h.ids[id] = struct{}{}
		}
	}
	return h
}

// IsHeard reports whether a story is marked heard on this device.
func (h *HeardSet) IsHeard(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.ids[id]
	return ok
}

// Mark adds a story to the set, persists it, and fires the remote upsert in
// the background. Idempotent locally; the remote call runs either way so a
// mark made offline on another device still converges.
func (h *HeardSet) Mark(id string) {
	h.mu.Lock()
	if _, ok := h.ids[id]; !ok {
		h.ids[id] = struct{}{}
		h.persistLocked()
	}
	h.mu.Unlock()

	h.bestEffort(func(ctx context.Context) error {
		return h.mirror.InsertListen(ctx, id)
	})
}

// Unmark removes a story from the set and fires the remote delete.
func (h *HeardSet) Unmark(id string) {
	h.mu.Lock()
	if _, ok := h.ids[id]; ok {
		delete(h.ids, id)
		h.persistLocked()
	}
	h.mu.Unlock()

	h.bestEffort(func(ctx context.Context) error {
		return h.mirror.DeleteListen(ctx, id)
	})
}

// Toggle flips the heard state and returns the new state.
func (h *HeardSet) Toggle(id string) bool {
	if h.IsHeard(id) {
		h.Unmark(id)
		return false
	}
	h.Mark(id)
	return true
}

// IDs returns a snapshot of the heard story ids.
func (h *HeardSet) IDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.ids))
	for id := range h.ids {
		out = append(out, id)
	}
	return out
}

// MergeRemote unions the signed-in user's remote listens into the local set.
// Remote entries are only ever added, never subtracted. Called once at
// startup of listening sessions; an absent session merges nothing.
func (h *HeardSet) MergeRemote(ctx context.Context) error {
	if h.mirror == nil {
		return nil
	}
	ids, err := h.mirror.Listens(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrNoSession) {
			return nil
		}
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	changed := false
	for _, id := range ids {
		if _, ok := h.ids[id]; !ok {
			h.ids[id] = struct{}{}
			changed = true
		}
	}
	if changed {
		h.persistLocked()
	}
	return nil
}

// Flush waits for outstanding mirror calls. Used at shutdown and in tests.
func (h *HeardSet) Flush() {
	h.wg.Wait()
}

func (h *HeardSet) persistLocked() {
	ids := make([]string, 0, len(h.ids))
	for id := range h.ids {
		ids = append(ids, id)
	}
	if err := h.cacher.Set(ids); err != nil {
		applog.Warnf("persisting heard set: %v", err)
	}
}

func (h *HeardSet) bestEffort(call func(context.Context) error) {
	if h.mirror == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), catalog.DefaultTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			if errors.Is(err, catalog.ErrNoSession) {
				applog.Debug("heard mirror skipped: signed out")
				return
			}
			applog.Warnf("heard mirror failed: %v", err)
		}
	}()
}
