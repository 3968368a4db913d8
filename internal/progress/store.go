// Package progress persists per-track playback state: the position map that
// backs resume-on-replay, and the heard set with its best-effort remote
// mirror. Local state is authoritative; the remote mirror is a convenience.
package progress

import (
	"time"

	"github.com/metafates/gache"

	"github.com/nadav-o/sipurim/internal/filesystem"
	applog "github.com/nadav-o/sipurim/internal/log"
)

// FinishSlack treats a position within 2 seconds of the end as finished.
const FinishSlack = 2.0

// Entry records how far a track was played on this device.
type Entry struct {
	Pos       float64 `json:"pos"`
	Dur       float64 `json:"dur"`
	UpdatedAt int64   `json:"updatedAt"`
}

// Finished reports whether the entry is effectively complete.
func (e Entry) Finished() bool {
	return e.Dur > 0 && e.Pos >= e.Dur-FinishSlack
}

// Store is the persisted track-id → Entry map. Writes go through to disk on
// every Set; reads come from the in-memory copy. Entries are overwritten
// wholesale (last write wins) and never deleted within a session.
type Store struct {
	entries map[string]Entry
	cacher  *gache.Cache[map[string]Entry]
	now     func() time.Time
}

// NewStore opens the store persisted at path. Read or parse failures leave
// an empty store; cold start is always a valid state.
func NewStore(path string) *Store {
	s := &Store{
		cacher: gache.New[map[string]Entry](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
		now: time.Now,
	}
	cached, expired, err := s.cacher.Get()
	if err != nil || expired || cached == nil {
		if err != nil {
			applog.Warnf("progress store unreadable, starting empty: %v", err)
		}
		s.entries = make(map[string]Entry)
		return s
	}
	s.entries = cached
	return s
}

// Get returns the saved entry for a track, if it was ever played here.
func (s *Store) Get(id string) (Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Set overwrites the entry for a track and writes the map through to disk.
func (s *Store) Set(id string, pos, dur time.Duration) {
	s.entries[id] = Entry{
		Pos:       pos.Seconds(),
		Dur:       dur.Seconds(),
		UpdatedAt: s.now().UnixMilli(),
	}
	if err := s.cacher.Set(s.entries); err != nil {
		applog.Warnf("persisting progress: %v", err)
	}
}

// Finished reports whether a track was played to (near) completion here.
func (s *Store) Finished(id string) bool {
	e, ok := s.entries[id]
	return ok && e.Finished()
}

// ResumePosition returns where playback of a track should start: the saved
// position when one exists and is not near the end, otherwise zero.
func (s *Store) ResumePosition(id string) time.Duration {
	e, ok := s.entries[id]
	if !ok || e.Pos <= 0 || e.Finished() {
		return 0
	}
	return time.Duration(e.Pos * float64(time.Second))
}
