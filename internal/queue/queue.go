// Package queue holds the ordered play queue and its index invariant:
// 0 <= index < len whenever the queue is non-empty. The queue is replaced
// wholesale on every new playback request; the only splice is the play-next
// insertion after the current index.
package queue

import "github.com/nadav-o/sipurim/internal/catalog"

// Queue is an ordered sequence of tracks plus the current index.
// It is only mutated from the single-threaded update loop.
type Queue struct {
	tracks []catalog.Track
	index  int
}

// New creates a queue positioned at start (clamped).
func New(tracks []catalog.Track, start int) *Queue {
	q := &Queue{}
	q.Replace(tracks, start)
	return q
}

// Replace swaps in a whole new track list and jumps to start (clamped).
func (q *Queue) Replace(tracks []catalog.Track, start int) {
	q.tracks = make([]catalog.Track, len(tracks))
	copy(q.tracks, tracks)
	q.index = clamp(start, len(q.tracks))
}

// Clear empties the queue and resets the index.
func (q *Queue) Clear() {
	q.tracks = nil
	q.index = 0
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Index returns the current position.
func (q *Queue) Index() int {
	return q.index
}

// Current returns the track at the current index, if any.
func (q *Queue) Current() (catalog.Track, bool) {
	if len(q.tracks) == 0 {
		return catalog.Track{}, false
	}
	return q.tracks[q.index], true
}

// Track returns the track at i.
func (q *Queue) Track(i int) (catalog.Track, bool) {
	if i < 0 || i >= len(q.tracks) {
		return catalog.Track{}, false
	}
	return q.tracks[i], true
}

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []catalog.Track {
	out := make([]catalog.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// Jump moves to index i, clamped into range. No-op on an empty queue.
func (q *Queue) Jump(i int) bool {
	if len(q.tracks) == 0 {
		return false
	}
	q.index = clamp(i, len(q.tracks))
	return true
}

// Advance moves forward one position, wrapping to the start at the end.
// Returns false on an empty queue.
func (q *Queue) Advance() bool {
	if len(q.tracks) == 0 {
		return false
	}
	q.index = (q.index + 1) % len(q.tracks)
	return true
}

// Retreat moves back one position, wrapping to the end at the start.
// Returns false on an empty queue.
func (q *Queue) Retreat() bool {
	if len(q.tracks) == 0 {
		return false
	}
	q.index = (q.index - 1 + len(q.tracks)) % len(q.tracks)
	return true
}

// InsertAfterCurrent splices one track in immediately after the current
// index, without disturbing the current position.
func (q *Queue) InsertAfterCurrent(t catalog.Track) {
	if len(q.tracks) == 0 {
		q.tracks = []catalog.Track{t}
		q.index = 0
		return
	}
	at := q.index + 1
	q.tracks = append(q.tracks[:at], append([]catalog.Track{t}, q.tracks[at:]...)...)
}

func clamp(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
