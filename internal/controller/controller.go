// Package controller owns playback session state: the queue, what is
// playing, saved positions, and heard marks. It issues load requests instead
// of touching audio files itself, so the UI can fetch audio asynchronously
// and report back; every request carries a generation number and late
// completions for superseded requests are discarded.
package controller

import (
	"time"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/log"
	"github.com/nadav-o/sipurim/internal/progress"
	"github.com/nadav-o/sipurim/internal/queue"
)

// HeardThreshold is the fraction of a track that counts as having heard it.
const HeardThreshold = 0.8

// State describes what the controller believes the engine is doing.
type State int

const (
	// Idle means no track is active.
	Idle State = iota
	// Loading means a load request is outstanding.
	Loading
	// Playing means audio is running.
	Playing
	// Paused means a track is active but halted.
	Paused
	// Blocked means the last load or start failed. The track stays current
	// so the listener can see it and retry.
	Blocked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Blocked:
		return "blocked"
	}
	return "unknown"
}

// Engine is the audio output the controller drives. *player.Player
// implements it.
type Engine interface {
	Load(path string) error
	Play()
	Pause()
	TogglePause()
	Paused() bool
	SeekTo(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration
	Done() <-chan struct{}
	Stop()
}

// Load asks the caller to fetch audio for a track and hand it to the engine.
// Gen identifies the request; completions carrying a stale Gen are ignored.
type Load struct {
	Track catalog.Track
	Gen   int
}

// Marker records heard state. *progress.HeardSet implements it.
type Marker interface {
	Mark(id string)
	IsHeard(id string) bool
}

// Controller coordinates the queue, the progress store and the engine.
type Controller struct {
	engine Engine
	store  *progress.Store
	heard  Marker

	queue *queue.Queue
	state State
	gen   int

	// markedThisPass guards the 80% heard mark so one continuous listen
	// marks at most once. Cleared when the queue is replaced.
	markedThisPass map[string]bool
}

// New wires a controller over an engine and the persistent listening state.
func New(engine Engine, store *progress.Store, heard Marker) *Controller {
	return &Controller{
		engine:         engine,
		store:          store,
		heard:          heard,
		queue:          queue.New(nil, 0),
		markedThisPass: make(map[string]bool),
	}
}

// PlayQueue replaces the whole queue and starts at index start. Returns the
// load request for the selected track; ok is false when tracks is empty.
func (c *Controller) PlayQueue(tracks []catalog.Track, start int) (Load, bool) {
	c.queue.Replace(tracks, start)
	c.markedThisPass = make(map[string]bool)
	return c.loadCurrent()
}

// PlayTrack makes the track the whole queue and starts it.
func (c *Controller) PlayTrack(track catalog.Track) (Load, bool) {
	return c.PlayQueue([]catalog.Track{track}, 0)
}

// PlayIndex jumps to the queue slot at i, clamped into range.
func (c *Controller) PlayIndex(i int) (Load, bool) {
	if !c.queue.Jump(i) {
		return Load{}, false
	}
	return c.loadCurrent()
}

// PlayNextInQueue slots the track right after the current one without
// interrupting playback. On an empty queue it becomes the whole queue and a
// load is returned.
func (c *Controller) PlayNextInQueue(track catalog.Track) (Load, bool) {
	wasEmpty := c.queue.Len() == 0
	c.queue.InsertAfterCurrent(track)
	if wasEmpty {
		return c.loadCurrent()
	}
	return Load{}, false
}

// Next advances to the following track, wrapping at the end.
func (c *Controller) Next() (Load, bool) {
	if !c.queue.Advance() {
		return Load{}, false
	}
	return c.loadCurrent()
}

// Prev moves to the preceding track, wrapping at the start.
func (c *Controller) Prev() (Load, bool) {
	if !c.queue.Retreat() {
		return Load{}, false
	}
	return c.loadCurrent()
}

func (c *Controller) loadCurrent() (Load, bool) {
	track, ok := c.queue.Current()
	if !ok {
		return Load{}, false
	}
	c.engine.Stop()
	c.gen++
	c.state = Loading
	return Load{Track: track, Gen: c.gen}, true
}

// StartLoaded reports that the audio for a load request is in the engine.
// The track starts from its saved position unless it was effectively
// finished, in which case it starts over. Stale generations are dropped.
func (c *Controller) StartLoaded(gen int) bool {
	if gen != c.gen {
		log.Debugf("dropping stale load completion (gen %d, current %d)", gen, c.gen)
		return false
	}

	track, ok := c.queue.Current()
	if !ok {
		return false
	}

	if resume := c.store.ResumePosition(track.ID); resume > 0 {
		c.engine.SeekTo(resume)
	}
	c.engine.Play()
	c.state = Playing
	return true
}

// LoadFailed reports that fetching or starting a load request failed. The
// session enters Blocked but keeps the track current for a retry.
func (c *Controller) LoadFailed(gen int, err error) bool {
	if gen != c.gen {
		return false
	}
	log.Warnf("playback start failed: %v", err)
	c.state = Blocked
	return true
}

// Toggle flips play/pause. From Blocked it reissues the load for the current
// track instead; the returned request is valid when ok is true.
func (c *Controller) Toggle() (Load, bool) {
	switch c.state {
	case Playing:
		c.engine.Pause()
		c.state = Paused
	case Paused:
		c.engine.Play()
		c.state = Playing
	case Blocked:
		return c.loadCurrent()
	}
	return Load{}, false
}

// Pause halts a running session.
func (c *Controller) Pause() {
	if c.state != Playing {
		return
	}
	c.engine.Pause()
	c.state = Paused
}

// Resume restarts a paused session.
func (c *Controller) Resume() {
	if c.state != Paused {
		return
	}
	c.engine.Play()
	c.state = Playing
}

// SeekTo jumps within the current track and records the new position.
func (c *Controller) SeekTo(pos time.Duration) {
	if c.state != Playing && c.state != Paused {
		return
	}
	c.engine.SeekTo(pos)
	if track, ok := c.queue.Current(); ok {
		c.store.Set(track.ID, c.engine.Position(), c.engine.Duration())
	}
}

// SeekBy moves by delta within the current track.
func (c *Controller) SeekBy(delta time.Duration) {
	c.SeekTo(c.engine.Position() + delta)
}

// Tick persists the playback position and applies the heard threshold. Call
// it on a steady interval while a session is active. Marking fires once per
// pass even if the listener scrubs back and forth over the threshold.
func (c *Controller) Tick() {
	if c.state != Playing {
		return
	}
	track, ok := c.queue.Current()
	if !ok {
		return
	}

	pos, dur := c.engine.Position(), c.engine.Duration()
	if dur <= 0 {
		return
	}
	c.store.Set(track.ID, pos, dur)

	if pos.Seconds()/dur.Seconds() >= HeardThreshold && !c.markedThisPass[track.ID] {
		c.markedThisPass[track.ID] = true
		c.heard.Mark(track.ID)
	}
}

// HandleEnded reacts to a track playing to its natural end: the track is
// marked heard regardless of the threshold, its position saved as complete,
// and the queue advances with wraparound. A single-track queue replays
// itself. Ends reported for a superseded generation are ignored.
func (c *Controller) HandleEnded(gen int) (Load, bool) {
	if gen != c.gen {
		log.Debugf("dropping stale end event (gen %d, current %d)", gen, c.gen)
		return Load{}, false
	}

	track, ok := c.queue.Current()
	if !ok {
		return Load{}, false
	}

	c.heard.Mark(track.ID)
	if dur := c.engine.Duration(); dur > 0 {
		c.store.Set(track.ID, dur, dur)
	}

	return c.Next()
}

// ClosePlayer ends the session: the engine stops and the queue empties.
// Saved positions and heard marks stay; this is the only operation that
// forgets what was playing.
func (c *Controller) ClosePlayer() {
	c.engine.Stop()
	c.queue.Clear()
	c.gen++
	c.state = Idle
}

// GetProgress returns the saved playback entry for a track on this device.
func (c *Controller) GetProgress(id string) (progress.Entry, bool) {
	return c.store.Get(id)
}

// Current returns the active track.
func (c *Controller) Current() (catalog.Track, bool) {
	return c.queue.Current()
}

// Tracks returns the queue contents in order.
func (c *Controller) Tracks() []catalog.Track {
	return c.queue.Tracks()
}

// Index returns the current queue position.
func (c *Controller) Index() int {
	return c.queue.Index()
}

// State returns the session state.
func (c *Controller) State() State {
	return c.state
}

// Gen returns the current load generation for tagging async work.
func (c *Controller) Gen() int {
	return c.gen
}

// Position returns the engine position.
func (c *Controller) Position() time.Duration {
	return c.engine.Position()
}

// Duration returns the engine duration.
func (c *Controller) Duration() time.Duration {
	return c.engine.Duration()
}
