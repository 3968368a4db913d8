package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/filesystem"
	"github.com/nadav-o/sipurim/internal/progress"
)

type fakeEngine struct {
	pos     time.Duration
	dur     time.Duration
	playing bool
	seeks   []time.Duration
	stops   int
}

func (e *fakeEngine) Load(string) error { return nil }
func (e *fakeEngine) Play()             { e.playing = true }
func (e *fakeEngine) Pause()            { e.playing = false }
func (e *fakeEngine) TogglePause()      { e.playing = !e.playing }
func (e *fakeEngine) Paused() bool      { return !e.playing }
func (e *fakeEngine) SeekTo(pos time.Duration) {
	e.seeks = append(e.seeks, pos)
	e.pos = pos
}
func (e *fakeEngine) Position() time.Duration { return e.pos }
func (e *fakeEngine) Duration() time.Duration { return e.dur }
func (e *fakeEngine) Done() <-chan struct{}   { return nil }
func (e *fakeEngine) Stop() {
	e.stops++
	e.playing = false
	e.pos = 0
}

type fakeMarker struct {
	marks []string
}

func (m *fakeMarker) Mark(id string)         { m.marks = append(m.marks, id) }
func (m *fakeMarker) IsHeard(id string) bool { return false }

func track(id string) catalog.Track {
	return catalog.Track{ID: id, Title: id, AudioURL: "https://cdn/" + id + ".mp3"}
}

func newTestController(t *testing.T) (*Controller, *fakeEngine, *fakeMarker, *progress.Store) {
	t.Helper()
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)

	engine := &fakeEngine{dur: 120 * time.Second}
	store := progress.NewStore("/state/playstate.json")
	marker := &fakeMarker{}
	return New(engine, store, marker), engine, marker, store
}

func TestPlayQueueResumesFromSavedPosition(t *testing.T) {
	c, engine, _, store := newTestController(t)
	store.Set("a", 30*time.Second, 120*time.Second)

	load, ok := c.PlayQueue([]catalog.Track{track("a"), track("b")}, 0)
	if !ok || load.Track.ID != "a" {
		t.Fatalf("PlayQueue = (%+v, %v), want load for a", load, ok)
	}
	if c.State() != Loading {
		t.Fatalf("state = %v, want loading", c.State())
	}

	if !c.StartLoaded(load.Gen) {
		t.Fatal("StartLoaded with current gen should apply")
	}
	if len(engine.seeks) != 1 || engine.seeks[0] != 30*time.Second {
		t.Fatalf("seeks = %v, want one seek to 30s", engine.seeks)
	}
	if c.State() != Playing || !engine.playing {
		t.Fatal("expected playback running after StartLoaded")
	}
}

func TestFinishedTrackStartsOver(t *testing.T) {
	c, engine, _, store := newTestController(t)
	// 119 of 120 seconds is within the finish slack.
	store.Set("a", 119*time.Second, 120*time.Second)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)

	if len(engine.seeks) != 0 {
		t.Fatalf("finished track should start at zero, got seeks %v", engine.seeks)
	}
}

func TestStaleLoadCompletionDiscarded(t *testing.T) {
	c, engine, _, _ := newTestController(t)

	first, _ := c.PlayQueue([]catalog.Track{track("a"), track("b")}, 0)
	second, ok := c.Next()
	if !ok || second.Gen == first.Gen {
		t.Fatalf("Next should issue a fresh generation, got %+v", second)
	}

	if c.StartLoaded(first.Gen) {
		t.Fatal("stale completion must be discarded")
	}
	if engine.playing {
		t.Fatal("stale completion must not start the engine")
	}

	if !c.StartLoaded(second.Gen) {
		t.Fatal("current completion should apply")
	}
}

func TestTickMarksHeardOncePerPass(t *testing.T) {
	c, engine, marker, store := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)

	engine.pos = 60 * time.Second
	c.Tick()
	if len(marker.marks) != 0 {
		t.Fatalf("below threshold should not mark, got %v", marker.marks)
	}
	if e, ok := store.Get("a"); !ok || e.Pos != 60 {
		t.Fatalf("tick should persist position, got %+v", e)
	}

	engine.pos = 96 * time.Second // exactly 80%
	c.Tick()
	if len(marker.marks) != 1 || marker.marks[0] != "a" {
		t.Fatalf("expected single heard mark at threshold, got %v", marker.marks)
	}

	// Scrub back below and over the threshold again: still one mark.
	engine.pos = 10 * time.Second
	c.Tick()
	engine.pos = 110 * time.Second
	c.Tick()
	if len(marker.marks) != 1 {
		t.Fatalf("threshold mark must fire once per pass, got %v", marker.marks)
	}
}

func TestQueueReplacementResetsMarkGuard(t *testing.T) {
	c, engine, marker, _ := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)
	engine.pos = 100 * time.Second
	c.Tick()

	load, _ = c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)
	engine.pos = 100 * time.Second
	c.Tick()

	if len(marker.marks) != 2 {
		t.Fatalf("new queue starts a new pass, got %v", marker.marks)
	}
}

func TestHandleEndedMarksAndAdvancesWithWrap(t *testing.T) {
	c, _, marker, store := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a"), track("b")}, 1)
	c.StartLoaded(load.Gen)

	next, ok := c.HandleEnded(load.Gen)
	if !ok || next.Track.ID != "a" {
		t.Fatalf("end of last slot should wrap to first, got (%+v, %v)", next, ok)
	}
	if len(marker.marks) != 1 || marker.marks[0] != "b" {
		t.Fatalf("natural end must mark heard, got %v", marker.marks)
	}
	if e, _ := store.Get("b"); e.Pos != e.Dur || e.Dur != 120 {
		t.Fatalf("ended track should be saved complete, got %+v", e)
	}
}

func TestSingleTrackQueueReplaysItself(t *testing.T) {
	c, _, _, _ := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("solo")}, 0)
	c.StartLoaded(load.Gen)

	next, ok := c.HandleEnded(load.Gen)
	if !ok || next.Track.ID != "solo" {
		t.Fatalf("single-track queue should loop onto itself, got (%+v, %v)", next, ok)
	}
	if next.Gen == load.Gen {
		t.Fatal("replay should carry a fresh generation")
	}
}

func TestStaleEndEventIgnored(t *testing.T) {
	c, _, marker, _ := newTestController(t)

	first, _ := c.PlayQueue([]catalog.Track{track("a"), track("b")}, 0)
	c.StartLoaded(first.Gen)
	second, _ := c.Next()
	c.StartLoaded(second.Gen)

	if _, ok := c.HandleEnded(first.Gen); ok {
		t.Fatal("end event from a superseded track must be dropped")
	}
	if len(marker.marks) != 0 {
		t.Fatalf("stale end must not mark heard, got %v", marker.marks)
	}
}

func TestTogglePlayPause(t *testing.T) {
	c, engine, _, _ := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)

	c.Toggle()
	if c.State() != Paused || engine.playing {
		t.Fatal("toggle from playing should pause")
	}
	c.Toggle()
	if c.State() != Playing || !engine.playing {
		t.Fatal("toggle from paused should resume")
	}
}

func TestBlockedToggleRetriesLoad(t *testing.T) {
	c, engine, _, _ := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	if !c.LoadFailed(load.Gen, errors.New("device busy")) {
		t.Fatal("current-gen failure should apply")
	}
	if c.State() != Blocked {
		t.Fatalf("state = %v, want blocked", c.State())
	}
	if cur, ok := c.Current(); !ok || cur.ID != "a" {
		t.Fatal("blocked session should keep its track")
	}

	retry, ok := c.Toggle()
	if !ok || retry.Track.ID != "a" || retry.Gen == load.Gen {
		t.Fatalf("toggle from blocked should reissue the load, got (%+v, %v)", retry, ok)
	}
	if engine.playing {
		t.Fatal("retry must not start audio before the load completes")
	}
}

func TestStaleLoadFailureIgnored(t *testing.T) {
	c, _, _, _ := newTestController(t)

	first, _ := c.PlayQueue([]catalog.Track{track("a"), track("b")}, 0)
	second, _ := c.Next()

	if c.LoadFailed(first.Gen, errors.New("slow network")) {
		t.Fatal("failure for a superseded load must be dropped")
	}
	if c.State() != Loading {
		t.Fatalf("state = %v, want loading for gen %d", c.State(), second.Gen)
	}
}

func TestPlayNextInQueueInsertsAfterCurrent(t *testing.T) {
	c, _, _, _ := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a"), track("b"), track("c")}, 0)
	c.StartLoaded(load.Gen)

	if _, ok := c.PlayNextInQueue(track("d")); ok {
		t.Fatal("insert into a running queue must not interrupt playback")
	}

	want := []string{"a", "d", "b", "c"}
	got := c.Tracks()
	if len(got) != len(want) {
		t.Fatalf("queue = %v", got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("queue[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if c.Index() != 0 {
		t.Fatalf("current index moved to %d", c.Index())
	}
}

func TestPlayNextIntoEmptyQueueStartsIt(t *testing.T) {
	c, _, _, _ := newTestController(t)

	load, ok := c.PlayNextInQueue(track("a"))
	if !ok || load.Track.ID != "a" {
		t.Fatalf("empty-queue insert should start playback, got (%+v, %v)", load, ok)
	}
}

func TestPlayIndexClampsIntoRange(t *testing.T) {
	c, _, _, _ := newTestController(t)
	load, _ := c.PlayQueue([]catalog.Track{track("a"), track("b")}, 0)
	c.StartLoaded(load.Gen)

	jump, ok := c.PlayIndex(99)
	if !ok || jump.Track.ID != "b" {
		t.Fatalf("out-of-range index should clamp to last, got (%+v, %v)", jump, ok)
	}
}

func TestClosePlayerForgetsSessionButNotProgress(t *testing.T) {
	c, engine, _, store := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)
	engine.pos = 45 * time.Second
	c.Tick()

	c.ClosePlayer()
	if c.State() != Idle {
		t.Fatalf("state = %v, want idle", c.State())
	}
	if _, ok := c.Current(); ok {
		t.Fatal("closed session should have no current track")
	}
	if engine.stops == 0 {
		t.Fatal("close should stop the engine")
	}
	if _, ok := store.Get("a"); !ok {
		t.Fatal("close must not forget saved positions")
	}
}

func TestPlayTrackReplacesQueue(t *testing.T) {
	c, _, _, _ := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a"), track("b")}, 0)
	c.StartLoaded(load.Gen)

	solo, ok := c.PlayTrack(track("z"))
	if !ok || solo.Track.ID != "z" {
		t.Fatalf("PlayTrack = (%+v, %v)", solo, ok)
	}
	if got := c.Tracks(); len(got) != 1 || got[0].ID != "z" {
		t.Fatalf("queue = %v, want just z", got)
	}
}

func TestPauseResume(t *testing.T) {
	c, engine, _, _ := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)

	c.Pause()
	if c.State() != Paused || engine.playing {
		t.Fatal("Pause should halt a running session")
	}
	c.Pause()
	if c.State() != Paused {
		t.Fatal("Pause on a paused session is a no-op")
	}
	c.Resume()
	if c.State() != Playing || !engine.playing {
		t.Fatal("Resume should restart a paused session")
	}

	engine.pos = 30 * time.Second
	c.Tick()
	if e, ok := c.GetProgress("a"); !ok || e.Pos != 30 {
		t.Fatalf("GetProgress = (%+v, %v), want saved 30s", e, ok)
	}
}

func TestSeekPersistsPosition(t *testing.T) {
	c, engine, _, store := newTestController(t)

	load, _ := c.PlayQueue([]catalog.Track{track("a")}, 0)
	c.StartLoaded(load.Gen)

	c.SeekTo(75 * time.Second)
	if engine.pos != 75*time.Second {
		t.Fatalf("engine position = %v", engine.pos)
	}
	if e, ok := store.Get("a"); !ok || e.Pos != 75 {
		t.Fatalf("seek should persist position, got %+v", e)
	}
}
