package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/controller"
	"github.com/nadav-o/sipurim/internal/filesystem"
	"github.com/nadav-o/sipurim/internal/player"
	"github.com/nadav-o/sipurim/internal/progress"
)

func newTestModel(t *testing.T, tracks []catalog.Track) (Model, *controller.Controller) {
	t.Helper()
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)

	engine := player.New()
	store := progress.NewStore("/state/playstate.json")
	heard := progress.NewHeardSet("/state/heard.json", nil)
	ctrl := controller.New(engine, store, heard)

	m := Model{
		ctrl:   ctrl,
		engine: engine,
		store:  store,
		heard:  heard,
		pool:   tracks,
	}
	return m, ctrl
}

func TestStaleLoadCompletionIgnored(t *testing.T) {
	tracks := []catalog.Track{
		{ID: "a", Title: "a", AudioURL: "/audio/a.mp3"},
		{ID: "b", Title: "b", AudioURL: "/audio/b.mp3"},
	}
	m, ctrl := newTestModel(t, tracks)

	first, _ := ctrl.PlayQueue(tracks, 0)
	ctrl.Next()

	next, cmd := m.Update(trackLoadedMsg{gen: first.Gen, path: "/audio/a.mp3"})
	if cmd != nil {
		t.Fatal("stale completion should produce no command")
	}
	if next.(Model).ctrl.State() != controller.Loading {
		t.Fatalf("state = %v, want loading for the newer request", ctrl.State())
	}
}

func TestLoadFailureBlocksAndShowsStatus(t *testing.T) {
	tracks := []catalog.Track{{ID: "a", Title: "a", AudioURL: "https://cdn/a.mp3"}}
	m, ctrl := newTestModel(t, tracks)

	load, _ := ctrl.PlayQueue(tracks, 0)

	next, _ := m.Update(loadFailedMsg{gen: load.Gen, err: errors.New("network down")})
	nm := next.(Model)
	if ctrl.State() != controller.Blocked {
		t.Fatalf("state = %v, want blocked", ctrl.State())
	}
	if !strings.Contains(nm.status, "network down") {
		t.Fatalf("status = %q, want fetch error surfaced", nm.status)
	}
	if !strings.Contains(nm.View(), "blocked") {
		t.Fatal("view should surface the blocked state")
	}
}

func TestStaleEndEventProducesNoLoad(t *testing.T) {
	tracks := []catalog.Track{
		{ID: "a", Title: "a", AudioURL: "/audio/a.mp3"},
		{ID: "b", Title: "b", AudioURL: "/audio/b.mp3"},
	}
	m, ctrl := newTestModel(t, tracks)

	first, _ := ctrl.PlayQueue(tracks, 0)
	ctrl.Next()

	if _, cmd := m.Update(playbackEndedMsg{gen: first.Gen}); cmd != nil {
		t.Fatal("stale end event should not trigger an advance")
	}
}

func TestRebuildSkipsWhenNothingSurvives(t *testing.T) {
	tracks := []catalog.Track{{ID: "a", Title: "a", AudioURL: "/audio/a.mp3"}}
	m, ctrl := newTestModel(t, tracks)
	ctrl.PlayQueue(tracks, 0)

	m.heard.Mark("a")
	m.skipHeard = true

	next, cmd := m.rebuild()
	if cmd != nil {
		t.Fatal("empty rebuild should not issue a load")
	}
	if next.status == "" {
		t.Fatal("empty rebuild should explain itself")
	}
}

func TestRenderProgressBar(t *testing.T) {
	bar := renderProgressBar(50, 100, 22)
	if len([]rune(bar)) != 20 {
		t.Fatalf("bar length = %d, want 20", len([]rune(bar)))
	}
	if !strings.HasPrefix(bar, "━━━━━━━━━━─") {
		t.Fatalf("half-played bar rendered %q", bar)
	}

	if bar := renderProgressBar(10, 0, 22); strings.Contains(bar, "━") {
		t.Fatal("unknown duration should render an empty bar")
	}
}

func TestRenderVolume(t *testing.T) {
	if got := renderVolume(0.8, false); got != "vol 80%" {
		t.Fatalf("renderVolume = %q", got)
	}
	if got := renderVolume(0.8, true); got != "vol muted" {
		t.Fatalf("muted renderVolume = %q", got)
	}
}

func TestRenderQueueSlot(t *testing.T) {
	if got := renderQueueSlot(2, 12); got != "3/12" {
		t.Fatalf("renderQueueSlot = %q", got)
	}
	if got := renderQueueSlot(0, 0); got != "" {
		t.Fatalf("empty queue slot = %q", got)
	}
}

func TestFuzzyFilterMatchesLoosely(t *testing.T) {
	targets := []string{"מעשה בשני אחים", "הרב והסנדלר", "Story of the well"}

	ranks := fuzzyFilter("סנדלר", targets)
	if len(ranks) != 1 || ranks[0].Index != 1 {
		t.Fatalf("ranks = %+v, want single match at index 1", ranks)
	}

	if ranks := fuzzyFilter("WELL", targets); len(ranks) != 1 || ranks[0].Index != 2 {
		t.Fatalf("case-folded ranks = %+v, want index 2", ranks)
	}
}
