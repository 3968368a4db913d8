package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/filesystem"
)

type stubMirror struct {
	mu       sync.Mutex
	inserted []string
	deleted  []string
	remote   []string
	err      error
}

func (m *stubMirror) InsertListen(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, id)
	return m.err
}

func (m *stubMirror) DeleteListen(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *stubMirror) Listens(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.remote, nil
}

func TestMarkPersistsAndMirrors(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	mirror := &stubMirror{}
	h := NewHeardSet("/state/heard.json", mirror)

	h.Mark("a")
	h.Flush()

	if !h.IsHeard("a") {
		t.Fatal("expected a to be heard")
	}
	if len(mirror.inserted) != 1 || mirror.inserted[0] != "a" {
		t.Fatalf("expected one mirror insert for a, got %v", mirror.inserted)
	}

	// Survives reopen.
	h2 := NewHeardSet("/state/heard.json", nil)
	if !h2.IsHeard("a") {
		t.Fatal("expected heard mark to survive reopen")
	}
}

func TestMirrorFailureNeverRollsBackLocalState(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	mirror := &stubMirror{err: context.DeadlineExceeded}
	h := NewHeardSet("/state/heard.json", mirror)

	h.Mark("a")
	h.Flush()

	if !h.IsHeard("a") {
		t.Fatal("mirror failure must not affect local state")
	}
}

func TestUnmarkAndToggle(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	mirror := &stubMirror{}
	h := NewHeardSet("/state/heard.json", mirror)

	h.Mark("a")
	h.Unmark("a")
	h.Flush()
	if h.IsHeard("a") {
		t.Fatal("expected a to be unheard after unmark")
	}
	if len(mirror.deleted) != 1 {
		t.Fatalf("expected one mirror delete, got %v", mirror.deleted)
	}

	if !h.Toggle("b") {
		t.Fatal("toggle of unheard story should report heard")
	}
	if h.Toggle("b") {
		t.Fatal("second toggle should report unheard")
	}
	h.Flush()
}

func TestMergeRemoteUnionsNeverSubtracts(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	mirror := &stubMirror{remote: []string{"r1", "r2"}}
	h := NewHeardSet("/state/heard.json", mirror)
	h.Mark("local")
	h.Flush()

	if err := h.MergeRemote(context.Background()); err != nil {
		t.Fatalf("MergeRemote() error = %v", err)
	}
	for _, id := range []string{"local", "r1", "r2"} {
		if !h.IsHeard(id) {
			t.Fatalf("expected %s heard after merge", id)
		}
	}
}

func TestMergeRemoteSignedOutIsNoOp(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	mirror := &stubMirror{err: catalog.ErrNoSession}
	h := NewHeardSet("/state/heard.json", mirror)
	if err := h.MergeRemote(context.Background()); err != nil {
		t.Fatalf("signed-out merge should be a no-op, got %v", err)
	}
}
