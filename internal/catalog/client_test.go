package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStoriesParsesAndSkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/stories" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Fatalf("expected apikey header, got %q", got)
		}
		rows := []map[string]any{
			{"id": "a", "title": "First", "audio_url": "https://cdn/a.mp3", "publish_at": "2024-01-02T00:00:00"},
			{"id": "b", "title": "No audio", "audio_url": nil},
			{"id": "", "title": "No id", "audio_url": "https://cdn/x.mp3"},
			{"id": "c", "title": "Episode", "audio_url": "https://cdn/c.m4a", "series_id": "s1", "series_title": "The Series"},
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "anon", nil)
	tracks, err := c.Stories(context.Background())
	if err != nil {
		t.Fatalf("Stories() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 valid tracks, got %d", len(tracks))
	}
	if tracks[0].ID != "a" || tracks[0].InSeries() {
		t.Fatalf("unexpected first track %+v", tracks[0])
	}
	if !tracks[0].PublishAt.IsPresent() {
		t.Fatal("expected publish timestamp on first track")
	}
	if got := tracks[1].SeriesID.OrElse(""); got != "s1" {
		t.Fatalf("expected series id s1, got %q", got)
	}
}

func TestListenOpsRequireSession(t *testing.T) {
	c := newClientAt("http://localhost:1", "anon", nil)

	if err := c.InsertListen(context.Background(), "x"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("InsertListen without session = %v, want ErrNoSession", err)
	}
	if err := c.DeleteListen(context.Background(), "x"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("DeleteListen without session = %v, want ErrNoSession", err)
	}
	if _, err := c.Listens(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Listens without session = %v, want ErrNoSession", err)
	}
}

func TestInsertListenSendsUserAndStory(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/story_listens" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Fatalf("expected session bearer token, got %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "anon", &Session{AccessToken: "tok", UserID: "u1"})
	if err := c.InsertListen(context.Background(), "story9"); err != nil {
		t.Fatalf("InsertListen() error = %v", err)
	}
	if got["user_id"] != "u1" || got["story_id"] != "story9" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestSignInReturnsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Fatalf("unexpected auth request %s", r.URL.String())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "jwt",
			"user":         map[string]string{"id": "u42"},
		})
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "anon", nil)
	s, err := c.SignIn(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if s.AccessToken != "jwt" || s.UserID != "u42" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestServerErrorIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := newClientAt(srv.URL, "anon", nil)
	if _, err := c.Stories(context.Background()); err == nil {
		t.Fatal("expected error from 403 response")
	}
}
