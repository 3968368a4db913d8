// Package catalog implements the typed client for the story backend: the
// stories and memorials tables, the per-user listens table, password auth,
// and audio object upload. All persistence and auth live on the backend;
// this package only parses its rows into validated records.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nadav-o/sipurim/internal/config"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 10 * time.Second

// ErrNoSession marks operations that need a signed-in user. Callers treat it
// as a normal no-op, not an error.
var ErrNoSession = errors.New("no signed-in session")

// ErrNotConfigured is returned when the backend URL or key is missing.
var ErrNotConfigured = errors.New("backend not configured (set backend.url and backend.anon_key)")

// Client talks to the backend REST surface.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	session *Session
}

// NewClient builds a client from configuration. The session is optional;
// without one, per-user operations return ErrNoSession.
func NewClient(session *Session) (*Client, error) {
	baseURL := strings.TrimRight(viper.GetString(config.KeyBackendURL), "/")
	anonKey := viper.GetString(config.KeyBackendAnonKey)
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: DefaultTimeout},
		session: session,
	}, nil
}

// newClientAt is the test seam: points the client at an arbitrary server.
func newClientAt(baseURL, anonKey string, session *Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: DefaultTimeout},
		session: session,
	}
}

// Stories returns catalog tracks that have audio, newest first.
func (c *Client) Stories(ctx context.Context) ([]Track, error) {
	limit := viper.GetInt(config.KeyCatalogLimit)
	if limit <= 0 {
		limit = 500
	}
	q := url.Values{}
	q.Set("select", "id,title,audio_url,series_id,series_title,publish_at")
	q.Add("audio_url", "not.is.null")
	q.Add("audio_url", "neq.")
	q.Set("order", "publish_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	var rows []storyRow
	if err := c.get(ctx, "/rest/v1/stories", q, &rows); err != nil {
		return nil, fmt.Errorf("loading stories: %w", err)
	}
	return parseRows(rows)
}

// SeriesEpisodes returns a series' episodes in story order (publish ascending).
func (c *Client) SeriesEpisodes(ctx context.Context, seriesID string) ([]Track, error) {
	q := url.Values{}
	q.Set("select", "id,title,audio_url,series_id,series_title,publish_at")
	q.Set("series_id", "eq."+seriesID)
	q.Add("audio_url", "not.is.null")
	q.Set("order", "publish_at.asc")

	var rows []storyRow
	if err := c.get(ctx, "/rest/v1/stories", q, &rows); err != nil {
		return nil, fmt.Errorf("loading series %s: %w", seriesID, err)
	}
	return parseRows(rows)
}

func parseRows(rows []storyRow) ([]Track, error) {
	tracks := make([]Track, 0, len(rows))
	for _, r := range rows {
		t, err := r.parse()
		if err != nil {
			// Malformed rows are skipped, not fatal; the catalog is
			// maintained out-of-band and may hold drafts.
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// InsertListen records a heard story for the signed-in user. Duplicate
// (user, story) pairs are ignored server-side.
func (c *Client) InsertListen(ctx context.Context, storyID string) error {
	if c.session == nil {
		return ErrNoSession
	}
	body := map[string]string{"user_id": c.session.UserID, "story_id": storyID}
	return c.send(ctx, http.MethodPost, "/rest/v1/story_listens", nil, body, map[string]string{
		"Prefer": "resolution=ignore-duplicates,return=minimal",
	})
}

// DeleteListen removes a heard record for the signed-in user.
func (c *Client) DeleteListen(ctx context.Context, storyID string) error {
	if c.session == nil {
		return ErrNoSession
	}
	q := url.Values{}
	q.Set("user_id", "eq."+c.session.UserID)
	q.Set("story_id", "eq."+storyID)
	return c.send(ctx, http.MethodDelete, "/rest/v1/story_listens", q, nil, nil)
}

// Listens returns the story ids the signed-in user has heard on any device.
func (c *Client) Listens(ctx context.Context) ([]string, error) {
	if c.session == nil {
		return nil, ErrNoSession
	}
	q := url.Values{}
	q.Set("select", "story_id")
	q.Set("user_id", "eq."+c.session.UserID)

	var rows []struct {
		StoryID string `json:"story_id"`
	}
	if err := c.get(ctx, "/rest/v1/story_listens", q, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.StoryID != "" {
			ids = append(ids, r.StoryID)
		}
	}
	return ids, nil
}

// Memorials returns Ilui Nishmat listings, newest first.
func (c *Client) Memorials(ctx context.Context) ([]Memorial, error) {
	q := url.Values{}
	q.Set("select", "id,honoree,event_date,created_at")
	q.Set("order", "created_at.desc")

	var rows []memorialRow
	if err := c.get(ctx, "/rest/v1/memorials", q, &rows); err != nil {
		return nil, fmt.Errorf("loading memorials: %w", err)
	}
	out := make([]Memorial, 0, len(rows))
	for _, r := range rows {
		m, err := r.parse()
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// CreateMemorial inserts a memorial listing. Requires a session.
func (c *Client) CreateMemorial(ctx context.Context, honoree string, eventDate *time.Time) error {
	if c.session == nil {
		return ErrNoSession
	}
	body := map[string]any{"honoree": honoree}
	if eventDate != nil {
		body["event_date"] = eventDate.Format("2006-01-02")
	} else {
		body["event_date"] = nil
	}
	return c.send(ctx, http.MethodPost, "/rest/v1/memorials", nil, body, map[string]string{
		"Prefer": "return=minimal",
	})
}

// NewStory describes a story row to insert.
type NewStory struct {
	Title    string
	AudioURL string
	SeriesID string
}

// CreateStory inserts a catalog row. Requires a session.
func (c *Client) CreateStory(ctx context.Context, s NewStory) error {
	if c.session == nil {
		return ErrNoSession
	}
	if s.Title == "" || s.AudioURL == "" {
		return fmt.Errorf("story needs a title and an audio url")
	}
	body := map[string]any{
		"title":      s.Title,
		"audio_url":  s.AudioURL,
		"publish_at": time.Now().UTC().Format(time.RFC3339),
	}
	if s.SeriesID != "" {
		body["series_id"] = s.SeriesID
	}
	return c.send(ctx, http.MethodPost, "/rest/v1/stories", nil, body, map[string]string{
		"Prefer": "return=minimal",
	})
}

// UploadAudio stores an audio object in the public bucket and returns its
// public URL. Requires a session.
func (c *Client) UploadAudio(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if c.session == nil {
		return "", ErrNoSession
	}
	path := "/storage/v1/object/audio/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, r)
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", httpError(resp)
	}
	return c.baseURL + "/storage/v1/object/public/audio/" + url.PathEscape(name), nil
}

// SignIn exchanges email and password for a session via the auth endpoint.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	payload, err := json.Marshal(body)
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(payload))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("signing in: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Session{}, httpError(resp)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("decoding sign-in response: %w", err)
	}
	if out.AccessToken == "" || out.User.ID == "" {
		return Session{}, fmt.Errorf("sign-in response missing token or user")
	}
	return Session{AccessToken: out.AccessToken, UserID: out.User.ID}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body any, headers map[string]string) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp)
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	token := c.anonKey
	if c.session != nil && c.session.AccessToken != "" {
		token = c.session.AccessToken
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

func httpError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("backend returned %d: %s", resp.StatusCode, msg)
}
