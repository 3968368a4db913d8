package catalog

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// Track is a playable story from the catalog. Identity is ID; records are
// immutable once loaded. SeriesID groups multi-part stories; standalone
// stories carry no series fields.
type Track struct {
	ID          string
	Title       string
	AudioURL    string
	SeriesID    mo.Option[string]
	SeriesTitle mo.Option[string]
	PublishAt   mo.Option[time.Time]
}

// InSeries reports whether the track belongs to a multi-part series.
func (t Track) InSeries() bool {
	return t.SeriesID.IsPresent()
}

// Memorial is an Ilui Nishmat listing.
type Memorial struct {
	ID        string
	Honoree   string
	EventDate mo.Option[time.Time]
	CreatedAt time.Time
}

// Session identifies a signed-in user.
type Session struct {
	AccessToken string
	UserID      string
}

// storyRow is the raw shape of a catalog row. External rows are loosely
// typed; parsing validates them before they enter the core.
type storyRow struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	AudioURL    *string `json:"audio_url"`
	SeriesID    *string `json:"series_id"`
	SeriesTitle *string `json:"series_title"`
	PublishAt   *string `json:"publish_at"`
}

func (r storyRow) parse() (Track, error) {
	if r.ID == "" {
		return Track{}, fmt.Errorf("story row without id")
	}
	if r.Title == "" {
		return Track{}, fmt.Errorf("story %s without title", r.ID)
	}
	if r.AudioURL == nil || *r.AudioURL == "" {
		return Track{}, fmt.Errorf("story %s without audio", r.ID)
	}

	t := Track{
		ID:       r.ID,
		Title:    r.Title,
		AudioURL: *r.AudioURL,
	}
	if r.SeriesID != nil && *r.SeriesID != "" {
		t.SeriesID = mo.Some(*r.SeriesID)
	}
	if r.SeriesTitle != nil && *r.SeriesTitle != "" {
		t.SeriesTitle = mo.Some(*r.SeriesTitle)
	}
	if r.PublishAt != nil && *r.PublishAt != "" {
		if ts, err := parseTimestamp(*r.PublishAt); err == nil {
			t.PublishAt = mo.Some(ts)
		}
	}
	return t, nil
}

type memorialRow struct {
	ID        string  `json:"id"`
	Honoree   string  `json:"honoree"`
	EventDate *string `json:"event_date"`
	CreatedAt string  `json:"created_at"`
}

func (r memorialRow) parse() (Memorial, error) {
	if r.ID == "" || r.Honoree == "" {
		return Memorial{}, fmt.Errorf("memorial row missing id or honoree")
	}
	m := Memorial{ID: r.ID, Honoree: r.Honoree}
	if ts, err := parseTimestamp(r.CreatedAt); err == nil {
		m.CreatedAt = ts
	}
	if r.EventDate != nil && *r.EventDate != "" {
		if ts, err := parseTimestamp(*r.EventDate); err == nil {
			m.EventDate = mo.Some(ts)
		}
	}
	return m, nil
}

// parseTimestamp accepts the timestamp shapes PostgREST emits.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
