// Package download fetches story audio into the local cache so playback and
// seeking work from a file on disk.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/log"
	"github.com/nadav-o/sipurim/internal/media"
	"github.com/nadav-o/sipurim/internal/where"
)

// DefaultTimeout bounds a single audio fetch.
const DefaultTimeout = 5 * time.Minute

var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// IsURL reports whether arg looks like a remote audio source.
func IsURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// SanitizeFilename strips characters invalid in filenames and trims
// whitespace. Falls back to "story" if nothing survives.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "story"
	}
	return name
}

// Cache resolves tracks to local files, downloading on first use.
type Cache struct {
	dir  string
	http *http.Client
}

// NewCache uses the shared audio cache directory.
func NewCache() *Cache {
	return &Cache{
		dir:  where.Audio(),
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

// NewCacheAt is a constructor for tests.
func NewCacheAt(dir string, client *http.Client) *Cache {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Cache{dir: dir, http: client}
}

// Resolve returns a playable local path for the track. Local audio sources
// pass through untouched; remote ones are fetched into the cache once and
// reused afterwards.
func (c *Cache) Resolve(ctx context.Context, track catalog.Track) (string, error) {
	if !IsURL(track.AudioURL) {
		return track.AudioURL, nil
	}

	dest := c.Path(track)
	if _, err := os.Stat(dest); err == nil {
		log.Debugf("cache hit for %s", track.ID)
		return dest, nil
	}

	if err := c.fetch(ctx, track.AudioURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Path returns where the track's audio lives in the cache, whether or not it
// has been downloaded yet.
func (c *Cache) Path(track catalog.Track) string {
	name := SanitizeFilename(track.ID) + media.ExtFromURL(track.AudioURL)
	return filepath.Join(c.dir, name)
}

// Cached reports whether the track's audio is already on disk.
func (c *Cache) Cached(track catalog.Track) bool {
	if !IsURL(track.AudioURL) {
		_, err := os.Stat(track.AudioURL)
		return err == nil
	}
	_, err := os.Stat(c.Path(track))
	return err == nil
}

// fetch downloads into a temp file first so a failed transfer never leaves a
// half-written entry behind.
func (c *Cache) fetch(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("preparing audio cache: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("downloading audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading audio: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".partial-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing audio to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return err
	}
	log.Infof("cached %s", filepath.Base(dest))
	return nil
}
