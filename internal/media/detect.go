// Package media classifies audio sources by extension and URL.
package media

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

var supported = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".mp4":  "audio/mp4",
	".aac":  "audio/aac",
}

// IsSupportedExt reports whether ext (with or without the leading dot) names
// a playable format.
func IsSupportedExt(ext string) bool {
	_, ok := supported[normalize(ext)]
	return ok
}

// IsSupportedFile reports whether the path names a playable local file.
func IsSupportedFile(p string) bool {
	return IsSupportedExt(filepath.Ext(p))
}

// ExtFromURL extracts the audio extension from a URL path. Catalog entries
// without a recognizable extension default to .m4a, matching how the story
// archive stores phone recordings.
func ExtFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		if ext := normalize(path.Ext(u.Path)); IsSupportedExt(ext) {
			return ext
		}
	}
	return ".m4a"
}

// MimeForExt returns the MIME type for a supported extension, or
// application/octet-stream.
func MimeForExt(ext string) string {
	if mime, ok := supported[normalize(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}

func normalize(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
