package player

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata holds tag information read from a local audio file.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ReadMetadata reads ID3v2 tags, falling back to the filename when no usable
// title is present. Used to prefill upload forms.
func ReadMetadata(path string) Metadata {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		defer tag.Close()
		m := Metadata{
			Title:  strings.TrimSpace(tag.Title()),
			Artist: strings.TrimSpace(tag.Artist()),
			Album:  strings.TrimSpace(tag.Album()),
		}
		if m.Title != "" {
			return m
		}
	}

	base := filepath.Base(path)
	return Metadata{Title: strings.TrimSuffix(base, filepath.Ext(base))}
}
