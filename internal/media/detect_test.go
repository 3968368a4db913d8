package media

import "testing"

func TestIsSupportedExt(t *testing.T) {
	for _, ext := range []string{".mp3", "mp3", ".M4A", ".flac", ".ogg"} {
		if !IsSupportedExt(ext) {
			t.Errorf("IsSupportedExt(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{".txt", "", ".webm"} {
		if IsSupportedExt(ext) {
			t.Errorf("IsSupportedExt(%q) = true, want false", ext)
		}
	}
}

func TestExtFromURL(t *testing.T) {
	cases := []struct {
		url, want string
	}{
		{"https://cdn.example.com/audio/story.mp3", ".mp3"},
		{"https://cdn.example.com/audio/story.MP3?token=abc", ".mp3"},
		{"https://cdn.example.com/audio/recording", ".m4a"},
		{"https://cdn.example.com/audio/story.webm", ".m4a"},
		{"://not a url", ".m4a"},
	}
	for _, c := range cases {
		if got := ExtFromURL(c.url); got != c.want {
			t.Errorf("ExtFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestMimeForExt(t *testing.T) {
	if got := MimeForExt(".m4a"); got != "audio/mp4" {
		t.Errorf("MimeForExt(.m4a) = %q", got)
	}
	if got := MimeForExt(".xyz"); got != "application/octet-stream" {
		t.Errorf("MimeForExt(.xyz) = %q", got)
	}
}
