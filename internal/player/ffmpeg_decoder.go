package player

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nadav-o/sipurim/internal/log"
)

// ffmpegDecoder transcodes a source file to raw 16-bit 44.1kHz stereo PCM in
// a temp file, then serves reads and seeks from it. Used for formats without
// a native decoder and for sources whose rate does not match the output
// context.
type ffmpegDecoder struct {
	pcm        *os.File
	totalBytes int64
}

func newFFmpegDecoder(path string) (*ffmpegDecoder, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (required for %s playback)", filepath.Ext(path))
	}

	tmp, err := os.CreateTemp("", "sipurim-pcm-*.raw")
	if err != nil {
		return nil, fmt.Errorf("creating PCM temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	cmd := exec.Command(
		ffmpeg,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-vn",
		"-ac", "2",
		"-ar", "44100",
		"-f", "s16le",
		"-y", tmpPath,
	)
	cmd.Stdin = nil
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("transcoding %s: %w", filepath.Base(path), err)
	}

	pcm, err := os.Open(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("opening transcoded PCM: %w", err)
	}
	fi, err := pcm.Stat()
	if err != nil {
		pcm.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("sizing transcoded PCM: %w", err)
	}

	log.Debugf("transcoded %s to %d PCM bytes", filepath.Base(path), fi.Size())
	return &ffmpegDecoder{pcm: pcm, totalBytes: fi.Size()}, nil
}

func (d *ffmpegDecoder) Read(p []byte) (int, error) {
	return d.pcm.Read(p)
}

func (d *ffmpegDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.pcm.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	newPos := clampOutputPos(pos, offset, d.totalBytes, whence)
	return d.pcm.Seek(newPos, io.SeekStart)
}

func (d *ffmpegDecoder) Length() int64     { return d.totalBytes }
func (d *ffmpegDecoder) SampleRate() int   { return 44100 }
func (d *ffmpegDecoder) ChannelCount() int { return 2 }

// Close removes the temp PCM file along with the handle.
func (d *ffmpegDecoder) Close() error {
	name := d.pcm.Name()
	err := d.pcm.Close()
	os.Remove(name)
	return err
}
