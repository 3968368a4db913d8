// Package player drives audio output. A single Player is reused across
// tracks: Load swaps the decoder underneath a lazily created oto context
// while volume and mute carry over.
package player

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 44100
	channelCount = 2
	bytesPerSec  = sampleRate * channelCount * 2 // 16-bit samples
)

// countingReader wraps the decoder and tracks bytes handed to the output.
type countingReader struct {
	reader io.ReadSeeker
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

// The oto context can only exist once per process.
func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// Player is a reusable playback engine for local audio files.
type Player struct {
	mu        sync.Mutex
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	decoder   audioDecoder
	counter   *countingReader
	cleanup   func()
	duration  time.Duration
	volume    float64
	muted     bool
	paused    bool
	done      chan struct{}
	session   int
	closed    bool
}

// New returns an idle engine. No audio device is touched until the first
// Load.
func New() *Player {
	return &Player{volume: 0.8}
}

// Load replaces the current track with the file at path. Playback starts
// paused at position zero so the caller can seek to a resume point first.
func (p *Player) Load(path string) error {
	dec, cleanup, err := openDecoder(path)
	if err != nil {
		return err
	}

	ctx, err := initOto()
	if err != nil {
		cleanup()
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		cleanup()
		return fmt.Errorf("player is closed")
	}

	p.stopLocked()

	p.otoCtx = ctx
	p.decoder = dec
	p.cleanup = cleanup
	p.counter = &countingReader{reader: dec}
	p.duration = time.Duration(float64(dec.Length()) / bytesPerSec * float64(time.Second))
	p.done = make(chan struct{})
	p.paused = true
	p.session++

	p.otoPlayer = ctx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.effectiveVolume())

	go p.monitor(p.session, p.done)
	return nil
}

// openDecoder opens a native decoder for path, falling back to ffmpeg when
// the source format does not match the fixed output format.
func openDecoder(path string) (audioDecoder, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	if ff, ok := dec.(*ffmpegDecoder); ok {
		f.Close()
		return ff, func() { ff.Close() }, nil
	}

	if dec.SampleRate() != sampleRate || dec.ChannelCount() != channelCount {
		f.Close()
		ff, err := newFFmpegDecoder(path)
		if err != nil {
			return nil, nil, err
		}
		return ff, func() { ff.Close() }, nil
	}

	return dec, func() { f.Close() }, nil
}

func (p *Player) monitor(session int, done chan struct{}) {
	for {
		p.mu.Lock()
		if p.closed || p.session != session {
			p.mu.Unlock()
			return
		}
		pos := p.counter.Pos()
		total := p.decoder.Length()
		paused := p.paused
		p.mu.Unlock()

		if !paused && total >= 0 && pos >= total {
			close(done)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Done reports natural end of the currently loaded track. Returns nil when
// nothing is loaded.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Play resumes (or starts) output for the loaded track.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.otoPlayer == nil {
		return
	}
	p.otoPlayer.Play()
	p.paused = false
}

// Pause halts output without losing position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.otoPlayer == nil {
		return
	}
	p.otoPlayer.Pause()
	p.paused = true
}

// TogglePause flips between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.otoPlayer == nil {
		return
	}
	if p.paused {
		p.otoPlayer.Play()
		p.paused = false
	} else {
		p.otoPlayer.Pause()
		p.paused = true
	}
}

// Paused reports whether output is halted. An idle engine counts as paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused || p.otoPlayer == nil
}

// Loaded reports whether a track is currently loaded.
func (p *Player) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.otoPlayer != nil
}

// Position returns the playback position of the loaded track.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counter == nil {
		return 0
	}
	return bytesToDuration(p.counter.Pos())
}

// Duration returns the total length of the loaded track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SeekTo jumps to an absolute position, clamped to the track bounds.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seekToLocked(pos)
}

// SeekBy moves by delta from the current position.
func (p *Player) SeekBy(delta time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counter == nil {
		return
	}
	p.seekToLocked(bytesToDuration(p.counter.Pos()) + delta)
}

func (p *Player) seekToLocked(pos time.Duration) {
	if p.decoder == nil {
		return
	}

	newPos := alignFrame(durationToBytes(pos), p.decoder.Length())
	if _, err := p.decoder.Seek(newPos, io.SeekStart); err != nil {
		return
	}
	p.counter.SetPos(newPos)

	// Recreate the oto player to flush buffered audio.
	wasPaused := p.paused
	p.otoPlayer.Pause()
	p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.effectiveVolume())
	if !wasPaused {
		p.otoPlayer.Play()
	}
}

// Volume returns the configured volume, ignoring mute.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume sets the volume, clamped to [0, 1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.volume = v
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(p.effectiveVolume())
	}
}

// AdjustVolume moves the volume by delta.
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	v := p.volume + delta
	p.mu.Unlock()
	p.SetVolume(v)
}

// ToggleMute flips mute without forgetting the volume.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = !p.muted
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(p.effectiveVolume())
	}
}

// Muted reports the mute state.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) effectiveVolume() float64 {
	if p.muted {
		return 0
	}
	return p.volume
}

// Stop unloads the current track and releases its resources. The engine
// stays usable for the next Load.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
		p.otoPlayer = nil
	}
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	p.decoder = nil
	p.counter = nil
	p.duration = 0
	p.done = nil
	p.paused = true
	p.session++
}

// Close shuts the engine down for good.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.stopLocked()
	p.closed = true
}

func bytesToDuration(b int64) time.Duration {
	return time.Duration(float64(b) / bytesPerSec * float64(time.Second))
}

func durationToBytes(d time.Duration) int64 {
	return int64(d.Seconds() * bytesPerSec)
}

// alignFrame clamps a byte position into [0, total] and snaps it to a
// 4-byte sample frame boundary.
func alignFrame(pos, total int64) int64 {
	if pos < 0 {
		pos = 0
	}
	if total >= 0 && pos > total {
		pos = total
	}
	return pos - pos%4
}
