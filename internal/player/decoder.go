package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioDecoder yields interleaved 16-bit LE PCM from a source file.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension. Formats without a native
// decoder go through the ffmpeg path.
func newDecoder(f *os.File) (audioDecoder, error) {
	switch ext := strings.ToLower(filepath.Ext(f.Name())); ext {
	case ".mp3":
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return nil, fmt.Errorf("decoding MP3: %w", err)
		}
		return &mp3Decoder{dec: dec}, nil
	case ".wav":
		dec, err := newWAVDecoder(f)
		if err != nil {
			return nil, err
		}
		return dec, nil
	case ".flac":
		dec, err := newFLACDecoder(f)
		if err != nil {
			return nil, err
		}
		return dec, nil
	case ".ogg", ".oga":
		dec, err := newOGGDecoder(f)
		if err != nil {
			return nil, err
		}
		return dec, nil
	case ".m4a", ".m4b", ".aac", ".mp4":
		dec, err := newFFmpegDecoder(f.Name())
		if err != nil {
			return nil, err
		}
		return dec, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// clampOutputPos resolves a Seek offset against the output length and clamps
// it into [0, total].
func clampOutputPos(pos, offset, total int64, whence int) int64 {
	var n int64
	switch whence {
	case io.SeekStart:
		n = offset
	case io.SeekCurrent:
		n = pos + offset
	case io.SeekEnd:
		n = total + offset
	}
	if n < 0 {
		n = 0
	}
	if n > total {
		n = total
	}
	return n
}

// clamp16 narrows an int to the signed 16-bit range.
func clamp16(sample int) int16 {
	if sample > 32767 {
		return 32767
	}
	if sample < -32768 {
		return -32768
	}
	return int16(sample)
}

// carryover hands out PCM produced in chunks larger than the caller's buffer.
type carryover struct {
	buf []byte
}

func (c *carryover) drain(p []byte) (int, bool) {
	if len(c.buf) == 0 {
		return 0, false
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, true
}

func (c *carryover) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		c.buf = raw[n:]
	}
	return n
}

func (c *carryover) reset() {
	c.buf = nil
}

// --- MP3 ---

// go-mp3 already outputs 16-bit stereo at 44.1kHz, so this is a shim.
type mp3Decoder struct {
	dec *mp3.Decoder
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return 44100 }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV ---

type wavDecoder struct {
	file       *os.File
	carry      carryover
	pos        int64
	totalBytes int64
	pcmStart   int64
	sampleRate int
	channels   int
	bitDepth   int
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	srcFrame := int64(channels * bitDepth / 8)
	frames := dec.PCMLen() / srcFrame

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating WAV PCM start: %w", err)
	}

	return &wavDecoder{
		file:       f,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
		totalBytes: frames * int64(channels) * 2,
		pcmStart:   pcmStart,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.carry.drain(p); ok {
		d.pos += int64(n)
		return n, nil
	}

	srcBytes := d.bitDepth / 8
	samples := len(p) / 2
	if samples == 0 {
		samples = 1
	}

	src := make([]byte, samples*srcBytes)
	n, err := io.ReadFull(d.file, src)
	read := n / srcBytes
	if read == 0 {
		if err != nil && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, read*2)
	for i := 0; i < read; i++ {
		off := i * srcBytes
		var s int
		switch d.bitDepth {
		case 8:
			s = (int(src[off]) - 128) << 8 // 8-bit WAV is unsigned
		case 16:
			s = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			v := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			s = int(v >> 8)
		case 32:
			s = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(s)))
	}

	written := d.carry.emit(p, raw)
	d.pos += int64(written)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return written, err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos := clampOutputPos(d.pos, offset, d.totalBytes, whence)

	frame := newPos / (int64(d.channels) * 2)
	srcPos := frame * int64(d.channels*d.bitDepth/8)
	if _, err := d.file.Seek(d.pcmStart+srcPos, io.SeekStart); err != nil {
		return d.pos, err
	}

	d.carry.reset()
	d.pos = newPos
	return newPos, nil
}

func (d *wavDecoder) Length() int64     { return d.totalBytes }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	stream     *flac.Stream
	carry      carryover
	pos        int64
	totalBytes int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
		totalBytes: int64(info.NSamples) * int64(channels) * 2,
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.carry.drain(p); ok {
		d.pos += int64(n)
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*d.channels*2)
	for i := 0; i < nSamples; i++ {
		for ch := 0; ch < d.channels; ch++ {
			s := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				s >>= d.bps - 16
			case d.bps < 16:
				s <<= 16 - d.bps
			}
			binary.LittleEndian.PutUint16(raw[(i*d.channels+ch)*2:], uint16(clamp16(s)))
		}
	}

	written := d.carry.emit(p, raw)
	d.pos += int64(written)
	return written, nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos := clampOutputPos(d.pos, offset, d.totalBytes, whence)

	sample := uint64(newPos / (int64(d.channels) * 2))
	if _, err := d.stream.Seek(sample); err != nil {
		return d.pos, err
	}

	d.carry.reset()
	d.pos = newPos
	return newPos, nil
}

func (d *flacDecoder) Length() int64     { return d.totalBytes }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis ---

type oggDecoder struct {
	reader     *oggvorbis.Reader
	carry      carryover
	pos        int64
	totalBytes int64
	sampleRate int
	channels   int
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	return &oggDecoder{
		reader:     reader,
		sampleRate: reader.SampleRate(),
		channels:   channels,
		totalBytes: reader.Length() * int64(channels) * 2,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.carry.drain(p); ok {
		d.pos += int64(n)
		return n, nil
	}

	samples := make([]float32, len(p)/2)
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := samples[i]
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}

	written := d.carry.emit(p, raw)
	d.pos += int64(written)
	return written, err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	newPos := clampOutputPos(d.pos, offset, d.totalBytes, whence)

	d.reader.SetPosition(newPos / (int64(d.channels) * 2))
	d.carry.reset()
	d.pos = newPos
	return newPos, nil
}

func (d *oggDecoder) Length() int64     { return d.totalBytes }
func (d *oggDecoder) SampleRate() int   { return d.sampleRate }
func (d *oggDecoder) ChannelCount() int { return d.channels }
