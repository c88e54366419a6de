// Package audioconv decodes audio files into mono float32 PCM at the
// sample rate the speech recognizers expect.
package audioconv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultSampleRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	// SampleRate of the output. Zero means DefaultSampleRate.
	SampleRate int
	// MaxDuration truncates the output. Zero keeps everything.
	MaxDuration time.Duration
}

func (o Options) rate() int {
	if o.SampleRate > 0 {
		return o.SampleRate
	}
	return DefaultSampleRate
}

// ConvertFile decodes the file at path. The format is chosen by extension,
// falling back to the file's magic bytes.
func ConvertFile(ctx context.Context, path string, opt Options) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pcm, err := Decode(f, filepath.Ext(path), opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pcm, nil
}

// Decode reads wav, mp3 or ogg (vorbis, or opus when built with the opus
// tag) from r. ext is a format hint such as ".wav" and may be empty.
func Decode(r io.ReadSeeker, ext string, opt Options) ([]float32, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return finish(decodeWAV(r), opt)
	case ".mp3":
		return finish(decodeMP3(r), opt)
	case ".ogg", ".oga", ".opus":
		return finish(decodeOgg(r), opt)
	}

	magic, _ := bufio.NewReader(r).Peek(4)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind: %w", err)
	}

	switch {
	case string(magic) == "RIFF":
		return finish(decodeWAV(r), opt)
	case string(magic) == "OggS":
		return finish(decodeOgg(r), opt)
	case len(magic) >= 3 && (string(magic[:3]) == "ID3" || (magic[0] == 0xFF && magic[1]&0xE0 == 0xE0)):
		return finish(decodeMP3(r), opt)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
}

// decoded is interleaved samples in [-1, 1] with their layout.
type decoded struct {
	samples  []float32
	channels int
	rate     int
	err      error
}

func finish(d decoded, opt Options) ([]float32, error) {
	if d.err != nil {
		return nil, d.err
	}

	x := Downmix(d.samples, d.channels)
	x = Resample(x, d.rate, opt.rate())

	if opt.MaxDuration > 0 {
		n := int(opt.MaxDuration.Seconds() * float64(opt.rate()))
		if len(x) > n {
			x = x[:n]
		}
	}
	return x, nil
}

func decodeOgg(r io.ReadSeeker) decoded {
	d := decodeVorbis(r)
	if d.err == nil {
		return d
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return decoded{err: fmt.Errorf("rewind: %w", err)}
	}

	o := decodeOpus(r)
	if o.err != nil {
		return decoded{err: fmt.Errorf("ogg: not vorbis (%v) nor opus (%w)", d.err, o.err)}
	}
	return o
}
