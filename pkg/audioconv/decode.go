package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

func decodeWAV(r io.ReadSeeker) decoded {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return decoded{err: errors.New("invalid wav")}
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return decoded{err: fmt.Errorf("wav: %w", err)}
	}
	if buf == nil || len(buf.Data) == 0 {
		return decoded{err: errors.New("empty wav")}
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}

	d := decoded{
		samples:  IntsToFloat(buf.Data, depth),
		channels: 1,
		rate:     44100,
	}
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			d.channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			d.rate = buf.Format.SampleRate
		}
	}
	return d
}

// decodeMP3 relies on go-mp3 always producing 16-bit stereo.
func decodeMP3(r io.Reader) decoded {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return decoded{err: fmt.Errorf("mp3: %w", err)}
	}

	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return decoded{err: fmt.Errorf("mp3: %w", err)}
	}

	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, ints); err != nil {
		return decoded{err: fmt.Errorf("mp3: %w", err)}
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return decoded{samples: Int16ToFloat(ints), channels: 2, rate: rate}
}

func decodeVorbis(r io.Reader) decoded {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return decoded{err: fmt.Errorf("vorbis: %w", err)}
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return decoded{err: errors.New("invalid vorbis stream")}
	}
	return decoded{samples: pcm, channels: format.Channels, rate: format.SampleRate}
}
