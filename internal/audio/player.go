package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gordonklaus/portaudio"
)

// Player plays raw signed 16-bit little-endian mono PCM on the default
// output device.
type Player struct {
	frames int
}

func NewPlayer() *Player {
	return &Player{frames: 1024}
}

func (p *Player) Play(ctx context.Context, pcm io.Reader, sampleRate int) error {
	buf := make([]int16, p.frames)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	defer stream.Stop()

	raw := make([]byte, 2*len(buf))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(pcm, raw)
		if n > 0 {
			samples := n / 2
			for i := 0; i < samples; i++ {
				buf[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
			}
			clear(buf[samples:])
			if werr := stream.Write(); werr != nil {
				return fmt.Errorf("write output stream: %w", werr)
			}
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read pcm: %w", err)
		}
	}
}
