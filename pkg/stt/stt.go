// Package stt turns recorded speech into text.
//
// Audio is always mono float32 PCM in [-1, 1] at SampleRate.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const SampleRate = 16000

var ErrNoAudio = errors.New("no audio samples provided")

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

type TranscriberFunc func(ctx context.Context, pcm []float32) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	return f(ctx, pcm)
}

// EncodeWAV writes pcm as a 16-bit mono WAV file.
func EncodeWAV(w io.WriteSeeker, pcm []float32, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}

	data := make([]int, len(pcm))
	for i, s := range pcm {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * math.MaxInt16))
	}

	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
