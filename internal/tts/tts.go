// Package tts turns the assistant's answers into speech.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
)

var ErrNoAPIKey = errors.New("tts: API key required")

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Player plays signed 16-bit little-endian mono PCM.
type Player interface {
	Play(ctx context.Context, pcm io.Reader, sampleRate int) error
}

// Ducker lowers other audio while the assistant talks.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type SpeakerFunc func(ctx context.Context, text string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

// Silent logs the answer and produces no audio.
type Silent struct{}

func (Silent) Speak(_ context.Context, text string) error {
	log.Default().With("component", "tts.silent").Debug("Answer", "text", text)
	return nil
}

// Ducked wraps a speaker and ducks other streams for the duration of every
// Speak. Ducking failures are logged, they never block speech.
type Ducked struct {
	Speaker Speaker
	Ducker  Ducker

	log *log.Logger
}

func NewDucked(s Speaker, d Ducker) *Ducked {
	return &Ducked{
		Speaker: s,
		Ducker:  d,
		log:     log.Default().With("component", "tts.duck"),
	}
}

func (d *Ducked) Speak(ctx context.Context, text string) error {
	if err := d.Ducker.Duck(ctx); err != nil {
		d.log.Warn("Failed to duck other streams", "error", err)
	}
	defer func() {
		// Restore even when ctx is already cancelled.
		if err := d.Ducker.Restore(context.WithoutCancel(ctx)); err != nil {
			d.log.Warn("Failed to restore other streams", "error", err)
		}
	}()

	return d.Speaker.Speak(ctx, text)
}

// Tee speaks through every speaker in order and stops at the first failure.
type Tee []Speaker

func (t Tee) Speak(ctx context.Context, text string) error {
	for i, s := range t {
		if err := s.Speak(ctx, text); err != nil {
			return fmt.Errorf("speaker %d: %w", i, err)
		}
	}
	return nil
}
