// Package notify plays short audio cues, e.g. when the assistant starts
// listening.
package notify

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Cue plays an mp3 file. The speaker is initialized on first use with the
// file's sample rate.
type Cue struct {
	path string
	once sync.Once
	err  error
	log  *log.Logger
}

func NewCue(path string) *Cue {
	return &Cue{
		path: path,
		log:  log.Default().With("component", "notify"),
	}
}

// Play blocks until the cue has finished or ctx is done.
func (c *Cue) Play(ctx context.Context) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("open cue: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode cue %s: %w", c.path, err)
	}
	defer streamer.Close()

	c.once.Do(func() {
		c.err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if c.err != nil {
		return fmt.Errorf("init speaker: %w", c.err)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
