// Package audio records from and plays to the default PortAudio devices.
package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"voxagent/pkg/stt"
)

// ErrNothingHeard wraps stt.ErrNoAudio so callers need not import audio.
var ErrNothingHeard = fmt.Errorf("no speech detected: %w", stt.ErrNoAudio)

type Recorder struct {
	cfg stt.EndpointConfig
	log *log.Logger
}

func NewRecorder(maxLength time.Duration) *Recorder {
	cfg := stt.DefaultEndpointConfig()
	if maxLength > 0 {
		cfg.MaxLength = maxLength
	}
	return &Recorder{
		cfg: cfg,
		log: log.Default().With("component", "audio.recorder"),
	}
}

// Init initializes PortAudio. Pair every Init with a Close; the Player shares
// the same library state.
func Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	return nil
}

func Close() {
	portaudio.Terminate()
}

// Record captures one utterance at stt.SampleRate, ending on trailing silence
// or the length limit. ErrNothingHeard is returned when nobody spoke.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, r.cfg.FrameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	ep := stt.NewEndpointer(r.cfg)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input stream: %w", err)
		}
		if ep.Push(buf) {
			break
		}
	}

	if !ep.Heard() {
		return nil, ErrNothingHeard
	}

	pcm := ep.Samples()
	r.log.Debug("Recorded", "samples", len(pcm), "seconds", float64(len(pcm))/float64(r.cfg.SampleRate))
	return pcm, nil
}
