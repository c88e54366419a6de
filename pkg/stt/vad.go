package stt

import (
	"math"
	"time"
)

// Endpointer finds the end of an utterance in a stream of fixed-size frames
// using an RMS threshold. Leading silence is dropped; the utterance ends
// after a run of quiet frames or at the length limit.
type Endpointer struct {
	threshold float64
	hangover  int
	maxFrames int

	speaking bool
	quiet    int
	frames   int
	out      []float32
}

type EndpointConfig struct {
	SampleRate int
	FrameSize  int
	Threshold  float64       // frame RMS that counts as speech
	Silence    time.Duration // trailing silence that ends the utterance
	MaxLength  time.Duration
}

func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		SampleRate: SampleRate,
		FrameSize:  320, // 20ms
		Threshold:  0.015,
		Silence:    600 * time.Millisecond,
		MaxLength:  10 * time.Second,
	}
}

func NewEndpointer(cfg EndpointConfig) *Endpointer {
	def := DefaultEndpointConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = def.FrameSize
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Silence <= 0 {
		cfg.Silence = def.Silence
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = def.MaxLength
	}

	frame := time.Duration(cfg.FrameSize) * time.Second / time.Duration(cfg.SampleRate)
	hangover := int((cfg.Silence + frame - 1) / frame)
	maxFrames := int(cfg.MaxLength / frame)
	if maxFrames < 1 {
		maxFrames = 1
	}

	return &Endpointer{
		threshold: cfg.Threshold,
		hangover:  hangover,
		maxFrames: maxFrames,
		out:       make([]float32, 0, cfg.SampleRate*3),
	}
}

// Push adds one frame and reports whether the utterance is complete.
func (e *Endpointer) Push(frame []float32) bool {
	e.frames++

	if RMS(frame) > e.threshold {
		e.speaking = true
		e.quiet = 0
		e.out = append(e.out, frame...)
	} else if e.speaking {
		e.quiet++
		if e.quiet >= e.hangover {
			return true
		}
		e.out = append(e.out, frame...)
	}

	return e.frames >= e.maxFrames
}

// Samples returns the utterance collected so far.
func (e *Endpointer) Samples() []float32 { return e.out }

// Heard reports whether any frame crossed the threshold.
func (e *Endpointer) Heard() bool { return e.speaking }

func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var s float64
	for _, x := range frame {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s / float64(len(frame)))
}
