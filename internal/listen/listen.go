// Package listen provides the sources of user utterances: the microphone,
// typed console input, audio files and push-to-talk.
package listen

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"sync"

	"voxagent/pkg/stt"
)

type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

// Cue signals that the assistant is about to listen.
type Cue interface {
	Play(ctx context.Context) error
}

// Mic records one utterance per call and transcribes it. Silence yields an
// empty utterance instead of an error.
type Mic struct {
	rec Recorder
	stt stt.Transcriber
	cue Cue
	log *log.Logger
}

func NewMic(rec Recorder, t stt.Transcriber, cue Cue) *Mic {
	return &Mic{
		rec: rec,
		stt: t,
		cue: cue,
		log: log.Default().With("component", "listen.mic"),
	}
}

func (m *Mic) Listen(ctx context.Context) (string, error) {
	if m.cue != nil {
		if err := m.cue.Play(ctx); err != nil {
			m.log.Warn("Failed to play cue", "error", err)
		}
	}

	pcm, err := m.rec.Record(ctx)
	if errors.Is(err, stt.ErrNoAudio) {
		m.log.Debug("Nothing heard")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}

	text, err := m.stt.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	text = strings.TrimSpace(text)
	m.log.Info("Heard", "text", text)
	return text, nil
}

type line struct {
	text string
	err  error
}

// Console reads one utterance per line. A line is only read while Listen
// waits for it, so the same reader can be shared with a confirmation prompt
// between calls.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string

	once    sync.Once
	req     chan struct{}
	lines   chan line
	pending bool
}

// NewConsole reads from in. When out is not nil the prompt is written
// before every line.
func NewConsole(in *bufio.Reader, out io.Writer, prompt string) *Console {
	return &Console{in: in, out: out, prompt: prompt}
}

func (c *Console) start() {
	c.req = make(chan struct{})
	c.lines = make(chan line)
	go func() {
		defer close(c.lines)
		for range c.req {
			text, err := c.in.ReadString('\n')
			if err != nil && text == "" {
				if !errors.Is(err, io.EOF) {
					c.lines <- line{err: err}
				}
				return
			}
			c.lines <- line{text: text}
		}
	}()
}

func (c *Console) Listen(ctx context.Context) (string, error) {
	c.once.Do(c.start)

	if !c.pending {
		if c.out != nil && c.prompt != "" {
			fmt.Fprint(c.out, c.prompt)
		}
		c.req <- struct{}{}
		c.pending = true
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		// After EOF or a read error the reader is gone and pending stays set.
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", fmt.Errorf("read input: %w", l.err)
		}
		c.pending = false
		return strings.TrimSpace(l.text), nil
	}
}

// DecodeFunc loads an audio file as mono PCM at stt.SampleRate.
type DecodeFunc func(ctx context.Context, path string) ([]float32, error)

// Files transcribes each file once, in order, then reports io.EOF.
type Files struct {
	paths  []string
	decode DecodeFunc
	stt    stt.Transcriber
	next   int
	log    *log.Logger
}

func NewFiles(paths []string, decode DecodeFunc, t stt.Transcriber) *Files {
	return &Files{
		paths:  append([]string(nil), paths...),
		decode: decode,
		stt:    t,
		log:    log.Default().With("component", "listen.files"),
	}
}

func (f *Files) Listen(ctx context.Context) (string, error) {
	if f.next >= len(f.paths) {
		return "", io.EOF
	}
	path := f.paths[f.next]
	f.next++

	pcm, err := f.decode(ctx, path)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	text, err := f.stt.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	f.log.Info("Transcribed", "file", path, "text", text)
	return text, nil
}

// Triggered waits for a push-to-talk signal before every Listen of the
// wrapped listener.
type Triggered struct {
	trigger <-chan struct{}
	inner   Listener
	log     *log.Logger
}

func NewTriggered(trigger <-chan struct{}, inner Listener) *Triggered {
	return &Triggered{
		trigger: trigger,
		inner:   inner,
		log:     log.Default().With("component", "listen.trigger"),
	}
}

func (t *Triggered) Listen(ctx context.Context) (string, error) {
	t.log.Debug("Waiting for trigger")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case _, ok := <-t.trigger:
		if !ok {
			return "", io.EOF
		}
	}
	return t.inner.Listen(ctx)
}
