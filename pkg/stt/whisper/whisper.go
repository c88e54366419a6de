// Package whisper transcribes locally with a whisper.cpp model.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"runtime"
	"strings"
	"sync"

	wcpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"voxagent/pkg/stt"
)

type Options struct {
	Language      string // "auto", "en", "ru", ...
	TranslateToEn bool
	Threads       int // <=0 => NumCPU()
	InitialPrompt string
	BeamSize      int // 0 = greedy
	SplitOnWord   bool
	Temperature   float32
}

type Segment struct {
	Text     string
	StartSec float64
	EndSec   float64
}

type Result struct {
	Text     string
	Segments []Segment
	Language string // detected or forced
}

// Model wraps a loaded whisper.cpp model. Transcriptions are serialized; the
// underlying model is not safe for concurrent contexts.
type Model struct {
	mu    sync.Mutex
	model wcpp.Model
	opt   Options
	log   *log.Logger
}

func Load(modelPath string, opt Options) (*Model, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := wcpp.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	if opt.Language == "" {
		opt.Language = "auto"
	}
	return &Model{
		model: m,
		opt:   opt,
		log:   log.Default().With("component", "stt.whisper"),
	}, nil
}

func (m *Model) Close() error {
	if m.model == nil {
		return nil
	}
	return m.model.Close()
}

// Transcribe implements stt.Transcriber with the options given to Load.
func (m *Model) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	res, err := m.TranscribePCM(ctx, pcm, m.opt)
	if err != nil {
		return "", err
	}
	m.log.Debug("Transcribed", "samples", len(pcm), "language", res.Language, "segments", len(res.Segments))
	return res.Text, nil
}

// TranscribePCM runs one transcription with explicit options. pcm must be
// mono at stt.SampleRate.
func (m *Model) TranscribePCM(ctx context.Context, pcm []float32, opt Options) (Result, error) {
	if m.model == nil {
		return Result{}, errors.New("nil model")
	}
	if len(pcm) == 0 {
		return Result{}, stt.ErrNoAudio
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	wctx, err := m.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("new context: %w", err)
	}
	if err := configure(wctx, opt); err != nil {
		return Result{}, err
	}

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("process: %w", err)
	}

	var (
		segs  []Segment
		parts []string
	)
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		s, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("next segment: %w", err)
		}
		segs = append(segs, Segment{
			Text:     s.Text,
			StartSec: s.Start.Seconds(),
			EndSec:   s.End.Seconds(),
		})
		parts = append(parts, strings.TrimSpace(s.Text))
	}

	lang := wctx.DetectedLanguage()
	if lang == "" {
		lang = wctx.Language()
	}

	return Result{
		Text:     strings.Join(parts, " "),
		Segments: segs,
		Language: lang,
	}, nil
}

func configure(wctx wcpp.Context, opt Options) error {
	lang := opt.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return fmt.Errorf("set language %q: %w", lang, err)
	}
	wctx.SetTranslate(opt.TranslateToEn)

	threads := opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if opt.SplitOnWord {
		wctx.SetSplitOnWord(true)
	}
	if opt.BeamSize > 0 {
		wctx.SetBeamSize(opt.BeamSize)
	}
	if opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(opt.InitialPrompt)
	}
	if opt.Temperature != 0 {
		wctx.SetTemperature(opt.Temperature)
	}
	return nil
}
