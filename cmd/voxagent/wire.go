package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/term"

	"voxagent/internal/agent"
	"voxagent/internal/audio"
	"voxagent/internal/audio/pulse"
	"voxagent/internal/bus"
	"voxagent/internal/config"
	"voxagent/internal/display"
	"voxagent/internal/ipc"
	"voxagent/internal/listen"
	"voxagent/internal/nlu"
	"voxagent/internal/notify"
	"voxagent/internal/proxy"
	"voxagent/internal/tools"
	"voxagent/internal/tts"
	"voxagent/internal/tts/espeak"
	"voxagent/pkg/audioconv"
	"voxagent/pkg/stt"
	"voxagent/pkg/stt/whisper"
)

// sourceNone builds no listener; used by ask.
const sourceNone = ""

// selfNames are the PulseAudio application names of our own playback,
// which ducking leaves alone.
var selfNames = []string{"voxagent", "ALSA plug-in [voxagent]", "PortAudio"}

type options struct {
	source string
	speak  bool
	ipc    bool
}

type app struct {
	controller *agent.Controller
	listener   agent.Listener
	closers    []func() error
}

func (a *app) onClose(f func() error) { a.closers = append(a.closers, f) }

// Close releases everything assemble opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func assemble(ctx context.Context, cfg config.Config, opt options) (*app, error) {
	a := &app{}
	if err := a.build(ctx, cfg, opt); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context, cfg config.Config, opt options) error {
	httpClient, err := proxy.NewSocksClient(cfg.Proxy.Addr, cfg.Proxy.Timeout)
	if err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	api := newOpenAI(cfg, httpClient)

	// The console listener and the confirmation prompt share stdin.
	stdin := bufio.NewReader(os.Stdin)
	confirm := tools.NewConfirmIO(stdin, os.Stderr, term.IsTerminal(int(os.Stdin.Fd())))

	registry, err := tools.FromConfig(cfg.Tools, httpClient, confirm)
	if err != nil {
		return err
	}

	needAudio := opt.source == config.SourceMic || (opt.speak && cfg.Speech.Engine == config.EngineOpenAI)
	if needAudio {
		if err := audio.Init(); err != nil {
			return err
		}
		a.onClose(func() error { audio.Close(); return nil })
	}

	speaker, err := newSpeaker(cfg, opt, httpClient)
	if err != nil {
		return err
	}

	var trigger chan struct{}
	if cfg.Listen.Trigger && opt.ipc {
		trigger = make(chan struct{}, 1)
	}

	switch opt.source {
	case sourceNone:
	case config.SourceMic:
		tr, err := newTranscriber(cfg, api, a)
		if err != nil {
			return err
		}
		var cue listen.Cue
		if cfg.Listen.Cue != "" {
			cue = notify.NewCue(cfg.Listen.Cue)
		}
		a.listener = listen.NewMic(audio.NewRecorder(cfg.Listen.MaxAudio), tr, cue)

	case config.SourceConsole:
		a.listener = listen.NewConsole(stdin, os.Stdout, "you> ")

	case config.SourceFiles:
		tr, err := newTranscriber(cfg, api, a)
		if err != nil {
			return err
		}
		decode := func(ctx context.Context, path string) ([]float32, error) {
			return audioconv.ConvertFile(ctx, path, audioconv.Options{SampleRate: stt.SampleRate})
		}
		a.listener = listen.NewFiles(cfg.Listen.Files, decode, tr)

	case config.SourceBus:
		client, err := bus.Dial(ctx, cfg.Bus.URL, cfg.Bus.Name, cfg.Bus.Reconn)
		if err != nil {
			return err
		}
		a.onClose(client.Close)
		a.listener = client.Source()
		speaker = tts.Tee{client.Replier(), speaker}

	default:
		return fmt.Errorf("unknown source %q", opt.source)
	}

	if trigger != nil && a.listener != nil {
		a.listener = listen.NewTriggered(trigger, a.listener)
	}

	transcript := agent.NewTranscript(agent.SystemPrompt(registry.Catalog()), agent.Window{
		MaxTurns: cfg.Agent.Window.MaxTurns,
		MaxChars: cfg.Agent.Window.MaxChars,
	})

	printer := display.New(os.Stdout, display.Options{
		Markdown:  cfg.Display.Markdown,
		Clipboard: cfg.Display.Clipboard,
		Width:     cfg.Display.Width,
		States:    cfg.Log.Level == "debug",
	})

	controller, err := agent.NewController(nlu.NewClient(api, cfg.OpenAI.Model), registry, speaker, transcript, agent.Config{
		MaxSteps:      cfg.Agent.MaxSteps,
		RepeatLimit:   cfg.Agent.RepeatLimit,
		ModelTimeout:  cfg.Agent.ModelTimeout,
		GiveUp:        cfg.Agent.GiveUp,
		ObserveDetail: cfg.Agent.ObserveDetail,
		Observer:      printer,
	})
	if err != nil {
		return err
	}
	a.controller = controller

	if opt.ipc {
		srv := ipc.NewServer(cfg.IPC.Socket, ipc.Dispatch(trigger, controller.Reset))
		if err := srv.Listen(); err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(); err != nil {
				log.Error("IPC server stopped", "error", err)
			}
		}()
		a.onClose(srv.Close)
		log.Debug("Control socket ready", "socket", cfg.IPC.Socket)
	}

	return nil
}

func newOpenAI(cfg config.Config, httpClient *http.Client) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAI.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	return openai.NewClient(opts...)
}

func newTranscriber(cfg config.Config, api openai.Client, a *app) (stt.Transcriber, error) {
	switch cfg.Listen.STT {
	case config.STTOpenAI:
		return stt.NewRemote(api, cfg.Listen.Language), nil
	default:
		m, err := whisper.Load(cfg.Listen.Whisper, whisper.Options{Language: cfg.Listen.Language})
		if err != nil {
			return nil, err
		}
		a.onClose(m.Close)
		log.Debug("Loaded whisper", "model", cfg.Listen.Whisper)
		return m, nil
	}
}

func newSpeaker(cfg config.Config, opt options, httpClient *http.Client) (tts.Speaker, error) {
	if !opt.speak {
		return tts.Silent{}, nil
	}

	var s tts.Speaker
	switch cfg.Speech.Engine {
	case config.EngineOpenAI:
		o, err := tts.NewOpenAI(cfg.OpenAI.APIKey, audio.NewPlayer(),
			tts.WithBaseURL(cfg.OpenAI.BaseURL),
			tts.WithHTTPClient(httpClient),
			tts.WithModel(cfg.Speech.Model),
			tts.WithVoice(cfg.Speech.Voice),
			tts.WithInstructions(cfg.Speech.Instructions),
		)
		if err != nil {
			return nil, err
		}
		s = o
	case config.EngineEspeak:
		s = espeak.New(cfg.Speech.Language)
	default:
		return tts.Silent{}, nil
	}

	if cfg.Speech.Duck {
		s = tts.NewDucked(s, pulse.NewDucker(selfNames, cfg.Speech.DuckFactor))
	}
	return s, nil
}
