// Package config loads the voxagent configuration: an optional YAML file,
// a .env file and the process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "voxagent.yaml"

type Config struct {
	OpenAI  OpenAI  `yaml:"openai"`
	Agent   Agent   `yaml:"agent"`
	Tools   Tools   `yaml:"tools"`
	Listen  Listen  `yaml:"listen"`
	Speech  Speech  `yaml:"speech"`
	Display Display `yaml:"display"`
	Bus     Bus     `yaml:"bus"`
	Proxy   Proxy   `yaml:"proxy"`
	IPC     IPC     `yaml:"ipc"`
	Log     Log     `yaml:"log"`
}

type OpenAI struct {
	// APIKey is normally left empty and taken from OPENAI_API_KEY.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type Agent struct {
	MaxSteps      int           `yaml:"max_steps"`
	RepeatLimit   int           `yaml:"repeat_limit"`
	ModelTimeout  time.Duration `yaml:"model_timeout"`
	GiveUp        string        `yaml:"give_up"`
	ObserveDetail bool          `yaml:"observe_detail"`
	Window        Window        `yaml:"window"`
}

type Window struct {
	MaxTurns int `yaml:"max_turns"`
	MaxChars int `yaml:"max_chars"`
}

type Tools struct {
	Weather Weather `yaml:"weather"`
	Command Command `yaml:"command"`
}

type Weather struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Command struct {
	Mode      string        `yaml:"mode"`
	Shell     string        `yaml:"shell"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxOutput int           `yaml:"max_output"`
	Allow     []string      `yaml:"allow"`
	// Block extends the built-in block list.
	Block []string `yaml:"block"`
}

type Listen struct {
	Source   string        `yaml:"source"`
	Trigger  bool          `yaml:"trigger"`
	STT      string        `yaml:"stt"`
	Whisper  string        `yaml:"whisper_model"`
	Language string        `yaml:"language"`
	Files    []string      `yaml:"files"`
	Cue      string        `yaml:"cue"`
	MaxAudio time.Duration `yaml:"max_audio"`
}

type Speech struct {
	Engine       string  `yaml:"engine"`
	Model        string  `yaml:"model"`
	Voice        string  `yaml:"voice"`
	Instructions string  `yaml:"instructions"`
	Language     string  `yaml:"language"`
	Duck         bool    `yaml:"duck"`
	DuckFactor   float64 `yaml:"duck_factor"`
}

type Display struct {
	Markdown  bool `yaml:"markdown"`
	Clipboard bool `yaml:"clipboard"`
	Width     int  `yaml:"width"`
}

type Bus struct {
	URL    string        `yaml:"url"`
	Name   string        `yaml:"name"`
	Reconn time.Duration `yaml:"reconnect"`
}

type Proxy struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

type IPC struct {
	Socket string `yaml:"socket"`
}

type Log struct {
	Level string `yaml:"level"`
}

const (
	SourceMic     = "mic"
	SourceConsole = "console"
	SourceFiles   = "files"
	SourceBus     = "bus"

	STTWhisper = "whisper"
	STTOpenAI  = "openai"

	EngineOpenAI = "openai"
	EngineEspeak = "espeak"
	EngineSilent = "silent"
)

func Default() Config {
	return Config{
		OpenAI: OpenAI{
			Model: "gpt-4o",
		},
		Agent: Agent{
			MaxSteps:     32,
			RepeatLimit:  3,
			ModelTimeout: 60 * time.Second,
			GiveUp:       "Sorry, I could not finish that.",
			Window: Window{
				MaxTurns: 200,
				MaxChars: 100_000,
			},
		},
		Tools: Tools{
			Weather: Weather{
				URL:     "http://wttr.in",
				Timeout: 10 * time.Second,
			},
			Command: Command{
				Mode:      "confirm",
				Shell:     "sh",
				Timeout:   30 * time.Second,
				MaxOutput: 4000,
			},
		},
		Listen: Listen{
			Source:   SourceMic,
			STT:      STTWhisper,
			Whisper:  "third_party/whisper.cpp/models/ggml-medium.bin",
			Language: "auto",
			Cue:      "beep.mp3",
			MaxAudio: 15 * time.Second,
		},
		Speech: Speech{
			Engine:       EngineOpenAI,
			Model:        "gpt-4o-mini-tts",
			Voice:        "coral",
			Instructions: "Speak in a cheerful manner and positive tone",
			Language:     "en",
			DuckFactor:   0.3,
		},
		Display: Display{
			Markdown: true,
		},
		Bus: Bus{
			URL:    "ws://localhost:8092/ws",
			Name:   "voxagent",
			Reconn: 2 * time.Second,
		},
		Proxy: Proxy{
			Timeout: 120 * time.Second,
		},
		IPC: IPC{
			Socket: "/tmp/voxagent.sock",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path over Default. A missing file is not an error when path is
// DefaultPath, so the binary runs without any configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// LoadEnv loads envFile into the process environment without overriding
// variables that are already set, then applies the environment to cfg.
// A missing envFile is ignored.
func LoadEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" && cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("VOXAGENT_PROXY"); v != "" && cfg.Proxy.Addr == "" {
		cfg.Proxy.Addr = v
	}
	return nil
}

// WithSource returns a copy of c that listens on source.
func (c Config) WithSource(source string) Config {
	c.Listen.Source = source
	return c
}

func (c Config) Validate() error {
	var errs []error

	if c.OpenAI.Model == "" {
		errs = append(errs, errors.New("openai.model is empty"))
	}
	if c.Agent.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps))
	}
	if c.Agent.ModelTimeout < 0 {
		errs = append(errs, errors.New("agent.model_timeout must not be negative"))
	}
	if c.Agent.Window.MaxTurns < 0 || c.Agent.Window.MaxChars < 0 {
		errs = append(errs, errors.New("agent.window limits must not be negative"))
	}

	switch c.Tools.Command.Mode {
	case "deny", "allowlist", "confirm", "open":
	default:
		errs = append(errs, fmt.Errorf("tools.command.mode %q is not one of deny, allowlist, confirm, open", c.Tools.Command.Mode))
	}
	if c.Tools.Command.Mode == "allowlist" && len(c.Tools.Command.Allow) == 0 {
		errs = append(errs, errors.New("tools.command.allow is empty in allowlist mode"))
	}
	if c.Tools.Weather.URL == "" {
		errs = append(errs, errors.New("tools.weather.url is empty"))
	}

	switch c.Listen.Source {
	case SourceMic:
		switch c.Listen.STT {
		case STTWhisper:
			if c.Listen.Whisper == "" {
				errs = append(errs, errors.New("listen.whisper_model is empty"))
			}
		case STTOpenAI:
		default:
			errs = append(errs, fmt.Errorf("listen.stt %q is not one of whisper, openai", c.Listen.STT))
		}
	case SourceFiles:
		if len(c.Listen.Files) == 0 {
			errs = append(errs, errors.New("listen.files is empty"))
		}
	case SourceBus:
		if c.Bus.URL == "" {
			errs = append(errs, errors.New("bus.url is empty"))
		}
	case SourceConsole:
	default:
		errs = append(errs, fmt.Errorf("listen.source %q is not one of mic, console, files, bus", c.Listen.Source))
	}

	switch c.Speech.Engine {
	case EngineOpenAI, EngineEspeak, EngineSilent:
	default:
		errs = append(errs, fmt.Errorf("speech.engine %q is not one of openai, espeak, silent", c.Speech.Engine))
	}
	if c.Speech.DuckFactor < 0 || c.Speech.DuckFactor > 1 {
		errs = append(errs, fmt.Errorf("speech.duck_factor must be within [0, 1], got %g", c.Speech.DuckFactor))
	}

	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
	}

	return errors.Join(errs...)
}
