package tts

import (
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultModel        = "gpt-4o-mini-tts"
	DefaultVoice        = "coral"
	DefaultInstructions = "Speak in a cheerful manner and positive tone"

	// SampleRate of the pcm response format.
	SampleRate = 24000
)

type openAIConfig struct {
	baseURL      string
	client       *http.Client
	model        string
	voice        string
	instructions string
}

type Option func(*openAIConfig)

func WithBaseURL(url string) Option {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithHTTPClient routes requests through c, e.g. a SOCKS5 proxied client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *openAIConfig) { cfg.client = c }
}

func WithModel(model string) Option {
	return func(c *openAIConfig) {
		if model != "" {
			c.model = model
		}
	}
}

func WithVoice(voice string) Option {
	return func(c *openAIConfig) {
		if voice != "" {
			c.voice = voice
		}
	}
}

func WithInstructions(s string) Option {
	return func(c *openAIConfig) { c.instructions = s }
}

// OpenAI synthesizes speech with the OpenAI audio API and plays the raw PCM
// as it arrives.
type OpenAI struct {
	api    openai.Client
	player Player
	cfg    openAIConfig
	log    *log.Logger
}

func NewOpenAI(apiKey string, player Player, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	cfg := openAIConfig{
		model:        DefaultModel,
		voice:        DefaultVoice,
		instructions: DefaultInstructions,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.client != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.client))
	}

	return &OpenAI{
		api:    openai.NewClient(reqOpts...),
		player: player,
		cfg:    cfg,
		log:    log.Default().With("component", "tts.openai"),
	}, nil
}

func (o *OpenAI) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	params := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.cfg.model),
		Voice:          openai.AudioSpeechNewParamsVoice(o.cfg.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	}
	if o.cfg.instructions != "" {
		params.Instructions = openai.String(o.cfg.instructions)
	}

	resp, err := o.api.Audio.Speech.New(ctx, params)
	if err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	defer resp.Body.Close()

	o.log.Debug("Speaking", "chars", len(text), "voice", o.cfg.voice)

	if err := o.player.Play(ctx, resp.Body, SampleRate); err != nil {
		return fmt.Errorf("play speech: %w", err)
	}
	return nil
}
