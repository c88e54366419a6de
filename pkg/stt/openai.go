package stt

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

// Remote transcribes through the OpenAI audio API.
type Remote struct {
	api      openai.Client
	model    string
	language string
	log      *log.Logger
}

func NewRemote(api openai.Client, language string) *Remote {
	return &Remote{
		api:      api,
		model:    string(openai.AudioModelWhisper1),
		language: language,
		log:      log.Default().With("component", "stt.remote"),
	}
}

func (r *Remote) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", ErrNoAudio
	}

	f, err := os.CreateTemp("", "voxagent-*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := EncodeWAV(f, pcm, SampleRate); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind wav: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(r.model),
	}
	if r.language != "" && r.language != "auto" {
		params.Language = openai.String(r.language)
	}

	resp, err := r.api.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	r.log.Debug("Transcribed", "samples", len(pcm), "text", text)
	return text, nil
}
