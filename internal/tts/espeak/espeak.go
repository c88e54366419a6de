// Package espeak speaks offline through libespeak-ng.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
say(const char *text, const char *lang)
{
	if (!text)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE voice = { 0 };
	voice.languages = lang;
	espeak_SetVoiceByProperties(&voice);

	espeak_ERROR rc = espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return rc == EE_OK ? 0 : -3;
}
*/
import "C"

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"unsafe"
)

// Speaker blocks until espeak has finished playing. libespeak-ng keeps
// global state, so calls are serialized.
type Speaker struct {
	mu   sync.Mutex
	lang string
	log  *log.Logger
}

func New(lang string) *Speaker {
	if lang == "" {
		lang = "en"
	}
	return &Speaker{
		lang: lang,
		log:  log.Default().With("component", "tts.espeak"),
	}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(s.lang)
	defer C.free(unsafe.Pointer(clang))

	s.log.Debug("Speaking", "chars", len(text), "lang", s.lang)

	if rc := C.say(ctext, clang); rc != 0 {
		return fmt.Errorf("espeak failed: %d", int(rc))
	}
	return nil
}
