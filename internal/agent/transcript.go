package agent

import "sync"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
)

type Turn struct {
	Role    Role
	Content string
}

// Window bounds the non-system part of the transcript. Zero fields are
// unbounded.
type Window struct {
	MaxTurns int
	MaxChars int
}

func (w Window) fits(turns []Turn) bool {
	if w.MaxTurns > 0 && len(turns) > w.MaxTurns {
		return false
	}
	if w.MaxChars > 0 {
		n := 0
		for _, t := range turns {
			n += len(t.Content)
		}
		if n > w.MaxChars {
			return false
		}
	}
	return true
}

// Transcript is the conversation shown to the model. The system turn is fixed
// at construction; everything after it is grouped into sessions, each starting
// with a user turn.
type Transcript struct {
	mu     sync.Mutex
	system Turn
	turns  []Turn
	window Window
}

func NewTranscript(system string, w Window) *Transcript {
	return &Transcript{
		system: Turn{Role: RoleSystem, Content: system},
		window: w,
	}
}

// Begin opens a new session with utterance as its user turn. Whole previous
// sessions are evicted oldest first until the window fits; the current
// session is kept even when it alone exceeds the window. Begin returns the
// number of evicted turns.
func (t *Transcript) Begin(utterance string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	user := Turn{Role: RoleUser, Content: utterance}
	evicted := 0
	for len(t.turns) > 0 && !t.window.fits(append(t.turns[:len(t.turns):len(t.turns)], user)) {
		end := len(t.turns)
		for i := 1; i < len(t.turns); i++ {
			if t.turns[i].Role == RoleUser {
				end = i
				break
			}
		}
		evicted += end
		t.turns = append([]Turn(nil), t.turns[end:]...)
	}

	t.turns = append(t.turns, user)
	return evicted
}

func (t *Transcript) Append(role Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, Turn{Role: role, Content: content})
}

// Turns returns a copy of the transcript, system turn first.
func (t *Transcript) Turns() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Turn, 0, len(t.turns)+1)
	out = append(out, t.system)
	return append(out, t.turns...)
}

// Len counts every turn including the system turn.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns) + 1
}

// Reset drops every turn except the system turn.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = nil
}
