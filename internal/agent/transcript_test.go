package agent

import (
	"reflect"
	"strings"
	"testing"
)

func TestTranscriptAppendPreservesOrder(t *testing.T) {
	tr := NewTranscript("sys", Window{})
	tr.Begin("hello")

	before := tr.Turns()
	tr.Append(RoleAssistant, `{"step":"PLAN","content":"x"}`)
	after := tr.Turns()

	want := append(append([]Turn(nil), before...), Turn{Role: RoleAssistant, Content: `{"step":"PLAN","content":"x"}`})
	if !reflect.DeepEqual(after, want) {
		t.Fatalf("after append = %+v, want %+v", after, want)
	}
	if tr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tr.Len())
	}
	if after[0] != (Turn{Role: RoleSystem, Content: "sys"}) {
		t.Fatalf("first turn = %+v", after[0])
	}
}

func TestTranscriptTurnsIsACopy(t *testing.T) {
	tr := NewTranscript("sys", Window{})
	tr.Begin("hello")

	turns := tr.Turns()
	turns[1].Content = "changed"

	if tr.Turns()[1].Content != "hello" {
		t.Fatal("Turns() exposed internal state")
	}
}

func session(tr *Transcript, user string, replies ...string) {
	tr.Begin(user)
	for _, r := range replies {
		tr.Append(RoleAssistant, r)
	}
}

func contents(turns []Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}

func TestTranscriptEvictsWholeSessions(t *testing.T) {
	tr := NewTranscript("sys", Window{MaxTurns: 5})

	session(tr, "u1", "a1", "a1b")
	session(tr, "u2", "a2")
	if got := tr.Len(); got != 6 {
		t.Fatalf("Len() = %d, want 6", got)
	}

	// u3 would make 6 non-system turns; the whole first session goes.
	if n := tr.Begin("u3"); n != 3 {
		t.Fatalf("evicted %d turns, want 3", n)
	}

	want := []string{"sys", "u2", "a2", "u3"}
	if got := contents(tr.Turns()); !reflect.DeepEqual(got, want) {
		t.Fatalf("turns = %v, want %v", got, want)
	}
}

func TestTranscriptKeepsCurrentSession(t *testing.T) {
	tr := NewTranscript("sys", Window{MaxTurns: 2})

	session(tr, "u1", "a1", "a2", "a3")
	tr.Begin("u2")
	for i := 0; i < 5; i++ {
		tr.Append(RoleAssistant, "plan")
	}

	turns := tr.Turns()
	if turns[0].Role != RoleSystem {
		t.Fatalf("system turn evicted: %+v", turns[0])
	}
	if turns[1].Content != "u2" {
		t.Fatalf("current session lost its user turn: %v", contents(turns))
	}
	if len(turns) != 7 {
		t.Fatalf("len = %d, want 7", len(turns))
	}
}

func TestTranscriptCharWindow(t *testing.T) {
	tr := NewTranscript(strings.Repeat("s", 1000), Window{MaxChars: 10})

	session(tr, "aaaa", "bbbb")
	session(tr, "cc", "dd")
	tr.Begin("e")

	got := contents(tr.Turns()[1:])
	want := []string{"cc", "dd", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("turns = %v, want %v", got, want)
	}
}

func TestTranscriptUnboundedWindow(t *testing.T) {
	tr := NewTranscript("sys", Window{})
	for i := 0; i < 50; i++ {
		if n := tr.Begin("u"); n != 0 {
			t.Fatalf("evicted %d turns with an unbounded window", n)
		}
		tr.Append(RoleAssistant, "a")
	}
	if tr.Len() != 101 {
		t.Fatalf("Len() = %d, want 101", tr.Len())
	}
}

func TestTranscriptReset(t *testing.T) {
	tr := NewTranscript("sys", Window{})
	session(tr, "u1", "a1")
	tr.Reset()

	turns := tr.Turns()
	if len(turns) != 1 || turns[0].Content != "sys" {
		t.Fatalf("turns after reset = %+v", turns)
	}
}
