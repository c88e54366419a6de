package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"voxagent/internal/agent"
)

func TestPrinterSteps(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{})

	p.OnStep("s", agent.Step{Kind: agent.KindStart, Content: "What is the weather in Karachi?"})
	p.OnStep("s", agent.Step{Kind: agent.KindPlan, Content: "I should call get_weather"})
	p.OnStep("s", agent.Step{Kind: agent.KindTool, Tool: "get_weather", Input: "karachi"})
	p.OnObservation("s", agent.Observation{Step: agent.KindObserve, Output: "The Weather in karachi is Sunny +31°C"})
	p.OnObservation("s", agent.Observation{Step: agent.KindObserve, Error: "command denied"})
	p.OnStep("s", agent.Step{Kind: agent.KindOutput, Content: "It is sunny in Karachi."})

	want := []string{
		"🔥 What is the weather in Karachi?",
		"🧠 I should call get_weather",
		"🧰 get_weather(karachi)",
		"→ The Weather in karachi is Sunny +31°C",
		"✗ command denied",
		"🤖 It is sunny in Karachi.",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(got), buf.String())
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrinterStates(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{}).OnState("01HXYZABCDEFGH", agent.AwaitingModel)
	if buf.Len() != 0 {
		t.Fatalf("states printed without Options.States: %q", buf.String())
	}

	New(&buf, Options{States: true}).OnState("01HXYZABCDEFGH", agent.AwaitingModel)
	if got := buf.String(); !strings.Contains(got, "AWAITING_MODEL") || !strings.Contains(got, "ABCDEFGH") {
		t.Fatalf("state line = %q", got)
	}
}

func TestPrinterClipboard(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Clipboard: true})

	var copied []string
	p.copy = func(s string) error {
		copied = append(copied, s)
		return errors.New("no clipboard")
	}

	p.OnStep("s", agent.Step{Kind: agent.KindPlan, Content: "thinking"})
	p.OnStep("s", agent.Step{Kind: agent.KindOutput, Content: "3.5"})

	if len(copied) != 1 || copied[0] != "3.5" {
		t.Fatalf("copied = %q", copied)
	}
	if !strings.Contains(buf.String(), "🤖 3.5") {
		t.Fatalf("answer not printed despite clipboard failure: %q", buf.String())
	}
}

func TestPrinterMarkdown(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Markdown: true, Width: 60})
	p.OnStep("s", agent.Step{Kind: agent.KindOutput, Content: "**3.5**"})

	out := buf.String()
	if !strings.Contains(out, "🤖") || !strings.Contains(out, "3.5") {
		t.Fatalf("markdown answer = %q", out)
	}
}
