package tools

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available in PATH")
	}
}

func TestCommandRunReturnsExitStatus(t *testing.T) {
	requireShell(t)

	c := NewCommand(AllowAll{})
	res, err := c.Run(context.Background(), "echo hello; exit 3")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != 3 {
		t.Fatalf("output = %v, want 3", res.Output)
	}
	if got := strings.TrimSpace(res.Detail["output"].(string)); got != "hello" {
		t.Fatalf("captured output = %q", got)
	}
	if res.Detail["signaled"] != false {
		t.Fatalf("signaled = %v", res.Detail["signaled"])
	}
}

func TestCommandRunSuccess(t *testing.T) {
	requireShell(t)

	res, err := NewCommand(AllowAll{}).Run(context.Background(), "true")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != 0 {
		t.Fatalf("output = %v, want 0", res.Output)
	}
}

func TestCommandGateConsultedBeforeExecution(t *testing.T) {
	var seen []string
	gate := GateFunc(func(_ context.Context, cmd string) error {
		seen = append(seen, cmd)
		return &DeniedError{Command: cmd, Reason: "test"}
	})

	c := NewCommand(gate, WithShell("/nonexistent/shell"))
	_, err := c.Run(context.Background(), "rm -rf /")
	if !errors.Is(err, ErrCommandDenied) {
		t.Fatalf("err = %v, want ErrCommandDenied", err)
	}
	if len(seen) != 1 || seen[0] != "rm -rf /" {
		t.Fatalf("gate saw %v", seen)
	}
}

func TestCommandDefaultGateDenies(t *testing.T) {
	_, err := NewCommand(nil).Run(context.Background(), "ls")
	if !IsDenied(err) {
		t.Fatalf("err = %v, want denial", err)
	}
}

func TestCommandEmptyInput(t *testing.T) {
	_, err := NewCommand(AllowAll{}).Run(context.Background(), "  ")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestCommandTimeout(t *testing.T) {
	requireShell(t)

	c := NewCommand(AllowAll{}, WithCommandTimeout(50*time.Millisecond))
	res, err := c.Run(context.Background(), "sleep 5")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output == 0 {
		t.Fatal("timed out command reported success")
	}
	if _, ok := res.Detail["error"]; !ok {
		t.Fatalf("detail has no error: %v", res.Detail)
	}
}

func TestCommandTruncatesOutput(t *testing.T) {
	requireShell(t)

	c := NewCommand(AllowAll{}, WithMaxOutput(10))
	res, err := c.Run(context.Background(), "printf '%050d' 0")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := res.Detail["output"].(string)
	if !strings.HasPrefix(out, "0000000000\n[... 40 bytes truncated]") {
		t.Fatalf("output = %q", out)
	}
}
