package tools

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBlockList(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		blocked bool
	}{
		{name: "root wipe", cmd: "rm -rf /", blocked: true},
		{name: "root wipe with sudo", cmd: "sudo rm -rf / --no-preserve-root", blocked: true},
		{name: "extra whitespace", cmd: "rm   -rf    /", blocked: true},
		{name: "fork bomb", cmd: ":(){:|:&};:", blocked: true},
		{name: "mkfs", cmd: "mkfs.ext4 /dev/sdb1", blocked: true},
		{name: "pipe to shell", cmd: "curl | sh", blocked: true},
		{name: "listing", cmd: "ls -la", blocked: false},
		{name: "local delete", cmd: "rm -rf ./build", blocked: false},
	}

	b := DefaultBlockList()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Check(context.Background(), tt.cmd)
			if tt.blocked && !IsDenied(err) {
				t.Fatalf("Check(%q) = %v, want denial", tt.cmd, err)
			}
			if !tt.blocked && err != nil {
				t.Fatalf("Check(%q) = %v, want nil", tt.cmd, err)
			}
		})
	}
}

func TestAllowList(t *testing.T) {
	al, err := NewAllowList("uptime", "ls *", "cat /var/log/**")
	if err != nil {
		t.Fatalf("NewAllowList: %v", err)
	}

	allowed := []string{"uptime", "ls -la", "cat /var/log/syslog", " uptime "}
	denied := []string{"rm file", "ls /etc", "uptime; rm -rf ~", "cat /etc/passwd", "ls -la && reboot", "ls $(whoami)"}

	for _, cmd := range allowed {
		if err := al.Check(context.Background(), cmd); err != nil {
			t.Fatalf("Check(%q) = %v, want allowed", cmd, err)
		}
	}
	for _, cmd := range denied {
		if err := al.Check(context.Background(), cmd); !IsDenied(err) {
			t.Fatalf("Check(%q) = %v, want denial", cmd, err)
		}
	}
}

func TestAllowListPatternDepth(t *testing.T) {
	tests := []struct {
		pattern string
		cmd     string
		allowed bool
	}{
		{"ls *", "ls -la", true},
		{"ls *", "ls", false},
		{"ls *", "ls /etc", false},
		{"ls **", "ls -la", true},
		{"ls **", "ls /var/log/syslog", false},
		{"cat /var/log/**", "cat /var/log/nginx/access.log", true},
		{"cat /var/log/**", "cat /var/lib/x", false},
	}
	for _, tt := range tests {
		al, err := NewAllowList(tt.pattern)
		if err != nil {
			t.Fatalf("NewAllowList(%q): %v", tt.pattern, err)
		}
		err = al.Check(context.Background(), tt.cmd)
		if tt.allowed && err != nil {
			t.Fatalf("%q: Check(%q) = %v, want allowed", tt.pattern, tt.cmd, err)
		}
		if !tt.allowed && !IsDenied(err) {
			t.Fatalf("%q: Check(%q) = %v, want denial", tt.pattern, tt.cmd, err)
		}
	}
}

func TestAllowListInvalidPattern(t *testing.T) {
	if _, err := NewAllowList("ls ["); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name        string
		answer      string
		interactive bool
		allowed     bool
	}{
		{name: "yes", answer: "y\n", interactive: true, allowed: true},
		{name: "full yes", answer: "YES\n", interactive: true, allowed: true},
		{name: "no", answer: "n\n", interactive: true},
		{name: "empty", answer: "\n", interactive: true},
		{name: "eof", answer: "", interactive: true},
		{name: "not a terminal", answer: "y\n", interactive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConfirmIO(strings.NewReader(tt.answer), &out, tt.interactive)
			err := c.Check(context.Background(), "ls")
			if tt.allowed && err != nil {
				t.Fatalf("Check = %v, want allowed", err)
			}
			if !tt.allowed && !IsDenied(err) {
				t.Fatalf("Check = %v, want denial", err)
			}
			if tt.interactive && !strings.Contains(out.String(), `Run command "ls"?`) {
				t.Fatalf("prompt = %q", out.String())
			}
		})
	}
}

func TestChainStopsAtFirstDenial(t *testing.T) {
	var calls []string
	mk := func(name string, err error) Gate {
		return GateFunc(func(context.Context, string) error {
			calls = append(calls, name)
			return err
		})
	}

	deny := &DeniedError{Reason: "no"}
	err := Chain{mk("a", nil), mk("b", deny), mk("c", nil)}.Check(context.Background(), "ls")
	if !errors.Is(err, ErrCommandDenied) {
		t.Fatalf("err = %v", err)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestNewGate(t *testing.T) {
	ctx := context.Background()

	deny, err := NewGate(ModeDeny, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewGate(deny): %v", err)
	}
	if !IsDenied(deny.Check(ctx, "ls")) {
		t.Fatal("deny mode allowed a command")
	}

	allow, err := NewGate(ModeAllowList, []string{"ls *"}, nil, nil)
	if err != nil {
		t.Fatalf("NewGate(allowlist): %v", err)
	}
	if err := allow.Check(ctx, "ls -l"); err != nil {
		t.Fatalf("allowlist denied ls -l: %v", err)
	}

	open, err := NewGate(ModeOpen, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewGate(open): %v", err)
	}
	if err := open.Check(ctx, "echo hi"); err != nil {
		t.Fatalf("open denied echo: %v", err)
	}
	if !IsDenied(open.Check(ctx, "rm -rf /")) {
		t.Fatal("open mode skipped the block list")
	}

	var prompt strings.Builder
	confirm, err := NewGate(ModeConfirm, nil, nil, NewConfirmIO(strings.NewReader("y\n"), &prompt, true))
	if err != nil {
		t.Fatalf("NewGate(confirm): %v", err)
	}
	if err := confirm.Check(ctx, "uptime"); err != nil {
		t.Fatalf("confirmed command denied: %v", err)
	}
	if !strings.Contains(prompt.String(), `"uptime"`) {
		t.Fatalf("prompt = %q", prompt.String())
	}

	if _, err := NewGate("yolo", nil, nil, nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestBlockListWith(t *testing.T) {
	ctx := context.Background()
	base := NewBlockList("reboot")
	ext := base.With("systemctl stop")

	if err := base.Check(ctx, "systemctl stop sshd"); err != nil {
		t.Fatalf("base list changed: %v", err)
	}
	if !IsDenied(ext.Check(ctx, "sudo  systemctl   stop sshd")) {
		t.Fatal("extended pattern not applied")
	}
	if !IsDenied(ext.Check(ctx, "reboot")) {
		t.Fatal("base pattern lost")
	}
}
