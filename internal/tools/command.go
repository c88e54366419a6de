package tools

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const DefaultMaxOutput = 4000

// Command runs shell commands on the host. Every command passes through the
// gate before it is started.
type Command struct {
	gate      Gate
	shell     string
	timeout   time.Duration
	maxOutput int
	log       *log.Logger
}

type CommandOption func(*Command)

func WithShell(shell string) CommandOption {
	return func(c *Command) {
		c.shell = shell
	}
}

func WithCommandTimeout(d time.Duration) CommandOption {
	return func(c *Command) {
		c.timeout = d
	}
}

func WithMaxOutput(n int) CommandOption {
	return func(c *Command) {
		c.maxOutput = n
	}
}

func NewCommand(gate Gate, opts ...CommandOption) *Command {
	c := &Command{
		gate:      gate,
		shell:     "sh",
		timeout:   30 * time.Second,
		maxOutput: DefaultMaxOutput,
		log:       log.Default().With("component", "tools.command"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = DenyAll{}
	}
	if c.shell == "" {
		c.shell = "sh"
	}
	return c
}

func (c *Command) Tool() Tool {
	return Tool{
		ID:          RunCommand,
		Usage:       "run_command(cmd: str)",
		Description: "Takes a linux shell command as a string, executes it on the user's system and returns its exit status.",
		Handler:     c.Run,
	}
}

// Run executes cmd with "<shell> -c". The output is the exit status; captured
// stdout/stderr and signal information go into Detail.
func (c *Command) Run(ctx context.Context, cmd string) (Result, error) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return Result{}, fmt.Errorf("command: %w", ErrEmptyInput)
	}

	if err := c.gate.Check(ctx, cmd); err != nil {
		c.log.Warn("Command rejected", "cmd", cmd, "err", err)
		return Result{}, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.log.Info("Running command", "cmd", cmd)

	proc := exec.CommandContext(ctx, c.shell, "-c", cmd)
	proc.WaitDelay = time.Second
	out, err := proc.CombinedOutput()

	detail := map[string]any{
		"output": truncate(string(out), c.maxOutput),
	}

	code := 0
	signaled := false
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("start %s: %w", c.shell, err)
		}
		code = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			signaled = true
			detail["signal"] = ws.Signal().String()
		}
		if ctx.Err() != nil {
			detail["error"] = ctx.Err().Error()
		}
	}

	detail["exit_code"] = code
	detail["signaled"] = signaled

	return Result{Output: code, Detail: detail}, nil
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + fmt.Sprintf("\n[... %d bytes truncated]", len(s)-max)
}
