package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/term"
)

// Gate decides whether a shell command may run. A nil error allows it; a
// denial wraps ErrCommandDenied.
type Gate interface {
	Check(ctx context.Context, cmd string) error
}

type GateFunc func(ctx context.Context, cmd string) error

func (f GateFunc) Check(ctx context.Context, cmd string) error { return f(ctx, cmd) }

type DenyAll struct{}

func (DenyAll) Check(_ context.Context, cmd string) error {
	return &DeniedError{Command: cmd, Reason: "command execution is disabled"}
}

type AllowAll struct{}

func (AllowAll) Check(context.Context, string) error { return nil }

const shellOperators = ";&|`$<>\n"

// AllowList permits only commands matching one of its doublestar patterns,
// e.g. "uptime", "ls *" (ls with one argument free of '/') or
// "cat /var/log/**" (cat of anything under /var/log).
type AllowList struct {
	patterns []string
}

func NewAllowList(patterns ...string) (*AllowList, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid allow pattern %q", p)
		}
	}
	return &AllowList{patterns: append([]string(nil), patterns...)}, nil
}

func (a *AllowList) Check(_ context.Context, cmd string) error {
	cmd = strings.TrimSpace(cmd)
	if strings.ContainsAny(cmd, shellOperators) {
		return &DeniedError{Command: cmd, Reason: "shell operators are not allowed"}
	}
	for _, p := range a.patterns {
		if ok, _ := doublestar.Match(p, cmd); ok {
			return nil
		}
	}
	return &DeniedError{Command: cmd, Reason: "not on the allow list"}
}

// BlockList rejects commands containing any of its substrings.
type BlockList struct {
	patterns []string
}

func NewBlockList(patterns ...string) *BlockList {
	return &BlockList{patterns: append([]string(nil), patterns...)}
}

func DefaultBlockList() *BlockList {
	return NewBlockList(
		"rm -rf /",
		"rm -rf /*",
		"rm -rf ~",
		"rm -fr /",
		"dd if=",
		"mkfs",
		":(){:|:&};:",
		":(){ :|:& };:",
		"> /dev/sda",
		"> /dev/nvme",
		"chmod -R 777 /",
		"chown -R",
		"shutdown",
		"reboot",
		"wget | sh",
		"curl | sh",
		"wget | bash",
		"curl | bash",
	)
}

// With returns a copy of b extended with patterns.
func (b *BlockList) With(patterns ...string) *BlockList {
	return NewBlockList(append(append([]string(nil), b.patterns...), patterns...)...)
}

func (b *BlockList) Check(_ context.Context, cmd string) error {
	normalized := strings.Join(strings.Fields(cmd), " ")
	for _, p := range b.patterns {
		if strings.Contains(normalized, p) {
			return &DeniedError{Command: cmd, Reason: "blocked command pattern", Pattern: p}
		}
	}
	return nil
}

// Confirm asks the person at the terminal before running anything. Without
// an interactive terminal every command is denied.
type Confirm struct {
	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	interactive func() bool
}

func NewConfirm() *Confirm {
	return &Confirm{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// NewConfirmIO builds a Confirm over explicit streams.
func NewConfirmIO(in io.Reader, out io.Writer, interactive bool) *Confirm {
	return &Confirm{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: func() bool { return interactive },
	}
}

func (c *Confirm) Check(ctx context.Context, cmd string) error {
	if !c.interactive() {
		return &DeniedError{Command: cmd, Reason: "no terminal to confirm on"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "Run command %q? [y/N] ", cmd)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return &DeniedError{Command: cmd, Reason: "no answer"}
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return &DeniedError{Command: cmd, Reason: "declined by user"}
	}
}

// Chain runs gates in order and stops at the first denial.
type Chain []Gate

func (c Chain) Check(ctx context.Context, cmd string) error {
	for _, g := range c {
		if g == nil {
			continue
		}
		if err := g.Check(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

const (
	ModeDeny      = "deny"
	ModeAllowList = "allowlist"
	ModeConfirm   = "confirm"
	ModeOpen      = "open"
)

// NewGate builds the gate for a configured mode. The block list always runs
// first, whatever the mode. confirm is used in confirm mode; nil asks on the
// process terminal.
func NewGate(mode string, allow []string, block *BlockList, confirm *Confirm) (Gate, error) {
	if block == nil {
		block = DefaultBlockList()
	}
	if confirm == nil {
		confirm = NewConfirm()
	}

	switch mode {
	case ModeDeny, "":
		return Chain{block, DenyAll{}}, nil
	case ModeAllowList:
		al, err := NewAllowList(allow...)
		if err != nil {
			return nil, err
		}
		return Chain{block, al}, nil
	case ModeConfirm:
		return Chain{block, confirm}, nil
	case ModeOpen:
		log.Warn("Command gate is open, any command not on the block list will run")
		return Chain{block, AllowAll{}}, nil
	default:
		return nil, fmt.Errorf("unknown command mode %q", mode)
	}
}
