// Package display prints the assistant's reasoning steps to a terminal.
package display

import (
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"voxagent/internal/agent"
)

const defaultWidth = 80

type Options struct {
	// Markdown renders answers with glamour.
	Markdown bool
	// Clipboard copies every answer to the system clipboard.
	Clipboard bool
	// Width wraps output. Zero uses the terminal width when out is a
	// terminal.
	Width int
	// States also prints state transitions.
	States bool
}

type styles struct {
	start  lipgloss.Style
	plan   lipgloss.Style
	tool   lipgloss.Style
	output lipgloss.Style
	result lipgloss.Style
	err    lipgloss.Style
	state  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		start:  r.NewStyle().Foreground(lipgloss.Color("#F97316")).Bold(true),
		plan:   r.NewStyle().Foreground(lipgloss.Color("#A78BFA")),
		tool:   r.NewStyle().Foreground(lipgloss.Color("#38BDF8")).Bold(true),
		output: r.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true),
		result: r.NewStyle().Foreground(lipgloss.Color("#94A3B8")).PaddingLeft(3),
		err:    r.NewStyle().Foreground(lipgloss.Color("#EF4444")).PaddingLeft(3),
		state:  r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
	}
}

// Printer is an agent.Observer.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	opt   Options
	style styles
	md    *glamour.TermRenderer
	copy  func(string) error
	log   *log.Logger
}

func New(out io.Writer, opt Options) *Printer {
	if opt.Width <= 0 {
		opt.Width = terminalWidth(out)
	}

	p := &Printer{
		out:   out,
		opt:   opt,
		style: newStyles(lipgloss.NewRenderer(out)),
		copy:  clipboard.WriteAll,
		log:   log.Default().With("component", "display"),
	}

	if opt.Markdown {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(opt.Width),
			glamour.WithEmoji(),
		)
		if err != nil {
			p.log.Warn("Markdown rendering disabled", "error", err)
		} else {
			p.md = md
		}
	}
	return p
}

func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func (p *Printer) OnState(session string, s agent.State) {
	if !p.opt.States {
		return
	}
	p.printf("%s\n", p.style.state.Render(fmt.Sprintf("· %s [%s]", s, short(session))))
}

func (p *Printer) OnStep(_ string, s agent.Step) {
	switch s.Kind {
	case agent.KindStart:
		p.printf("🔥 %s\n", p.style.start.Render(s.Content))
	case agent.KindPlan:
		p.printf("🧠 %s\n", p.style.plan.Render(s.Content))
	case agent.KindTool:
		p.printf("🧰 %s\n", p.style.tool.Render(fmt.Sprintf("%s(%s)", s.Tool, s.Input)))
	case agent.KindOutput:
		p.printf("🤖 %s\n", p.answer(s.Content))
		if p.opt.Clipboard {
			if err := p.copy(s.Content); err != nil {
				p.log.Warn("Failed to copy answer", "error", err)
			}
		}
	}
}

func (p *Printer) OnObservation(_ string, o agent.Observation) {
	if o.Error != "" {
		p.printf("%s\n", p.style.err.Render("✗ "+o.Error))
		return
	}
	p.printf("%s\n", p.style.result.Render(fmt.Sprintf("→ %v", o.Output)))
}

func (p *Printer) answer(text string) string {
	if p.md == nil {
		return p.style.output.Render(text)
	}

	p.mu.Lock()
	out, err := p.md.Render(text)
	p.mu.Unlock()
	if err != nil {
		p.log.Warn("Failed to render markdown", "error", err)
		return p.style.output.Render(text)
	}
	return "\n" + strings.TrimRight(out, "\n")
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func short(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
