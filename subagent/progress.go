package subagent

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	agent "github.com/armatrix/taskagent"
)

// TaskInfo describes a running or finished child task.
type TaskInfo struct {
	ID          string
	Type        AgentType
	Description string
	ToolCalls   int
	Elapsed     time.Duration
	Subtype     string
}

// ProgressSink observes child activity. Update is called after every tool
// result the child receives.
type ProgressSink interface {
	Start(info TaskInfo)
	Update(info TaskInfo)
	Done(info TaskInfo)
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) Start(TaskInfo)  {}
func (NopProgress) Update(TaskInfo) {}
func (NopProgress) Done(TaskInfo)   {}

// TerminalProgress writes one line per task. On a terminal the line is
// redrawn in place as tool calls accumulate.
type TerminalProgress struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool

	label *color.Color
	dim   *color.Color
	ok    *color.Color
	fail  *color.Color
}

// NewTerminalProgress creates a TerminalProgress writing to w. Colors and
// in-place updates are used only when w is a terminal.
func NewTerminalProgress(w io.Writer) *TerminalProgress {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	p := &TerminalProgress{
		w:     w,
		tty:   tty,
		label: color.New(color.FgCyan),
		dim:   color.New(color.Faint),
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.label, p.dim, p.ok, p.fail} {
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *TerminalProgress) prefix(info TaskInfo) string {
	return fmt.Sprintf("  %s %s", p.label.Sprintf("[%s]", info.Type), info.Description)
}

func (p *TerminalProgress) Start(info TaskInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty {
		fmt.Fprint(p.w, p.prefix(info))
		return
	}
	fmt.Fprintln(p.w, p.prefix(info))
}

func (p *TerminalProgress) Update(info TaskInfo) {
	if !p.tty {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\r%s %s", p.prefix(info),
		p.dim.Sprintf("... %d tools, %.1fs", info.ToolCalls, info.Elapsed.Seconds()))
}

func (p *TerminalProgress) Done(info TaskInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.ok
	if info.Subtype != "" && info.Subtype != agent.SubtypeSuccess {
		c = p.fail
	}
	status := c.Sprintf("done (%d tools, %.1fs)", info.ToolCalls, info.Elapsed.Seconds())
	if p.tty {
		// Clear the remainder of a longer in-place update line.
		fmt.Fprintf(p.w, "\r%s - %s\033[K\n", p.prefix(info), status)
		return
	}
	fmt.Fprintf(p.w, "%s - %s\n", p.prefix(info), status)
}

// LogProgress reports progress as structured log records.
type LogProgress struct {
	Logger *slog.Logger
}

func (p LogProgress) Start(info TaskInfo) {
	p.Logger.Info("subagent start", "task", info.ID, "agent_type", string(info.Type), "description", info.Description)
}

func (p LogProgress) Update(info TaskInfo) {
	p.Logger.Debug("subagent progress", "task", info.ID, "tool_calls", info.ToolCalls, "elapsed", info.Elapsed)
}

func (p LogProgress) Done(info TaskInfo) {
	p.Logger.Info("subagent done", "task", info.ID, "agent_type", string(info.Type),
		"tool_calls", info.ToolCalls, "elapsed", info.Elapsed, "subtype", info.Subtype)
}
