package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	agent "github.com/armatrix/taskagent"
)

const previewLen = 200

type theme struct {
	prompt *color.Color
	tool   *color.Color
	dim    *color.Color
	err    *color.Color
}

// newTheme enables colors only when w is a terminal.
func newTheme(w io.Writer) theme {
	t := theme{
		prompt: color.New(color.FgGreen, color.Bold),
		tool:   color.New(color.FgCyan),
		dim:    color.New(color.Faint),
		err:    color.New(color.FgRed),
	}
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, c := range []*color.Color{t.prompt, t.tool, t.dim, t.err} {
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// render prints a run as it streams and returns its outcome.
func (a *app) render(stream *agent.AgentStream) *agent.RunResult {
	res := &agent.RunResult{
		SessionID: stream.Session().ID,
		Subtype:   agent.SubtypeExecutionError,
		IsError:   true,
	}
	for stream.Next() {
		switch e := stream.Current().(type) {
		case *agent.AssistantEvent:
			if text := strings.TrimSpace(e.Message.Content); text != "" {
				fmt.Fprintln(a.out, text)
			}
			for _, call := range e.Message.ToolCalls {
				fmt.Fprintln(a.out, a.theme.tool.Sprintf("> %s(%s)", call.Name, preview(string(call.Arguments))))
			}
		case *agent.ToolResultEvent:
			line := "  = " + preview(e.Content)
			if e.IsError {
				fmt.Fprintln(a.out, a.theme.err.Sprint(line))
			} else {
				fmt.Fprintln(a.out, a.theme.dim.Sprint(line))
			}
		case *agent.ResultEvent:
			res = &agent.RunResult{
				SessionID:    e.SessionID,
				Text:         e.Result,
				Subtype:      e.Subtype,
				IsError:      e.IsError,
				NumRounds:    e.NumRounds,
				NumToolCalls: e.NumToolCalls,
				Result:       e,
			}
			a.footer(e)
		}
	}
	return res
}

func (a *app) footer(e *agent.ResultEvent) {
	if e.IsError {
		msg := "[" + e.Subtype + "]"
		if len(e.Errors) > 0 {
			msg += " " + strings.Join(e.Errors, "; ")
		}
		fmt.Fprintln(a.out, a.theme.err.Sprint(msg))
	}
	stats := fmt.Sprintf("(%d rounds, %d tool calls", e.NumRounds, e.NumToolCalls)
	if e.TotalCost.IsPositive() {
		stats += ", $" + e.TotalCost.StringFixed(4)
	}
	fmt.Fprintln(a.out, a.theme.dim.Sprint(stats+")"))
}

// preview flattens s to one line of at most previewLen runes.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	r := []rune(s)
	return string(r[:previewLen]) + "..."
}
