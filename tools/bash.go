package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/creack/pty"

	agent "github.com/armatrix/taskagent"
)

const (
	defaultBashTimeoutMs = 120_000
	maxBashTimeoutMs     = 600_000
	maxOutputBytes       = 30_000
)

// BashInput defines the input for the bash tool.
type BashInput struct {
	Command   string `json:"command" jsonschema:"required,description=The shell command to execute"`
	TimeoutMs *int   `json:"timeout_ms,omitempty" jsonschema:"description=Timeout in milliseconds (default 120000, max 600000)"`
}

// BashTool executes shell commands in the workspace.
type BashTool struct{}

var _ agent.Tool[BashInput] = (*BashTool)(nil)

func (t *BashTool) Name() string { return "bash" }
func (t *BashTool) Description() string {
	return "Run a shell command in the workspace and return its combined output."
}

func (t *BashTool) Execute(ctx context.Context, input BashInput) (*agent.ToolResult, error) {
	if input.Command == "" {
		return agent.ErrorResult("command is required"), nil
	}

	timeoutMs := defaultBashTimeoutMs
	if input.TimeoutMs != nil && *input.TimeoutMs > 0 {
		timeoutMs = min(*input.TimeoutMs, maxBashTimeoutMs)
	}
	cmdCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "bash", "-c", input.Command)
	applyExecContext(ctx, cmd)

	// A PTY gives line-buffered output from tools that detect terminals.
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return t.executeWithoutPTY(ctx, cmdCtx, input.Command, timeoutMs)
	}
	defer ptmx.Close()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, ptmx) // PTY read returns EIO on process exit, ignore
	waitErr := cmd.Wait()

	return commandResult(buf.String(), waitErr, cmdCtx, timeoutMs), nil
}

func (t *BashTool) executeWithoutPTY(ctx, cmdCtx context.Context, command string, timeoutMs int) (*agent.ToolResult, error) {
	cmd := exec.CommandContext(cmdCtx, "bash", "-c", command)
	applyExecContext(ctx, cmd)
	output, err := cmd.CombinedOutput()
	return commandResult(string(output), err, cmdCtx, timeoutMs), nil
}

func commandResult(output string, waitErr error, cmdCtx context.Context, timeoutMs int) *agent.ToolResult {
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return agent.ErrorResult(fmt.Sprintf("command timed out after %dms", timeoutMs))
	}
	if len(output) > maxOutputBytes {
		n := maxOutputBytes
		for n > 0 && !utf8.RuneStart(output[n]) {
			n--
		}
		output = output[:n] + "\n... [output truncated]"
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	if output == "" {
		output = "(no output)"
	}
	result := agent.TextResult(output)
	result.Metadata = map[string]any{"exit_code": exitCode}
	if exitCode != 0 {
		result.IsError = true
		result.Content = fmt.Sprintf("%s\nexit code %d", output, exitCode)
	}
	return result
}
