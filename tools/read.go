package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	agent "github.com/armatrix/taskagent"
)

const (
	defaultReadLimit   = 1000
	maxLineLength      = 2000
	truncationSuffix   = "... [truncated]"
	lineNumberTabWidth = 6 // right-justified width for line numbers
)

// ReadInput defines the input for the read_file tool.
type ReadInput struct {
	FilePath string `json:"file_path" jsonschema:"required,description=Path of the file to read, relative to the workspace"`
	MaxLines *int   `json:"max_lines,omitempty" jsonschema:"description=Maximum number of lines to return (default 1000)"`
	Offset   *int   `json:"offset,omitempty" jsonschema:"description=The line number to start reading from (1-based)"`
}

// ReadTool reads file content with optional offset and line limit.
type ReadTool struct{}

var _ agent.Tool[ReadInput] = (*ReadTool)(nil)

func (t *ReadTool) Name() string { return "read_file" }
func (t *ReadTool) Description() string {
	return "Read file contents with line numbers. Long files are cut at max_lines."
}

func (t *ReadTool) Execute(ctx context.Context, input ReadInput) (*agent.ToolResult, error) {
	if input.FilePath == "" {
		return agent.ErrorResult("file_path is required"), nil
	}
	path, err := resolvePath(ctx, input.FilePath)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to open file: %s", err.Error())), nil
	}
	defer f.Close()

	limit := defaultReadLimit
	if input.MaxLines != nil && *input.MaxLines > 0 {
		limit = *input.MaxLines
	}
	offset := 1
	if input.Offset != nil && *input.Offset > 0 {
		offset = *input.Offset
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder
	lineNum, linesOutput, remaining := 0, 0, 0
	for scanner.Scan() {
		lineNum++
		if lineNum < offset {
			continue
		}
		if linesOutput >= limit {
			remaining++
			continue
		}

		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength-len(truncationSuffix)] + truncationSuffix
		}
		fmt.Fprintf(&b, "%*d\t%s\n", lineNumberTabWidth, lineNum, line)
		linesOutput++
	}
	if err := scanner.Err(); err != nil {
		return agent.ErrorResult(fmt.Sprintf("error reading file: %s", err.Error())), nil
	}

	if b.Len() == 0 {
		return agent.TextResult("(empty file)"), nil
	}
	if remaining > 0 {
		fmt.Fprintf(&b, "... (%d more lines)\n", remaining)
	}
	return agent.TextResult(b.String()), nil
}
