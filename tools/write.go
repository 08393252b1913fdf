package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	agent "github.com/armatrix/taskagent"
)

// WriteInput defines the input for the write_file tool.
type WriteInput struct {
	FilePath string `json:"file_path" jsonschema:"required,description=Path of the file to write, relative to the workspace"`
	Content  string `json:"content" jsonschema:"required,description=The full content to write"`
}

// WriteTool writes content to a file, creating parent directories if needed.
type WriteTool struct{}

var _ agent.Tool[WriteInput] = (*WriteTool)(nil)

func (t *WriteTool) Name() string        { return "write_file" }
func (t *WriteTool) Description() string { return "Write content to a file, replacing it if it exists." }

func (t *WriteTool) Execute(ctx context.Context, input WriteInput) (*agent.ToolResult, error) {
	if input.FilePath == "" {
		return agent.ErrorResult("file_path is required"), nil
	}
	path, err := resolvePath(ctx, input.FilePath)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to create directory: %s", err.Error())), nil
	}
	if err := os.WriteFile(path, []byte(input.Content), 0o644); err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to write file: %s", err.Error())), nil
	}

	return agent.TextResult(fmt.Sprintf("Wrote %d bytes to %s", len(input.Content), displayPath(ctx, path))), nil
}
