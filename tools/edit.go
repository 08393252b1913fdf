package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	agent "github.com/armatrix/taskagent"
)

// EditInput defines the input for the edit_file tool.
type EditInput struct {
	FilePath   string `json:"file_path" jsonschema:"required,description=Path of the file to modify, relative to the workspace"`
	OldContent string `json:"old_content" jsonschema:"required,description=The exact text to replace"`
	NewContent string `json:"new_content" jsonschema:"required,description=The replacement text"`
	ReplaceAll bool   `json:"replace_all,omitempty" jsonschema:"description=Replace every occurrence instead of requiring a unique match"`
}

// EditTool performs exact text replacements in files and reports a unified diff.
type EditTool struct{}

var _ agent.Tool[EditInput] = (*EditTool)(nil)

func (t *EditTool) Name() string { return "edit_file" }
func (t *EditTool) Description() string {
	return "Replace exact text in a file. old_content must match once unless replace_all is set."
}

func (t *EditTool) Execute(ctx context.Context, input EditInput) (*agent.ToolResult, error) {
	if input.FilePath == "" {
		return agent.ErrorResult("file_path is required"), nil
	}
	if input.OldContent == "" {
		return agent.ErrorResult("old_content must not be empty"), nil
	}
	if input.OldContent == input.NewContent {
		return agent.ErrorResult("old_content and new_content must be different"), nil
	}
	path, err := resolvePath(ctx, input.FilePath)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to read file: %s", err.Error())), nil
	}
	content := string(data)

	count := strings.Count(content, input.OldContent)
	if count == 0 {
		return agent.ErrorResult(fmt.Sprintf("old_content not found in %s", displayPath(ctx, path))), nil
	}
	if !input.ReplaceAll && count > 1 {
		return agent.ErrorResult(fmt.Sprintf(
			"old_content appears %d times in file; use replace_all=true to replace all occurrences, or provide more context to make it unique",
			count,
		)), nil
	}

	var updated string
	if input.ReplaceAll {
		updated = strings.ReplaceAll(content, input.OldContent, input.NewContent)
	} else {
		updated = strings.Replace(content, input.OldContent, input.NewContent, 1)
	}

	info, err := os.Stat(path)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to stat file: %s", err.Error())), nil
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to write file: %s", err.Error())), nil
	}

	name := displayPath(ctx, path)
	replaced := 1
	if input.ReplaceAll {
		replaced = count
	}
	result := agent.TextResult(fmt.Sprintf("Edited %s (%d replacement(s))\n%s", name, replaced, unifiedDiff(name, content, updated)))
	result.Metadata = map[string]any{"replacements": replaced}
	return result, nil
}

// unifiedDiff renders the change as a unified diff with three lines of context.
func unifiedDiff(name, before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
