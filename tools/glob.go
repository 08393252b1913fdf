package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	agent "github.com/armatrix/taskagent"
)

const maxGlobResults = 100

// GlobInput defines the input for the glob tool.
type GlobInput struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Glob pattern such as **/*.go"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search in (default: workspace root)"`
}

// GlobTool finds files by pattern, newest first.
type GlobTool struct{}

var _ agent.Tool[GlobInput] = (*GlobTool)(nil)

func (t *GlobTool) Name() string { return "glob" }
func (t *GlobTool) Description() string {
	return "Find files matching a glob pattern (supports **). Results are sorted by modification time, newest first."
}

func (t *GlobTool) Execute(ctx context.Context, input GlobInput) (*agent.ToolResult, error) {
	if input.Pattern == "" {
		return agent.ErrorResult("pattern is required"), nil
	}
	if !doublestar.ValidatePattern(input.Pattern) {
		return agent.ErrorResult(fmt.Sprintf("invalid glob pattern: %s", input.Pattern)), nil
	}
	base, err := searchRoot(ctx, input.Path)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}

	type match struct {
		path    string
		modTime int64
	}
	var matches []match
	err = doublestar.GlobWalk(os.DirFS(base), input.Pattern, func(p string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		matches = append(matches, match{path: filepath.Join(base, filepath.FromSlash(p)), modTime: info.ModTime().UnixNano()})
		return nil
	})
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("glob failed: %s", err.Error())), nil
	}
	if len(matches) == 0 {
		return agent.TextResult("No files found"), nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].modTime != matches[j].modTime {
			return matches[i].modTime > matches[j].modTime
		}
		return matches[i].path < matches[j].path
	})

	var b strings.Builder
	for i, m := range matches {
		if i == maxGlobResults {
			fmt.Fprintf(&b, "... (%d more files)\n", len(matches)-maxGlobResults)
			break
		}
		b.WriteString(displayPath(ctx, m.path))
		b.WriteByte('\n')
	}
	return agent.TextResult(b.String()), nil
}

// searchRoot resolves an optional directory argument, defaulting to the
// workspace (or the process working directory when none is set).
func searchRoot(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = "."
	}
	resolved, err := resolvePath(ctx, path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", path)
	}
	return resolved, nil
}
