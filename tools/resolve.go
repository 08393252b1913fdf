package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	agent "github.com/armatrix/taskagent"
)

// resolvePath resolves a file path against the working directory from context
// and rejects paths outside it. Without a working directory in context the
// path is only cleaned.
func resolvePath(ctx context.Context, path string) (string, error) {
	dir := agent.ContextWorkDir(ctx)
	if dir == "" {
		return filepath.Clean(path), nil
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid workspace: %w", err)
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(root, resolved)
	}
	resolved = filepath.Clean(resolved)
	if !withinDir(root, resolved) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return resolved, nil
}

func withinDir(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// displayPath renders path relative to the workspace when possible.
func displayPath(ctx context.Context, path string) string {
	dir := agent.ContextWorkDir(ctx)
	if dir == "" {
		return path
	}
	if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// applyExecContext sets cmd.Dir and cmd.Env from the agent context values.
func applyExecContext(ctx context.Context, cmd *exec.Cmd) {
	if dir := agent.ContextWorkDir(ctx); dir != "" {
		cmd.Dir = dir
	}
	if env := agent.ContextEnv(ctx); len(env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
}
