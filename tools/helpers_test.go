package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	agent "github.com/armatrix/taskagent"
)

// workspace returns a temp dir and a context rooted at it.
func workspace(t *testing.T) (string, context.Context) {
	t.Helper()
	dir := t.TempDir()
	return dir, agent.WithContextWorkDir(context.Background(), dir)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func intPtr(v int) *int { return &v }
