package tools

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrepTool_Execute(t *testing.T) {
	dir, ctx := workspace(t)
	writeFile(t, dir, "a.go", "package a\nfunc Alpha() {}\n")
	writeFile(t, dir, "b.txt", "func Beta\n")

	result, err := (&GrepTool{}).Execute(ctx, GrepInput{Pattern: `func \w+`, Include: "*.go"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "a.go:2:func Alpha() {}\n", result.Content)
}

func TestGrepTool_Execute_Recursive(t *testing.T) {
	dir, ctx := workspace(t)
	writeFile(t, dir, "x/y/z.go", "// TODO one\n")
	writeFile(t, dir, ".git/config", "TODO hidden\n")

	result, err := (&GrepTool{}).Execute(ctx, GrepInput{Pattern: "TODO", Include: "**/*.go"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("x", "y", "z.go")+":1:// TODO one\n", result.Content)
}

func TestGrepTool_Execute_CapsMatches(t *testing.T) {
	dir, ctx := workspace(t)
	var b strings.Builder
	for i := range maxGrepMatches + 50 {
		fmt.Fprintf(&b, "match %d\n", i)
	}
	writeFile(t, dir, "many.txt", b.String())

	result, err := (&GrepTool{}).Execute(ctx, GrepInput{Pattern: "match"})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(result.Content, "\n"), "\n")
	assert.Len(t, lines, maxGrepMatches+1)
	assert.Equal(t, fmt.Sprintf("... (stopped after %d matches)", maxGrepMatches), lines[len(lines)-1])
}

func TestGrepTool_Execute_NoMatches(t *testing.T) {
	dir, ctx := workspace(t)
	writeFile(t, dir, "a.txt", "nothing here")

	result, err := (&GrepTool{}).Execute(ctx, GrepInput{Pattern: "absent"})
	require.NoError(t, err)
	assert.Equal(t, "No matches found", result.Content)
}

func TestGrepTool_Execute_InvalidPattern(t *testing.T) {
	_, ctx := workspace(t)

	result, err := (&GrepTool{}).Execute(ctx, GrepInput{Pattern: "("})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "invalid pattern")
}
