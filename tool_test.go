package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Tool ---

type readInput struct {
	FilePath string `json:"file_path" jsonschema:"required,description=The absolute path to the file"`
	Offset   *int   `json:"offset,omitempty" jsonschema:"description=Line offset"`
	Limit    *int   `json:"limit,omitempty" jsonschema:"description=Number of lines to read"`
}

type mockReadTool struct{}

func (t *mockReadTool) Name() string        { return "read_file" }
func (t *mockReadTool) Description() string { return "Read a file from the filesystem" }

func (t *mockReadTool) Execute(_ context.Context, input readInput) (*ToolResult, error) {
	if input.Limit != nil {
		return TextResult("limited read of " + input.FilePath), nil
	}
	return TextResult("content of " + input.FilePath), nil
}

type writeInput struct {
	FilePath string `json:"file_path" jsonschema:"required"`
	Content  string `json:"content" jsonschema:"required"`
}

type mockWriteTool struct{}

func (t *mockWriteTool) Name() string        { return "write_file" }
func (t *mockWriteTool) Description() string { return "Write a file" }

func (t *mockWriteTool) Execute(_ context.Context, input writeInput) (*ToolResult, error) {
	return TextResult("wrote " + input.FilePath), nil
}

// --- Tests ---

func TestRegisterAndExecuteTool(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})

	result, err := registry.Execute(context.Background(), "read_file", json.RawMessage(`{"file_path": "/tmp/test.go"}`))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	assert.Equal(t, "content of /tmp/test.go", result.Content)
}

func TestExecute_MissingRequiredArgument(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})

	_, err := registry.Execute(context.Background(), "read_file", json.RawMessage(`{}`))

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "read_file", argErr.Tool)
	assert.Contains(t, argErr.Err.Error(), "file_path")
}

func TestExecute_CoercesQuotedNumbers(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})

	result, err := registry.Execute(context.Background(), "read_file", json.RawMessage(`{"file_path":"/a","limit":"5"}`))
	require.NoError(t, err)
	assert.Equal(t, "limited read of /a", result.Content)
}

func TestExecute_SkipValidation(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{}, SkipValidation())

	result, err := registry.Execute(context.Background(), "read_file", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "content of ", result.Content)
}

func TestExecuteToolNotFound(t *testing.T) {
	registry := NewToolRegistry()

	_, err := registry.Execute(context.Background(), "NonExistent", nil)
	assert.True(t, errors.Is(err, ErrToolNotFound))
}

func TestSpecs(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})

	specs := registry.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, "read_file", specs[0].Name)
	assert.Equal(t, "Read a file from the filesystem", specs[0].Description)
	assert.Equal(t, "object", specs[0].Parameters["type"])
	assert.Equal(t, []string{"file_path"}, specs[0].Parameters["required"])

	data, err := json.Marshal(specs)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file_path"`)
}

func TestMultipleToolRegistration(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})
	RegisterTool[writeInput](registry, &mockWriteTool{}, Exclusive())

	assert.Equal(t, []string{"read_file", "write_file"}, registry.Names())
	assert.False(t, registry.exclusive("read_file"))
	assert.True(t, registry.exclusive("write_file"))

	r2, err := registry.Execute(context.Background(), "write_file", json.RawMessage(`{"file_path":"/b","content":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "wrote /b", r2.Content)
}

func TestRegisterRaw_ReplacesKeepingOrder(t *testing.T) {
	registry := NewToolRegistry()
	noop := func(context.Context, json.RawMessage) (*ToolResult, error) { return TextResult("v1"), nil }
	registry.RegisterRaw("a", "first", nil, noop)
	registry.RegisterRaw("b", "second", nil, noop)
	registry.RegisterRaw("a", "replaced", nil, func(context.Context, json.RawMessage) (*ToolResult, error) {
		return TextResult("v2"), nil
	})

	assert.Equal(t, []string{"a", "b"}, registry.Names())
	result, err := registry.Execute(context.Background(), "a", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "v2", result.Content)
}

func TestResultConstructors(t *testing.T) {
	assert.Equal(t, &ToolResult{Content: "hello"}, TextResult("hello"))
	assert.Equal(t, &ToolResult{Content: "failed", IsError: true}, ErrorResult("failed"))

	r := JSONResult(map[string]string{"error": "x"}, true)
	assert.True(t, r.IsError)
	assert.JSONEq(t, `{"error":"x"}`, r.Content)
}
