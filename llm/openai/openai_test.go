package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/taskagent/llm"
)

const completedResponse = `{
  "id": "resp_1",
  "object": "response",
  "created_at": 0,
  "status": "completed",
  "model": "gpt-test",
  "output": [
    {"type": "message", "id": "msg_1", "status": "completed", "role": "assistant",
     "content": [{"type": "output_text", "text": "checking", "annotations": []}]},
    {"type": "function_call", "id": "fc_1", "call_id": "call_1", "name": "bash",
     "arguments": "{\"command\":\"ls\"}", "status": "completed"}
  ],
  "parallel_tool_calls": true,
  "tool_choice": "auto",
  "tools": [],
  "usage": {"input_tokens": 7, "output_tokens": 3, "total_tokens": 10,
            "input_tokens_details": {"cached_tokens": 2},
            "output_tokens_details": {"reasoning_tokens": 0}}
}`

func newTestServer(t *testing.T, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/responses"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completedResponse)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQuery_DecodesTextAndToolCalls(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, &captured)

	model := New(Config{Model: "gpt-test", APIKey: "test", BaseURL: srv.URL + "/", MaxRetries: 1})
	assert.Equal(t, "gpt-test", model.Name())

	resp, err := model.Query(context.Background(), llm.Request{
		System:    "system text",
		MaxTokens: 256,
		Messages: []llm.Message{
			llm.UserMessage("list files"),
			llm.AssistantMessage("", llm.ToolCall{ID: "call_0", Name: "bash", Arguments: json.RawMessage(`{"command":"pwd"}`)}),
			llm.ToolResultMessage("call_0", "bash", "/tmp", false),
		},
		Tools: []llm.ToolSpec{{
			Name:        "bash",
			Description: "run a command",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "checking", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "bash", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"command":"ls"}`, string(resp.ToolCalls[0].Arguments))
	assert.Equal(t, "tool_use", resp.StopReason)
	assert.Equal(t, int64(7), resp.Usage.InputTokens)
	assert.Equal(t, int64(3), resp.Usage.OutputTokens)
	assert.Equal(t, int64(2), resp.Usage.CacheReadInputTokens)

	assert.Equal(t, "gpt-test", captured["model"])
	assert.Equal(t, "system text", captured["instructions"])
	input, ok := captured["input"].([]any)
	require.True(t, ok)
	require.Len(t, input, 3)
	assert.Equal(t, "function_call", input[1].(map[string]any)["type"])
	assert.Equal(t, "function_call_output", input[2].(map[string]any)["type"])
	tools, ok := captured["tools"].([]any)
	require.True(t, ok)
	assert.Equal(t, "bash", tools[0].(map[string]any)["name"])
}

func TestQuery_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	model := New(Config{Model: "gpt-test", APIKey: "test", BaseURL: srv.URL + "/"})
	_, err := model.Query(context.Background(), llm.Request{Messages: []llm.Message{llm.UserMessage("hi")}})
	assert.Error(t, err)
}
