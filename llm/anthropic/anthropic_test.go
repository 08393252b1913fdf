package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/taskagent/llm"
)

// --- Mock Streamer ---

type mockStreamer struct {
	mu     sync.Mutex
	body   string
	params []anthropic.MessageNewParams
}

func (m *mockStreamer) NewStreaming(_ context.Context, params anthropic.MessageNewParams) *ssestream.Stream[anthropic.MessageStreamEventUnion] {
	m.mu.Lock()
	m.params = append(m.params, params)
	m.mu.Unlock()

	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(strings.NewReader(m.body)),
	}
	return ssestream.NewStream[anthropic.MessageStreamEventUnion](ssestream.NewDecoder(resp), nil)
}

type sseEvent struct {
	Type string
	Data string
}

func buildSSE(events ...sseEvent) string {
	var sb strings.Builder
	for _, e := range events {
		fmt.Fprintf(&sb, "event: %s\ndata: %s\n\n", e.Type, e.Data)
	}
	return sb.String()
}

func messageStart(inputTokens int64) sseEvent {
	return sseEvent{"message_start", fmt.Sprintf(`{"type":"message_start","message":{"id":"msg_test","type":"message","role":"assistant","content":[],"model":"claude-test","stop_reason":null,"usage":{"input_tokens":%d,"output_tokens":0}}}`, inputTokens)}
}

func textBlock(index int, text string) []sseEvent {
	return []sseEvent{
		{"content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"text","text":""}}`, index)},
		{"content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"text_delta","text":"%s"}}`, index, text)},
		{"content_block_stop", fmt.Sprintf(`{"type":"content_block_stop","index":%d}`, index)},
	}
}

func toolUseBlock(index int, id, name, partialJSON string) []sseEvent {
	return []sseEvent{
		{"content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"tool_use","id":"%s","name":"%s","input":{}}}`, index, id, name)},
		{"content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"input_json_delta","partial_json":"%s"}}`, index, partialJSON)},
		{"content_block_stop", fmt.Sprintf(`{"type":"content_block_stop","index":%d}`, index)},
	}
}

func messageEnd(stopReason string, outputTokens int64) []sseEvent {
	return []sseEvent{
		{"message_delta", fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":"%s","stop_sequence":null},"usage":{"output_tokens":%d}}`, stopReason, outputTokens)},
		{"message_stop", `{"type":"message_stop"}`},
	}
}

func concat(groups ...[]sseEvent) []sseEvent {
	var out []sseEvent
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// --- Tests ---

func TestQuery_TextResponse(t *testing.T) {
	streamer := &mockStreamer{body: buildSSE(concat(
		[]sseEvent{messageStart(12)},
		textBlock(0, "Hello"),
		messageEnd("end_turn", 4),
	)...)}
	model := NewWithStreamer(streamer, "claude-test")

	resp, err := model.Query(context.Background(), llm.Request{
		System:   "be brief",
		Messages: []llm.Message{llm.UserMessage("hi")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", resp.Text)
	assert.Empty(t, resp.ToolCalls)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(12), resp.Usage.InputTokens)
	assert.Equal(t, int64(4), resp.Usage.OutputTokens)

	require.Len(t, streamer.params, 1)
	p := streamer.params[0]
	assert.Equal(t, anthropic.Model("claude-test"), p.Model)
	assert.Equal(t, int64(DefaultMaxTokens), p.MaxTokens)
	require.Len(t, p.System, 1)
	assert.Equal(t, "be brief", p.System[0].Text)
}

func TestQuery_ToolUseResponse(t *testing.T) {
	streamer := &mockStreamer{body: buildSSE(concat(
		[]sseEvent{messageStart(5)},
		toolUseBlock(0, "toolu_1", "bash", `{\"command\":\"ls\"}`),
		messageEnd("tool_use", 9),
	)...)}
	model := NewWithStreamer(streamer, "claude-test")

	resp, err := model.Query(context.Background(), llm.Request{
		Messages: []llm.Message{llm.UserMessage("list files")},
		Tools: []llm.ToolSpec{{
			Name:        "bash",
			Description: "run a command",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"command": map[string]any{"type": "string"}},
				"required":   []string{"command"},
			},
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "bash", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"command":"ls"}`, string(resp.ToolCalls[0].Arguments))

	require.Len(t, streamer.params[0].Tools, 1)
	tool := streamer.params[0].Tools[0].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "bash", tool.Name)
	assert.Equal(t, []string{"command"}, tool.InputSchema.Required)
}

func TestQuery_StreamError(t *testing.T) {
	streamer := &mockStreamer{body: buildSSE(sseEvent{"error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`})}
	model := NewWithStreamer(streamer, "claude-test")

	_, err := model.Query(context.Background(), llm.Request{Messages: []llm.Message{llm.UserMessage("hi")}})
	assert.Error(t, err)
}

func TestEncodeMessages_MergesToolResults(t *testing.T) {
	history := []llm.Message{
		llm.UserMessage("do two things"),
		llm.AssistantMessage("",
			llm.ToolCall{ID: "a", Name: "bash", Arguments: json.RawMessage(`{"command":"pwd"}`)},
			llm.ToolCall{ID: "b", Name: "bash", Arguments: json.RawMessage(`{"command":"ls"}`)},
		),
		llm.ToolResultMessage("a", "bash", "/tmp", false),
		llm.ToolResultMessage("b", "bash", "boom", true),
		llm.AssistantMessage("done"),
	}

	params := encodeMessages(history)

	require.Len(t, params, 4)
	assert.Equal(t, anthropic.MessageParamRoleUser, params[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, params[1].Role)
	require.Len(t, params[1].Content, 2)
	require.NotNil(t, params[1].Content[0].OfToolUse)
	assert.Equal(t, "a", params[1].Content[0].OfToolUse.ID)

	require.Len(t, params[2].Content, 2, "consecutive tool results share one user message")
	require.NotNil(t, params[2].Content[0].OfToolResult)
	assert.Equal(t, "a", params[2].Content[0].OfToolResult.ToolUseID)
	assert.Equal(t, "b", params[2].Content[1].OfToolResult.ToolUseID)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, params[3].Role)
}

func TestEncodeMessages_InvalidArgumentsBecomeEmptyObject(t *testing.T) {
	params := encodeMessages([]llm.Message{
		llm.AssistantMessage("", llm.ToolCall{ID: "x", Name: "bash", Arguments: json.RawMessage(`{broken`)}),
	})
	require.Len(t, params, 1)
	use := params[0].Content[0].OfToolUse
	require.NotNil(t, use)
	b, err := json.Marshal(use.Input)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}
