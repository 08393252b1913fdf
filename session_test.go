package agent

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/taskagent/llm"
)

func TestGenerateID_Format(t *testing.T) {
	id := GenerateID(PrefixSession)
	assert.Regexp(t, regexp.MustCompile(`^sess_\d{8}T\d{6}_[0-9a-f]{16}$`), id)
	assert.NotEqual(t, id, GenerateID(PrefixSession))
}

func TestSession_Clone(t *testing.T) {
	original := NewSession()
	original.Messages = append(original.Messages,
		llm.UserMessage("hello"),
		llm.AssistantMessage("", llm.ToolCall{ID: "c1", Name: "bash", Arguments: json.RawMessage(`{"command":"ls"}`)}),
	)
	original.Metadata.Model = "claude-sonnet-4-5"
	original.Metadata.TotalCost = decimal.NewFromFloat(0.05)
	original.Metadata.NumRounds = 3

	cloned := original.Clone()

	assert.NotEqual(t, original.ID, cloned.ID)
	require.Len(t, cloned.Messages, 2)
	assert.Equal(t, original.Metadata.Model, cloned.Metadata.Model)
	assert.True(t, original.Metadata.TotalCost.Equal(cloned.Metadata.TotalCost))
	assert.Equal(t, 3, cloned.Metadata.NumRounds)

	cloned.Messages[1].ToolCalls[0].Arguments[2] = 'X'
	cloned.Messages[0].Content = "changed"
	assert.Equal(t, `{"command":"ls"}`, string(original.Messages[1].ToolCalls[0].Arguments))
	assert.Equal(t, "hello", original.Messages[0].Content)
}

func TestSession_JSON(t *testing.T) {
	s := NewSession()
	s.Messages = []llm.Message{llm.UserMessage("hi"), llm.ToolResultMessage("c1", "bash", "out", true)}
	s.Metadata.TotalCost = decimal.RequireFromString("0.0175")

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Session
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.ID, back.ID)
	assert.Equal(t, s.Messages, back.Messages)
	assert.True(t, s.Metadata.TotalCost.Equal(back.Metadata.TotalCost))
}
