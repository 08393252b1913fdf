package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/armatrix/taskagent/llm"
)

func assistantCalling(names ...string) llm.Message {
	var calls []llm.ToolCall
	for _, n := range names {
		calls = append(calls, llm.ToolCall{ID: n, Name: n})
	}
	return llm.AssistantMessage("", calls...)
}

func TestReminder(t *testing.T) {
	assert.Equal(t, InitialReminder, Reminder(0, true, 0))
	assert.Equal(t, "", Reminder(0, false, 0), "resumed conversation gets no initial reminder")
	assert.Equal(t, "", Reminder(3, false, 9))
	assert.Equal(t, NagReminder, Reminder(12, false, 10))
	assert.Equal(t, NagReminder, Reminder(40, false, 25))
}

func TestTurnsSinceTool(t *testing.T) {
	var history []llm.Message
	assert.Equal(t, 0, TurnsSinceTool(history, "todo_write"))

	history = append(history, llm.UserMessage("go"))
	for i := 0; i < 4; i++ {
		history = append(history, assistantCalling("bash"))
	}
	assert.Equal(t, 4, TurnsSinceTool(history, "todo_write"))

	history = append(history, assistantCalling("read_file", "todo_write"))
	assert.Equal(t, 0, TurnsSinceTool(history, "todo_write"))

	for i := 0; i < 10; i++ {
		history = append(history, assistantCalling("grep"))
	}
	assert.Equal(t, 10, TurnsSinceTool(history, "todo_write"))
	assert.Equal(t, NagReminder, Reminder(15, false, TurnsSinceTool(history, "todo_write")))
}
