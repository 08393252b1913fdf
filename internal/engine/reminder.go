package engine

import "github.com/armatrix/taskagent/llm"

const (
	// InitialReminder is injected on the first round of a fresh conversation.
	InitialReminder = "<reminder>Use todo_write for multi-step tasks.</reminder>"

	// NagReminder is injected once NagThreshold assistant turns pass without
	// a todo update.
	NagReminder = "<reminder>10+ turns without todo update. Please update todos via todo_write.</reminder>"

	NagThreshold = 10
)

// Reminder returns the reminder text for a round, or "" for none. It is a pure
// function of the round index, whether the conversation is fresh, and how many
// assistant turns have passed since the todo tool was last called.
func Reminder(round int, fresh bool, turnsSinceUpdate int) string {
	if round == 0 && fresh {
		return InitialReminder
	}
	if turnsSinceUpdate >= NagThreshold {
		return NagReminder
	}
	return ""
}

// TurnsSinceTool counts assistant turns after the most recent turn that called
// tool. Without any such turn it counts every assistant turn in history.
func TurnsSinceTool(history []llm.Message, tool string) int {
	turns := 0
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != llm.RoleAssistant {
			continue
		}
		for _, call := range msg.ToolCalls {
			if call.Name == tool {
				return turns
			}
		}
		turns++
	}
	return turns
}
