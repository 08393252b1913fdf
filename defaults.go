package agent

import "fmt"

// Loop and output defaults.
const (
	// DefaultMaxOutputTokens is the default maximum output tokens per response.
	DefaultMaxOutputTokens = 8192

	// DefaultMaxRounds is the round ceiling of the main agent.
	DefaultMaxRounds = 40

	// DefaultStreamBufferSize is the default channel buffer size for streaming events.
	DefaultStreamBufferSize = 64

	// DefaultActor names the main agent in logs, events and transcripts.
	DefaultActor = "main"

	// TodoToolName is the tool whose calls reset the todo reminder counter.
	TodoToolName = "todo_write"
)

// DefaultRoundLimitNotice is appended to the final text when the main agent
// reaches DefaultMaxRounds.
const DefaultRoundLimitNotice = "Stopped after reaching max rounds (40). The conversation may be stuck in repeated tool calls."

// RoundLimitNotice returns the main agent notice for a ceiling of n rounds.
func RoundLimitNotice(n int) string {
	return fmt.Sprintf("Stopped after reaching max rounds (%d). The conversation may be stuck in repeated tool calls.", n)
}
