package agent

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/armatrix/taskagent/internal/engine"
	"github.com/armatrix/taskagent/llm"
)

// EventType identifies the kind of event emitted by an AgentStream.
type EventType string

const (
	EventSystem     EventType = "system"
	EventAssistant  EventType = "assistant"
	EventToolResult EventType = "tool_result"
	EventResult     EventType = "result"
)

// Result subtypes reported by ResultEvent.
const (
	SubtypeSuccess        = engine.SubtypeSuccess
	SubtypeMaxRounds      = engine.SubtypeMaxRounds
	SubtypeMaxBudget      = engine.SubtypeMaxBudget
	SubtypeExecutionError = engine.SubtypeExecutionError
)

// Event is the interface implemented by all events emitted through AgentStream.
type Event interface {
	Type() EventType
}

// SystemEvent is emitted once at the start of a run.
type SystemEvent struct {
	SessionID string
	Actor     string
	Model     string
}

func (e *SystemEvent) Type() EventType { return EventSystem }

// AssistantEvent is emitted for every model response.
type AssistantEvent struct {
	Round   int
	Message llm.Message
}

func (e *AssistantEvent) Type() EventType { return EventAssistant }

// ToolResultEvent is emitted after each tool call completes.
type ToolResultEvent struct {
	Round    int
	Call     llm.ToolCall
	Content  string
	IsError  bool
	Duration time.Duration
}

func (e *ToolResultEvent) Type() EventType { return EventToolResult }

// ResultEvent is emitted once at the end of a run with summary information.
type ResultEvent struct {
	// Subtype indicates the outcome: "success", "error_max_rounds",
	// "error_max_budget_usd", or "error_during_execution".
	Subtype      string
	SessionID    string
	Actor        string
	DurationMs   int64
	IsError      bool
	NumRounds    int
	NumToolCalls int
	TotalCost    decimal.Decimal
	Usage        llm.Usage
	Result       string
	Errors       []string
}

func (e *ResultEvent) Type() EventType { return EventResult }
