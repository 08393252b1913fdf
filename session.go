package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armatrix/taskagent/llm"
)

// Session holds the conversation history of one agent. The main agent keeps
// one session across REPL turns; every delegation gets a fresh one.
type Session struct {
	ID        string        `json:"id"`
	Messages  []llm.Message `json:"messages"`
	Metadata  SessionMeta   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SessionMeta contains summary statistics for a session.
type SessionMeta struct {
	Model     string          `json:"model,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Usage     llm.Usage       `json:"usage"`
	NumRounds int             `json:"num_rounds"`
}

// NewSession creates a new empty session.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateID(PrefixSession),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone creates a deep copy of the session with a new ID and timestamp.
// The message history is copied so the original session is not affected.
func (s *Session) Clone() *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateID(PrefixSession),
		Messages:  CopyMessages(s.Messages),
		Metadata:  s.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CopyMessages returns a copy of msgs that shares no slices with the input.
func CopyMessages(msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		if len(m.ToolCalls) > 0 {
			calls := make([]llm.ToolCall, len(m.ToolCalls))
			for j, c := range m.ToolCalls {
				c.Arguments = append(json.RawMessage(nil), c.Arguments...)
				calls[j] = c
			}
			m.ToolCalls = calls
		}
		out[i] = m
	}
	return out
}

// SessionStore defines the interface for session persistence backends.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionLister extends SessionStore with the ability to list sessions.
type SessionLister interface {
	SessionStore
	List(ctx context.Context) ([]*Session, error)
}

// SessionForker extends SessionStore with the ability to fork (clone + save) a session.
type SessionForker interface {
	SessionStore
	Fork(ctx context.Context, id string) (*Session, error)
}

// FullSessionStore combines all session store capabilities.
type FullSessionStore interface {
	SessionStore
	List(ctx context.Context) ([]*Session, error)
	Fork(ctx context.Context, id string) (*Session, error)
}

// Transcript event kinds written by a Recorder.
const (
	TranscriptMeta      = "meta"
	TranscriptAssistant = "assistant"
	TranscriptTool      = "tool"
	TranscriptResult    = "result"
)

// TranscriptEntry is one line of a run transcript.
type TranscriptEntry struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	SessionID string          `json:"session_id"`
	Actor     string          `json:"actor"`
	Model     string          `json:"model,omitempty"`
	Round     int             `json:"round,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []llm.ToolCall  `json:"tool_calls,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Subtype   string          `json:"subtype,omitempty"`
}

// Recorder receives transcript entries of every run it is attached to,
// including delegated children. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(entry TranscriptEntry) error
}
