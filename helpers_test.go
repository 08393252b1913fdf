package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/armatrix/taskagent/llm"
)

// scriptedModel replays responses in order and records every request.
type scriptedModel struct {
	mu        sync.Mutex
	name      string
	responses []*llm.Response
	err       error
	requests  []llm.Request
	panicMsg  string
}

func (m *scriptedModel) Name() string {
	if m.name == "" {
		return "test-model"
	}
	return m.name
}

func (m *scriptedModel) Query(_ context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	req.Messages = CopyMessages(req.Messages)
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.requests) - 1
	if i >= len(m.responses) {
		return &llm.Response{Text: "out of script"}, nil
	}
	return m.responses[i], nil
}

func (m *scriptedModel) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

func textResponse(text string) *llm.Response {
	return &llm.Response{Text: text, StopReason: "end_turn"}
}

func toolResponse(calls ...llm.ToolCall) *llm.Response {
	return &llm.Response{ToolCalls: calls, StopReason: "tool_use"}
}

// recordingStore is a test SessionStore that records calls.
type recordingStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	saves    int
	saveErr  error
}

func (s *recordingStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.sessions == nil {
		s.sessions = make(map[string]*Session)
	}
	cp := *session
	cp.Messages = CopyMessages(session.Messages)
	s.sessions[session.ID] = &cp
	return nil
}

func (s *recordingStore) Load(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *recordingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *recordingStore) List(_ context.Context) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Session
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []TranscriptEntry
}

func (r *memoryRecorder) Record(e TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}
