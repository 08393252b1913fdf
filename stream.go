package agent

// AgentStream is an iterator over events emitted during an agent run.
// Usage:
//
//	stream := a.Run(ctx, "prompt")
//	for stream.Next() {
//	    event := stream.Current()
//	    // handle event
//	}
type AgentStream struct {
	events  chan Event
	current Event
	done    bool
	session *Session
}

func newStream(events chan Event, session *Session) *AgentStream {
	return &AgentStream{
		events:  events,
		session: session,
	}
}

// Next advances to the next event. Returns false when the stream is exhausted.
func (s *AgentStream) Next() bool {
	if s.done {
		return false
	}
	event, ok := <-s.events
	if !ok {
		s.done = true
		return false
	}
	s.current = event
	return true
}

// Current returns the most recent event returned by Next.
func (s *AgentStream) Current() Event {
	return s.current
}

// Session returns the session associated with this stream.
// The session is populated with conversation history after the run completes.
func (s *AgentStream) Session() *Session {
	return s.session
}

// RunResult summarizes a drained stream.
type RunResult struct {
	SessionID    string
	Text         string
	Subtype      string
	IsError      bool
	NumRounds    int
	NumToolCalls int
	Result       *ResultEvent
}

// Collect drains the stream and returns its outcome. A stream that ends
// without a result event is reported as an execution error.
func Collect(stream *AgentStream) *RunResult {
	var result *ResultEvent
	for stream.Next() {
		if e, ok := stream.Current().(*ResultEvent); ok {
			result = e
		}
	}
	if result == nil {
		return &RunResult{
			SessionID: stream.Session().ID,
			Subtype:   SubtypeExecutionError,
			IsError:   true,
		}
	}
	return &RunResult{
		SessionID:    result.SessionID,
		Text:         result.Result,
		Subtype:      result.Subtype,
		IsError:      result.IsError,
		NumRounds:    result.NumRounds,
		NumToolCalls: result.NumToolCalls,
		Result:       result,
	}
}
