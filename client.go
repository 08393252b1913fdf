package agent

import (
	"context"
	"sync"
)

// Client is a stateful session container that wraps an Agent. It keeps one
// conversation history across Query calls, which is how the main agent of an
// interactive session runs.
type Client struct {
	agent   *Agent
	session *Session
	store   SessionStore

	mu     sync.Mutex
	cancel context.CancelFunc // cancel for current Query
}

// NewClient creates a new Client with its own Agent configured by the given options.
func NewClient(opts ...AgentOption) (*Client, error) {
	a, err := NewAgent(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		agent:   a,
		session: NewSession(),
		store:   a.opts.sessionStore,
	}, nil
}

// Query sends a prompt to the agent within the client's ongoing session.
// The session history is automatically maintained across calls.
func (c *Client) Query(ctx context.Context, prompt string) *AgentStream {
	c.mu.Lock()
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	session := c.session
	c.mu.Unlock()

	return c.agent.RunWithSession(ctx, session, prompt)
}

// Interrupt cancels the currently running Query, if any. The session is kept,
// so the next Query continues the conversation.
func (c *Client) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Resume loads a session from the store and replaces the current session.
// Requires a SessionStore to be configured via WithSessionStore.
func (c *Client) Resume(ctx context.Context, sessionID string) error {
	if c.store == nil {
		return ErrNoSessionStore
	}
	session, err := c.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return nil
}

// Fork creates a new Client that shares the same Agent but has a cloned session.
func (c *Client) Fork() *Client {
	c.mu.Lock()
	cloned := c.session.Clone()
	c.mu.Unlock()

	return &Client{
		agent:   c.agent,
		session: cloned,
		store:   c.store,
	}
}

// ContinueLatest loads the most recently updated session from the store.
// Requires a SessionStore that implements SessionLister.
func (c *Client) ContinueLatest(ctx context.Context) error {
	if c.store == nil {
		return ErrNoSessionStore
	}
	lister, ok := c.store.(SessionLister)
	if !ok {
		return ErrStoreNotListable
	}
	sessions, err := lister.List(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return ErrNoSessions
	}
	latest := sessions[0]
	for _, s := range sessions[1:] {
		if s.UpdatedAt.After(latest.UpdatedAt) {
			latest = s
		}
	}
	c.mu.Lock()
	c.session = latest
	c.mu.Unlock()
	return nil
}

// Reset starts a fresh session, dropping the current history.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = NewSession()
}

// Session returns the client's current session.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Agent returns the underlying Agent.
func (c *Client) Agent() *Agent {
	return c.agent
}

// Close persists the session (if a store is configured).
func (c *Client) Close() error {
	if c.store != nil {
		return c.store.Save(context.Background(), c.Session())
	}
	return nil
}
