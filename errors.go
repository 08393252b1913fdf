package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the agent loop, tool registry and session stores.
var (
	ErrBudgetExhausted = errors.New("agent: budget exhausted")
	ErrMaxRounds       = errors.New("agent: max rounds reached")
	ErrNoSessionStore  = errors.New("agent: no session store configured")
	ErrSessionNotFound = errors.New("agent: session not found")

	ErrStoreNotListable = errors.New("agent: session store does not support listing")
	ErrNoSessions       = errors.New("agent: no sessions in store")

	// ErrToolNotFound is returned when executing a name nobody registered.
	ErrToolNotFound = errors.New("agent: tool not found")

	// ErrUnknownTool is a configuration error: a tool filter names a tool
	// that is not registered.
	ErrUnknownTool = errors.New("agent: unknown tool in filter")

	// ErrInvalidSchema is a configuration error: a tool was registered with
	// an input schema that does not compile.
	ErrInvalidSchema = errors.New("agent: invalid tool schema")

	// ErrInvalidFilter is returned for malformed tool filter specs.
	ErrInvalidFilter = errors.New("agent: invalid tool filter")
)

// ArgumentError reports arguments that failed schema validation.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tool %s: invalid arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }
