package subagent

import "errors"

// Sentinel errors for the subagent package.
var (
	ErrUnknownAgentType   = errors.New("subagent: unknown agent type")
	ErrMissingDescription = errors.New("subagent: task_description is required")
)
