package subagent

import (
	"fmt"
	"strings"

	agent "github.com/armatrix/taskagent"
)

// AgentType names a subagent profile.
type AgentType string

const (
	Explore AgentType = "explore"
	Plan    AgentType = "plan"
	Code    AgentType = "code"
)

// Profile is the static configuration of one agent type.
type Profile struct {
	Type        AgentType
	Description string
	Tools       agent.ToolFilter
	Prompt      string
}

var readOnlyTools = []string{"bash", "read_file", "glob", "grep"}

// profiles is ordered; Names and DescribeAll follow this order.
var profiles = []Profile{
	{
		Type:        Explore,
		Description: "Read-only subagent for searching files and understanding code.",
		Tools:       agent.OnlyTools(readOnlyTools...),
		Prompt:      "You are an exploration subagent. Search and analyze, but never modify files. Return a concise summary.",
	},
	{
		Type:        Plan,
		Description: "Read-only planning subagent for strategy and sequencing.",
		Tools:       agent.OnlyTools(readOnlyTools...),
		Prompt:      "You are a planning subagent. Analyze the codebase and output a numbered implementation plan. Do NOT make changes.",
	},
	{
		Type:        Code,
		Description: "Implementation subagent with full tool access.",
		Tools:       agent.AllToolsExcept(TaskToolName),
		Prompt:      "You are a coding subagent. You have full access to implement changes efficiently in the codebase.",
	},
}

// ParseAgentType validates s against the known agent types.
func ParseAgentType(s string) (AgentType, error) {
	for _, p := range profiles {
		if string(p.Type) == s {
			return p.Type, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnknownAgentType, s)
}

// Lookup returns the profile for t.
func Lookup(t AgentType) (Profile, bool) {
	for _, p := range profiles {
		if p.Type == t {
			return p, true
		}
	}
	return Profile{}, false
}

// Names returns the agent type names in declaration order.
func Names() []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = string(p.Type)
	}
	return names
}

// DescribeAll returns a copy of every profile.
func DescribeAll() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// DescriptionsPrompt lists the agent types for inclusion in a system prompt
// or tool description, one "- type: description" line each.
func DescriptionsPrompt() string {
	lines := make([]string, len(profiles))
	for i, p := range profiles {
		lines[i] = fmt.Sprintf("- %s: %s", p.Type, p.Description)
	}
	return strings.Join(lines, "\n")
}

// SystemPrompt builds the child system prompt for a profile in workspace.
func (p Profile) SystemPrompt(workspace string) string {
	return fmt.Sprintf("You are a %s subagent at %s.\n\n%s\n\nComplete the task and return a clear, concise summary.",
		p.Type, workspace, p.Prompt)
}
