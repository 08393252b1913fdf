package engine

import "github.com/armatrix/taskagent/llm"

// ClearedPlaceholder replaces tool result content removed by micro-compaction.
const ClearedPlaceholder = "[Old tool result content cleared]"

// CompactConfig controls micro-compaction of old tool results.
type CompactConfig struct {
	// Tools lists tool names whose results may be cleared.
	Tools map[string]bool
	// KeepRecent results of compactable tools are never cleared.
	KeepRecent int
	// MinTokens is the estimated size a result must exceed to be cleared.
	MinTokens int
	// MinSavings is the total estimated tokens that must be reclaimable
	// before anything is cleared.
	MinSavings int
}

// DefaultCompactConfig returns the standard compaction thresholds.
func DefaultCompactConfig() CompactConfig {
	return CompactConfig{
		Tools: map[string]bool{
			"bash": true, "read_file": true, "write_file": true,
			"edit_file": true, "glob": true, "grep": true,
		},
		KeepRecent: 3,
		MinTokens:  1000,
		MinSavings: 20_000,
	}
}

// EstimateTokens approximates token count as one token per four characters.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// MicroCompact clears the content of old, large results from compactable tools
// in place and returns how many were cleared. Message order and count never
// change.
func MicroCompact(history []llm.Message, cfg CompactConfig) int {
	var candidates []int
	for i, msg := range history {
		if msg.Role == llm.RoleTool && cfg.Tools[msg.Name] && msg.Content != ClearedPlaceholder {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) <= cfg.KeepRecent {
		return 0
	}
	candidates = candidates[:len(candidates)-cfg.KeepRecent]

	var clearable []int
	savings := 0
	for _, i := range candidates {
		if tokens := EstimateTokens(history[i].Content); tokens > cfg.MinTokens {
			clearable = append(clearable, i)
			savings += tokens
		}
	}
	if savings < cfg.MinSavings {
		return 0
	}
	for _, i := range clearable {
		history[i].Content = ClearedPlaceholder
	}
	return len(clearable)
}
