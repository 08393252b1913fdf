// Package subagent delegates work from the main agent to isolated child agents.
//
// Each child is built from a fixed profile (explore, plan or code) that
// decides its tools and system prompt. A child starts from an empty history,
// runs its own conversation loop under a round ceiling, and hands a single
// summary back to the parent as the result of the Task tool call.
//
//	d := subagent.NewDispatcher(model, registry, subagent.WithWorkDir(dir))
//	subagent.RegisterTaskTool(registry, d)
package subagent
