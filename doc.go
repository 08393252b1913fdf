// Package agent runs a model-driven tool loop and the sessions around it.
//
// A main agent works through a conversation loop: it asks an [llm.Model] for
// the next step, runs the tool calls the model requests and feeds the results
// back until the model answers with plain text or a round ceiling is hit.
// Tools live in a shared [ToolRegistry]; every agent sees a view of it
// narrowed by a [ToolFilter], so delegated subagents can run with fewer
// capabilities than their parent.
//
//   - [Agent] is a stateless execution engine that holds config and tools.
//   - [Client] is a stateful session container wrapping an Agent.
//
// # Quick Start
//
//	registry := agent.NewToolRegistry()
//	tools.RegisterAll(registry)
//	a, err := agent.NewAgent(
//	    agent.WithModel(anthropic.New(anthropic.Config{Model: "claude-sonnet-4-5"})),
//	    agent.WithTools(registry),
//	)
//	if err != nil {
//	    return err
//	}
//	res := agent.Collect(a.Run(ctx, "What files are in this directory?"))
//	fmt.Println(res.Text)
//
// # Sub-packages
//
//   - [tools] provides the built-in tools (bash, read_file, write_file,
//     edit_file, glob, grep, todo_write).
//   - [subagent] provides the explore, plan and code profiles, the task
//     dispatcher and the Task delegation tool.
//   - [session] provides SessionStore and Recorder implementations.
//   - [llm] defines the model boundary; llm/anthropic and llm/openai
//     implement it.
package agent
