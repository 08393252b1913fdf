package tools

import agent "github.com/armatrix/taskagent"

// RegisterAll registers the built-in tools on r and returns the TodoList
// backing todo_write. Tools that mutate state are registered exclusive so the
// engine never runs them alongside other calls.
func RegisterAll(r *agent.ToolRegistry) *TodoList {
	todos := NewTodoList()
	agent.RegisterTool(r, &BashTool{})
	agent.RegisterTool(r, &ReadTool{})
	agent.RegisterTool(r, &WriteTool{}, agent.Exclusive())
	agent.RegisterTool(r, &EditTool{}, agent.Exclusive())
	agent.RegisterTool(r, &GlobTool{})
	agent.RegisterTool(r, &GrepTool{})
	agent.RegisterTool(r, &TodoWriteTool{List: todos}, agent.Exclusive())
	return todos
}
