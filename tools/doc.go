// Package tools provides the built-in tools of the task agent: shell, file
// read/write/edit, glob, grep and the todo list.
//
// Use [RegisterAll] to register them into a registry:
//
//	registry := agent.NewToolRegistry()
//	todos := tools.RegisterAll(registry)
//
// File tools resolve relative paths against the working directory carried by
// the context (see [agent.WithContextWorkDir]) and refuse paths that escape it.
package tools
