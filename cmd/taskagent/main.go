// Command taskagent is an interactive coding agent that delegates focused
// subtasks to explore, plan and code subagents.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
