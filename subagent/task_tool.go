package subagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	agent "github.com/armatrix/taskagent"
)

// TaskToolName is the name of the delegation tool.
const TaskToolName = "Task"

// TaskInput is the argument object of the Task tool.
type TaskInput struct {
	AgentType       string `json:"agent_type"`
	TaskDescription string `json:"task_description"`
	Prompt          string `json:"prompt"`
}

// TaskSchema returns the advertised parameter schema of the Task tool.
func TaskSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_type": map[string]any{
				"type":        "string",
				"enum":        Names(),
				"description": "Which kind of subagent to run",
			},
			"task_description": map[string]any{
				"type":        "string",
				"description": "Short (3-5 words) description of the task, shown in progress output",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "Detailed instructions for the subagent",
			},
		},
		"required": []string{"agent_type", "task_description", "prompt"},
	}
}

// TaskDescription returns the Task tool description listing the agent types.
func TaskDescription() string {
	return "Spawn a subagent with a fresh context for a focused subtask. It returns a summary when done.\n\nAgent types:\n" +
		DescriptionsPrompt()
}

// RegisterTaskTool registers the Task tool on r backed by d. Arguments are
// checked by the tool itself so an unknown agent_type yields a structured
// error listing the valid types. The tool is exclusive.
func RegisterTaskTool(r *agent.ToolRegistry, d *Dispatcher) {
	r.RegisterRaw(TaskToolName, TaskDescription(), TaskSchema(),
		func(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
			input, err := decodeTaskInput(raw)
			if err != nil {
				return errorResult(fmt.Sprintf("invalid input: %s", err)), nil
			}
			t, err := ParseAgentType(strings.TrimSpace(input.AgentType))
			if err != nil {
				return agent.JSONResult(map[string]any{
					"error":             fmt.Sprintf("Unknown agent type '%s'", input.AgentType),
					"valid_agent_types": Names(),
				}, true), nil
			}

			result, err := d.Dispatch(ctx, t, input.TaskDescription, input.Prompt)
			switch {
			case errors.Is(err, ErrMissingDescription):
				return errorResult("task_description is required"), nil
			case err != nil:
				return errorResult(err.Error()), nil
			}

			out := agent.TextResult(result.Summary)
			out.IsError = result.Subtype == agent.SubtypeExecutionError
			out.Metadata = map[string]any{
				"task_id":    result.ID,
				"agent_type": string(result.Type),
				"tool_calls": result.ToolCalls,
				"rounds":     result.Rounds,
				"elapsed_ms": result.Elapsed.Milliseconds(),
				"subtype":    result.Subtype,
			}
			return out, nil
		},
		agent.SkipValidation(), agent.Exclusive(),
	)
}

// decodeTaskInput reads the Task arguments. A non-string agent_type is kept
// as its JSON text so it is reported as an unknown agent type.
func decodeTaskInput(raw json.RawMessage) (TaskInput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return TaskInput{}, err
	}
	var input TaskInput
	if v, ok := fields["agent_type"]; ok {
		if err := json.Unmarshal(v, &input.AgentType); err != nil {
			input.AgentType = string(v)
		}
	}
	for key, dst := range map[string]*string{
		"task_description": &input.TaskDescription,
		"prompt":           &input.Prompt,
	} {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return TaskInput{}, fmt.Errorf("%s must be a string", key)
		}
	}
	return input, nil
}

func errorResult(msg string) *agent.ToolResult {
	return agent.JSONResult(map[string]string{"error": msg}, true)
}
