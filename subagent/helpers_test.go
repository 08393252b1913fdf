package subagent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	agent "github.com/armatrix/taskagent"
	"github.com/armatrix/taskagent/llm"
	"github.com/armatrix/taskagent/tools"
)

// splitModel serves the parent and child agents from separate scripts. A
// request belongs to a child when its system prompt is a subagent prompt.
type splitModel struct {
	mu         sync.Mutex
	parent     []*llm.Response
	child      []*llm.Response
	childLoop  *llm.Response // served once the child script is exhausted
	childErr   error
	parentReqs []llm.Request
	childReqs  []llm.Request
}

func (m *splitModel) Name() string { return "test-model" }

func (m *splitModel) Query(_ context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.Messages = agent.CopyMessages(req.Messages)

	if strings.Contains(req.System, "subagent at") {
		m.childReqs = append(m.childReqs, req)
		if m.childErr != nil {
			return nil, m.childErr
		}
		i := len(m.childReqs) - 1
		if i < len(m.child) {
			return m.child[i], nil
		}
		if m.childLoop != nil {
			return m.childLoop, nil
		}
		return &llm.Response{Text: "child out of script"}, nil
	}

	m.parentReqs = append(m.parentReqs, req)
	i := len(m.parentReqs) - 1
	if i < len(m.parent) {
		return m.parent[i], nil
	}
	return &llm.Response{Text: "parent out of script"}, nil
}

func (m *splitModel) ChildRequests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.childReqs...)
}

func (m *splitModel) ParentRequests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.parentReqs...)
}

var errModel = errors.New("boom")

func text(s string) *llm.Response {
	return &llm.Response{Text: s, StopReason: "end_turn"}
}

func call(id, name string, args any) *llm.Response {
	raw, _ := json.Marshal(args)
	return &llm.Response{
		ToolCalls:  []llm.ToolCall{{ID: id, Name: name, Arguments: raw}},
		StopReason: "tool_use",
	}
}

func taskCall(id, agentType, desc, prompt string) *llm.Response {
	return call(id, TaskToolName, map[string]string{
		"agent_type":       agentType,
		"task_description": desc,
		"prompt":           prompt,
	})
}

// setup builds a registry with the built-in tools and the Task tool.
func setup(t *testing.T, m llm.Model, opts ...Option) (*agent.ToolRegistry, *Dispatcher, string) {
	t.Helper()
	dir := t.TempDir()
	r := agent.NewToolRegistry()
	tools.RegisterAll(r)
	d := NewDispatcher(m, r, append([]Option{WithWorkDir(dir)}, opts...)...)
	RegisterTaskTool(r, d)
	return r, d, dir
}

type recordingProgress struct {
	mu      sync.Mutex
	started []TaskInfo
	updates []TaskInfo
	done    []TaskInfo
}

func (p *recordingProgress) Start(info TaskInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, info)
}

func (p *recordingProgress) Update(info TaskInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, info)
}

func (p *recordingProgress) Done(info TaskInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, info)
}

func toolNames(specs []llm.ToolSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

func writeWorkspaceFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("package main\n"), 0o644))
}

func readWorkspaceFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}
