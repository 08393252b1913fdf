package session_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/armatrix/taskagent"
	"github.com/armatrix/taskagent/llm"
	"github.com/armatrix/taskagent/session"
)

func transcript() []agent.TranscriptEntry {
	now := time.Now()
	return []agent.TranscriptEntry{
		{Event: agent.TranscriptMeta, Timestamp: now, SessionID: "s1", Actor: "main", Model: "gpt-4o"},
		{Event: agent.TranscriptAssistant, Timestamp: now, SessionID: "s1", Actor: "main", Round: 1,
			ToolCalls: []llm.ToolCall{{ID: "c1", Name: "Task", Arguments: json.RawMessage(`{"agent_type":"explore"}`)}}},
		{Event: agent.TranscriptTool, Timestamp: now, SessionID: "s2", Actor: "explore", Round: 1,
			ToolName: "glob", Arguments: json.RawMessage(`{"pattern":"*"}`), Content: "a.go"},
		{Event: agent.TranscriptResult, Timestamp: now, SessionID: "s1", Actor: "main", Content: "done", Subtype: "success"},
	}
}

func TestJSONLRecorder(t *testing.T) {
	dir := t.TempDir()
	r, err := session.NewJSONLRecorder(dir, "openai/gpt-4o")
	require.NoError(t, err)

	base := filepath.Base(r.Path())
	assert.True(t, strings.HasPrefix(base, "openai-gpt-4o_"), base)
	assert.True(t, strings.HasSuffix(base, ".jsonl"), base)

	for _, e := range transcript() {
		require.NoError(t, r.Record(e))
	}
	require.NoError(t, r.Close())
	assert.Error(t, r.Record(agent.TranscriptEntry{}))

	f, err := os.Open(r.Path())
	require.NoError(t, err)
	defer f.Close()

	var got []agent.TranscriptEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e agent.TranscriptEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		got = append(got, e)
	}
	require.Len(t, got, 4)
	assert.Equal(t, "explore", got[2].Actor)
	assert.Equal(t, "glob", got[2].ToolName)
	assert.Equal(t, "Task", got[1].ToolCalls[0].Name)
}

func TestSQLiteStore_Events(t *testing.T) {
	store, err := session.OpenSQLite(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	defer store.Close()

	for _, e := range transcript() {
		require.NoError(t, store.Record(e))
	}

	events, err := store.Events(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, agent.TranscriptMeta, events[0].Event)
	assert.Equal(t, "gpt-4o", events[0].Model)
	require.Len(t, events[1].ToolCalls, 1)
	assert.JSONEq(t, `{"agent_type":"explore"}`, string(events[1].ToolCalls[0].Arguments))
	assert.Equal(t, "success", events[2].Subtype)

	child, err := store.Events(context.Background(), "s2")
	require.NoError(t, err)
	require.Len(t, child, 1)
	assert.Equal(t, "explore", child[0].Actor)
	assert.JSONEq(t, `{"pattern":"*"}`, string(child[0].Arguments))
}
