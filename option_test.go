package agent

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/armatrix/taskagent/internal/logging"
)

func TestResolveOptionsDefaults(t *testing.T) {
	opts := resolveOptions(nil)

	assert.Nil(t, opts.model)
	assert.Equal(t, DefaultMaxOutputTokens, opts.maxOutputTokens)
	assert.Equal(t, DefaultMaxRounds, opts.maxRounds)
	assert.Equal(t, DefaultStreamBufferSize, opts.streamBufferSize)
	assert.Equal(t, DefaultActor, opts.actor)
	assert.Equal(t, "*", opts.toolFilter.String())
	assert.NotNil(t, opts.tools)
	assert.NotNil(t, opts.logger)
	assert.False(t, opts.reminders)
	assert.False(t, opts.compactDisabled)
	assert.True(t, opts.maxBudget.IsZero())
}

func TestLoopOptions(t *testing.T) {
	opts := resolveOptions([]AgentOption{
		WithMaxRounds(30),
		WithRoundLimitNotice("stopped"),
		WithActor("explore"),
		WithReminders(true),
		WithParallelTools(true),
		WithCompaction(false),
		WithWorkDir("/repo"),
		WithMaxOutputTokens(1024),
	})
	assert.Equal(t, 30, opts.maxRounds)
	assert.Equal(t, "stopped", opts.roundLimitNotice)
	assert.Equal(t, "explore", opts.actor)
	assert.True(t, opts.reminders)
	assert.True(t, opts.parallelTools)
	assert.True(t, opts.compactDisabled)
	assert.Equal(t, "/repo", opts.workDir)
	assert.Equal(t, 1024, opts.maxOutputTokens)
}

func TestWithMaxRoundsZeroMeansUnlimited(t *testing.T) {
	opts := resolveOptions([]AgentOption{WithMaxRounds(0)})
	assert.Equal(t, 0, opts.maxRounds)
}

func TestModelOptions(t *testing.T) {
	m := &scriptedModel{}
	opts := resolveOptions([]AgentOption{
		WithModel(m),
		WithModelName("gpt-4o"),
		WithSystemPrompt("be brief"),
	})
	assert.Same(t, m, opts.model)
	assert.Equal(t, "gpt-4o", opts.modelName)
	assert.Equal(t, "be brief", opts.systemPrompt)
}

func TestWithBudget(t *testing.T) {
	budget := decimal.NewFromFloat(5.0)
	opts := resolveOptions([]AgentOption{
		WithBudget(budget),
	})
	assert.True(t, budget.Equal(opts.maxBudget))
}

func TestToolOptions(t *testing.T) {
	r := NewToolRegistry()
	opts := resolveOptions([]AgentOption{
		WithTools(r),
		WithToolFilter(OnlyTools("bash")),
	})
	assert.Same(t, r, opts.tools)
	assert.Equal(t, "bash", opts.toolFilter.String())
}

func TestInfrastructureOptions(t *testing.T) {
	logger := logging.Discard()
	store := &recordingStore{}
	rec := &memoryRecorder{}
	opts := resolveOptions([]AgentOption{
		WithLogger(logger),
		WithSessionStore(store),
		WithRecorder(rec),
		WithStreamBufferSize(8),
	})
	assert.Same(t, logger, opts.logger)
	assert.Same(t, store, opts.sessionStore)
	assert.Same(t, rec, opts.recorder)
	assert.Equal(t, 8, opts.streamBufferSize)
}

func TestRoundLimitNotice(t *testing.T) {
	assert.Equal(t, DefaultRoundLimitNotice, RoundLimitNotice(DefaultMaxRounds))
	assert.Contains(t, RoundLimitNotice(7), "max rounds (7)")
}
