package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armatrix/taskagent/internal/budget"
	"github.com/armatrix/taskagent/internal/engine"
	"github.com/armatrix/taskagent/llm"
)

// Agent is a stateless execution engine that holds configuration and the
// resolved tool set. The same Agent can be shared across goroutines; each run
// works on its own Session.
type Agent struct {
	model llm.Model
	tools *ToolSet
	opts  agentOptions
}

// NewAgent creates a new Agent with the given options. The tool filter is
// resolved against the registry here, so a filter naming an unregistered tool
// fails at construction.
func NewAgent(opts ...AgentOption) (*Agent, error) {
	resolved := resolveOptions(opts)
	if resolved.model == nil {
		return nil, fmt.Errorf("agent: no model configured")
	}
	set, err := resolved.tools.Resolve(resolved.toolFilter)
	if err != nil {
		return nil, fmt.Errorf("resolve tools for %s: %w", resolved.actor, err)
	}
	if resolved.modelName == "" {
		resolved.modelName = resolved.model.Name()
	}
	return &Agent{
		model: resolved.model,
		tools: set,
		opts:  resolved,
	}, nil
}

// Tools returns the resolved tool set.
func (a *Agent) Tools() *ToolSet {
	return a.tools
}

// ModelName returns the configured model name.
func (a *Agent) ModelName() string {
	return a.opts.modelName
}

// Actor returns the agent's name in logs and events.
func (a *Agent) Actor() string {
	return a.opts.actor
}

// Run starts a single-shot agent execution with a new session.
// Returns an AgentStream for iterating over events.
func (a *Agent) Run(ctx context.Context, prompt string) *AgentStream {
	return a.RunWithSession(ctx, NewSession(), prompt)
}

// RunWithSession starts an agent execution using an existing session.
// The session's message history is preserved and extended.
func (a *Agent) RunWithSession(ctx context.Context, session *Session, prompt string) *AgentStream {
	session.Messages = append(session.Messages, llm.UserMessage(prompt))

	eventCh := make(chan Event, a.opts.streamBufferSize)
	stream := newStream(eventCh, session)
	logger := a.opts.logger.With("actor", a.opts.actor)

	var tracker *budget.BudgetTracker
	if !a.opts.maxBudget.IsZero() {
		tracker = budget.NewBudgetTracker(a.opts.maxBudget, budget.DefaultPricing)
	}

	sink := &channelSink{
		ch:       eventCh,
		recorder: a.opts.recorder,
		logger:   logger,
		model:    a.opts.modelName,
		actor:    a.opts.actor,
		tracker:  tracker,
		onResult: func(info engine.ResultInfo, cost decimal.Decimal) {
			a.finishSession(ctx, session, info, cost, logger)
		},
	}

	cfg := engine.LoopConfig{
		Model:            &namedModel{Model: a.model, name: a.opts.modelName},
		Tools:            &toolSetExecutor{set: a.tools},
		MaxTokens:        a.opts.maxOutputTokens,
		MaxRounds:        a.opts.maxRounds,
		RoundLimitNotice: a.opts.roundLimitNotice,
		Messages:         &session.Messages,
		SystemPrompt:     a.opts.systemPrompt,
		Reminders:        a.opts.reminders,
		ReminderTool:     TodoToolName,
		Parallel:         a.opts.parallelTools,
		SessionID:        session.ID,
		Actor:            a.opts.actor,
		Sink:             sink,
		Logger:           logger,
	}
	if !a.opts.compactDisabled {
		compact := engine.DefaultCompactConfig()
		cfg.Compact = &compact
	}
	if tracker != nil {
		cfg.Budget = tracker
	}

	runCtx := WithContextActor(ctx, a.opts.actor)
	if a.opts.workDir != "" {
		runCtx = WithContextWorkDir(runCtx, a.opts.workDir)
	}

	go func() {
		defer close(eventCh)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("agent loop panicked", "panic", r)
				if !sink.finished {
					sink.OnResult(engine.ResultInfo{
						Subtype:   engine.SubtypeExecutionError,
						SessionID: session.ID,
						Actor:     a.opts.actor,
						IsError:   true,
						Errors:    []string{fmt.Sprintf("panic: %v", r)},
					})
				}
			}
		}()
		engine.RunLoop(runCtx, cfg)
	}()

	return stream
}

// finishSession updates session metadata and persists it when a store is
// configured. Persistence failures are logged, not fatal.
func (a *Agent) finishSession(ctx context.Context, session *Session, info engine.ResultInfo, cost decimal.Decimal, logger *slog.Logger) {
	session.UpdatedAt = time.Now()
	session.Metadata.Model = a.opts.modelName
	session.Metadata.Actor = a.opts.actor
	session.Metadata.NumRounds += info.NumRounds
	session.Metadata.Usage = session.Metadata.Usage.Add(info.Usage)
	session.Metadata.TotalCost = session.Metadata.TotalCost.Add(cost)

	if a.opts.sessionStore == nil {
		return
	}
	if err := a.opts.sessionStore.Save(context.WithoutCancel(ctx), session); err != nil {
		logger.Warn("save session failed", "session", session.ID, "error", err)
	}
}

// namedModel reports a configured name in place of the model's own.
type namedModel struct {
	llm.Model
	name string
}

func (m *namedModel) Name() string { return m.name }

// toolSetExecutor adapts ToolSet to engine.ToolExecutor.
type toolSetExecutor struct {
	set *ToolSet
}

func (t *toolSetExecutor) Execute(ctx context.Context, name string, args json.RawMessage) (string, bool) {
	result := t.set.Call(ctx, name, args)
	return result.Content, result.IsError
}

func (t *toolSetExecutor) Specs() []llm.ToolSpec {
	return t.set.Specs()
}

func (t *toolSetExecutor) Exclusive(name string) bool {
	return t.set.registry.exclusive(name)
}

// channelSink implements engine.EventSink by sending events to a channel and
// mirroring them to the transcript recorder.
type channelSink struct {
	ch       chan Event
	recorder Recorder
	logger   *slog.Logger
	model    string
	actor    string
	tracker  *budget.BudgetTracker
	onResult func(engine.ResultInfo, decimal.Decimal)
	session  string
	finished bool
}

func (s *channelSink) OnSystem(sessionID, actor, model string) {
	s.session = sessionID
	s.record(TranscriptEntry{Event: TranscriptMeta, Model: model})
	s.ch <- &SystemEvent{SessionID: sessionID, Actor: actor, Model: model}
}

func (s *channelSink) OnAssistant(msg llm.Message, round int) {
	s.record(TranscriptEntry{
		Event:     TranscriptAssistant,
		Round:     round,
		Content:   msg.Content,
		ToolCalls: msg.ToolCalls,
	})
	s.ch <- &AssistantEvent{Round: round, Message: msg}
}

func (s *channelSink) OnToolResult(info engine.ToolResultInfo) {
	s.record(TranscriptEntry{
		Event:     TranscriptTool,
		Round:     info.Round,
		ToolName:  info.Call.Name,
		Arguments: info.Call.Arguments,
		Content:   info.Content,
		IsError:   info.IsError,
	})
	s.ch <- &ToolResultEvent{
		Round:    info.Round,
		Call:     info.Call,
		Content:  info.Content,
		IsError:  info.IsError,
		Duration: info.Duration,
	}
}

func (s *channelSink) OnResult(info engine.ResultInfo) {
	s.finished = true
	cost := decimal.Zero
	if s.tracker != nil {
		cost = s.tracker.TotalCost()
	} else if p, ok := budget.Lookup(budget.DefaultPricing, s.model); ok {
		cost = usageCost(p, info.Usage)
	}
	if s.onResult != nil {
		s.onResult(info, cost)
	}
	s.record(TranscriptEntry{
		Event:   TranscriptResult,
		Content: info.Result,
		IsError: info.IsError,
		Subtype: info.Subtype,
	})
	s.ch <- &ResultEvent{
		Subtype:      info.Subtype,
		SessionID:    info.SessionID,
		Actor:        info.Actor,
		DurationMs:   info.DurationMs,
		IsError:      info.IsError,
		NumRounds:    info.NumRounds,
		NumToolCalls: info.NumToolCalls,
		TotalCost:    cost,
		Usage:        info.Usage,
		Result:       info.Result,
		Errors:       info.Errors,
	}
}

func (s *channelSink) record(entry TranscriptEntry) {
	if s.recorder == nil {
		return
	}
	entry.Timestamp = time.Now()
	entry.SessionID = s.session
	entry.Actor = s.actor
	if entry.Model == "" {
		entry.Model = s.model
	}
	if err := s.recorder.Record(entry); err != nil {
		s.logger.Warn("record transcript failed", "event", entry.Event, "error", err)
	}
}

func usageCost(p budget.ModelPricing, u llm.Usage) decimal.Decimal {
	totalInput := int(u.InputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens)
	return p.CostForInput(int(u.InputTokens), int(u.CacheReadInputTokens), int(u.CacheCreationInputTokens), totalInput).
		Add(p.CostForOutput(int(u.OutputTokens), totalInput))
}
