// Package engine implements the conversation loop shared by the main agent and
// delegated children: query the model, execute requested tools, append the
// results, and stop on a final answer or when the round ceiling is reached.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/armatrix/taskagent/internal/trace"
	"github.com/armatrix/taskagent/llm"
)

// Result subtypes reported through ResultInfo.
const (
	SubtypeSuccess        = "success"
	SubtypeMaxRounds      = "error_max_rounds"
	SubtypeMaxBudget      = "error_max_budget_usd"
	SubtypeExecutionError = "error_during_execution"
)

// MaxToolResultChars caps the content of a single tool result, counted in
// characters.
const MaxToolResultChars = 50_000

// ToolExecutor runs tools for one loop. Execute never fails: unknown tools,
// bad arguments and runtime faults come back as error content.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (content string, isError bool)
	Specs() []llm.ToolSpec
	// Exclusive reports whether the tool must run alone, never alongside
	// other calls of the same batch.
	Exclusive(name string) bool
}

// EventSink receives events from the loop. The loop calls these methods instead
// of importing root package event types, breaking the import cycle.
type EventSink interface {
	OnSystem(sessionID, actor, model string)
	OnAssistant(msg llm.Message, round int)
	OnToolResult(info ToolResultInfo)
	OnResult(info ResultInfo)
}

// BudgetChecker tracks and enforces spend limits. Nil means no budget.
type BudgetChecker interface {
	RecordUsage(model string, usage llm.Usage)
	Exhausted() bool
}

// ToolResultInfo describes one executed tool call.
type ToolResultInfo struct {
	Round    int
	Call     llm.ToolCall
	Content  string
	IsError  bool
	Duration time.Duration
}

// ResultInfo contains the data for a result event.
type ResultInfo struct {
	Subtype      string
	SessionID    string
	Actor        string
	IsError      bool
	Result       string
	NumRounds    int
	NumToolCalls int
	DurationMs   int64
	Usage        llm.Usage
	Errors       []string
}

// LoopConfig holds everything the loop needs to execute.
type LoopConfig struct {
	Model     llm.Model
	Tools     ToolExecutor
	MaxTokens int

	// MaxRounds is the round ceiling; 0 means unlimited.
	MaxRounds int

	// RoundLimitNotice is appended to the final text when MaxRounds is hit.
	RoundLimitNotice string

	// Messages is the history owned by this loop. The loop appends to it.
	Messages *[]llm.Message

	SystemPrompt string

	// Reminders enables todo reminders; ReminderTool names the todo tool.
	Reminders    bool
	ReminderTool string

	// Parallel lets consecutive non-exclusive calls of a batch run concurrently.
	Parallel bool

	// Compact enables micro-compaction of old tool results. Nil disables it.
	Compact *CompactConfig

	Budget BudgetChecker

	SessionID string
	Actor     string
	Sink      EventSink
	Logger    *slog.Logger
}

// RunLoop is the core execution loop. It runs in the calling goroutine and
// calls Sink methods to emit events. The caller is responsible for channel
// management.
func RunLoop(ctx context.Context, cfg LoopConfig) {
	startTime := time.Now()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("actor", cfg.Actor, "session", cfg.SessionID)

	var usage llm.Usage
	rounds, toolCalls := 0, 0
	lastText := ""

	finish := func(subtype, text string, errs ...string) {
		info := ResultInfo{
			Subtype:      subtype,
			SessionID:    cfg.SessionID,
			Actor:        cfg.Actor,
			IsError:      subtype != SubtypeSuccess,
			Result:       text,
			NumRounds:    rounds,
			NumToolCalls: toolCalls,
			DurationMs:   time.Since(startTime).Milliseconds(),
			Usage:        usage,
			Errors:       errs,
		}
		logger.Debug("loop finished", "subtype", subtype, "rounds", rounds, "tool_calls", toolCalls)
		cfg.Sink.OnResult(info)
	}

	cfg.Sink.OnSystem(cfg.SessionID, cfg.Actor, cfg.Model.Name())
	specs := cfg.Tools.Specs()

	for {
		if err := ctx.Err(); err != nil {
			finish(SubtypeExecutionError, lastText, err.Error())
			return
		}

		if cfg.MaxRounds > 0 && rounds >= cfg.MaxRounds {
			finish(SubtypeMaxRounds, roundLimitText(lastText, cfg.RoundLimitNotice),
				fmt.Sprintf("max rounds (%d) reached", cfg.MaxRounds))
			return
		}

		if cfg.Compact != nil {
			if n := MicroCompact(*cfg.Messages, *cfg.Compact); n > 0 {
				logger.Debug("micro-compacted tool results", "cleared", n)
			}
		}

		system := cfg.SystemPrompt
		if cfg.Reminders {
			reminder := Reminder(rounds, len(*cfg.Messages) <= 1, TurnsSinceTool(*cfg.Messages, cfg.ReminderTool))
			if reminder != "" {
				system = joinNonEmpty(system, reminder)
			}
		}

		roundCtx, span := trace.Tracer().Start(ctx, "engine.round",
			oteltrace.WithAttributes(
				attribute.String("agent.actor", cfg.Actor),
				attribute.Int("agent.round", rounds+1),
				attribute.Int("agent.history_len", len(*cfg.Messages)),
			),
		)

		resp, err := cfg.Model.Query(roundCtx, llm.Request{
			System:    system,
			Messages:  *cfg.Messages,
			Tools:     specs,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			logger.Warn("model query failed", "round", rounds+1, "error", err)
			finish(SubtypeExecutionError, lastText, fmt.Sprintf("model error: %s", err.Error()))
			return
		}

		rounds++
		usage = usage.Add(resp.Usage)
		if cfg.Budget != nil {
			cfg.Budget.RecordUsage(cfg.Model.Name(), resp.Usage)
		}

		msg := resp.Message()
		*cfg.Messages = append(*cfg.Messages, msg)
		cfg.Sink.OnAssistant(msg, rounds)
		if strings.TrimSpace(resp.Text) != "" {
			lastText = resp.Text
		}

		logger.Debug("model responded", "round", rounds, "tool_calls", len(msg.ToolCalls),
			"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)

		if !msg.HasToolCalls() {
			span.End()
			finish(SubtypeSuccess, resp.Text)
			return
		}

		results := executeBatch(roundCtx, cfg, logger, rounds, msg.ToolCalls)
		*cfg.Messages = append(*cfg.Messages, results...)
		toolCalls += len(results)
		span.SetAttributes(attribute.Int("agent.tool_calls", len(results)))
		span.End()

		if cfg.Budget != nil && cfg.Budget.Exhausted() {
			finish(SubtypeMaxBudget, lastText, "budget exhausted")
			return
		}
	}
}

// executeBatch runs the calls of one assistant turn and returns their result
// messages in request order.
func executeBatch(ctx context.Context, cfg LoopConfig, logger *slog.Logger, round int, calls []llm.ToolCall) []llm.Message {
	results := make([]llm.Message, len(calls))
	run := func(i int) {
		results[i] = executeCall(ctx, cfg, logger, round, calls[i])
	}

	if !cfg.Parallel {
		for i := range calls {
			run(i)
		}
		return results
	}

	for i := 0; i < len(calls); {
		if cfg.Tools.Exclusive(calls[i].Name) {
			run(i)
			i++
			continue
		}
		j := i
		for j < len(calls) && !cfg.Tools.Exclusive(calls[j].Name) {
			j++
		}
		var g errgroup.Group
		for k := i; k < j; k++ {
			k := k
			g.Go(func() error {
				run(k)
				return nil
			})
		}
		_ = g.Wait()
		i = j
	}
	return results
}

// executeCall runs a single tool call. It never panics and never fails.
func executeCall(ctx context.Context, cfg LoopConfig, logger *slog.Logger, round int, call llm.ToolCall) llm.Message {
	args := RepairArguments(call.Arguments)
	call.Arguments = args

	ctx, span := trace.Tracer().Start(ctx, "tool."+call.Name,
		oteltrace.WithAttributes(
			attribute.String("gen_ai.tool.name", call.Name),
			attribute.String("gen_ai.tool.call.id", call.ID),
		),
	)
	defer span.End()

	start := time.Now()
	content, isError := safeExecute(ctx, cfg.Tools, call.Name, args)
	content = truncateChars(content, MaxToolResultChars)
	elapsed := time.Since(start)

	if isError {
		span.SetStatus(codes.Error, "tool returned error")
	}
	span.SetAttributes(attribute.Int("gen_ai.tool.output_length", len(content)))
	logger.Debug("tool executed", "round", round, "tool", call.Name, "is_error", isError, "elapsed", elapsed)

	cfg.Sink.OnToolResult(ToolResultInfo{
		Round:    round,
		Call:     call,
		Content:  content,
		IsError:  isError,
		Duration: elapsed,
	})
	return llm.ToolResultMessage(call.ID, call.Name, content, isError)
}

func safeExecute(ctx context.Context, tools ToolExecutor, name string, args json.RawMessage) (content string, isError bool) {
	defer func() {
		if r := recover(); r != nil {
			content = ErrorPayload(fmt.Sprintf("Tool '%s' runtime error: %v", name, r))
			isError = true
		}
	}()
	return tools.Execute(ctx, name, args)
}

// ErrorPayload renders msg as the structured {"error": msg} tool result.
func ErrorPayload(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

func roundLimitText(lastText, notice string) string {
	return joinNonEmpty(lastText, notice)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// truncateChars cuts s to at most n characters without splitting a rune.
func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
