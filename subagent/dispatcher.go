package subagent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	agent "github.com/armatrix/taskagent"
	"github.com/armatrix/taskagent/llm"
)

// DefaultMaxRounds is the round ceiling of a child agent.
const DefaultMaxRounds = 30

// NoTextSummary replaces an empty child answer.
const NoTextSummary = "(subagent returned no text)"

// TaskResult is what a child run hands back to the parent.
type TaskResult struct {
	ID        string
	Type      AgentType
	Summary   string
	ToolCalls int
	Rounds    int
	Elapsed   time.Duration
	Subtype   string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxRounds sets the child round ceiling.
func WithMaxRounds(n int) Option {
	return func(d *Dispatcher) { d.maxRounds = n }
}

// WithWorkDir sets the workspace children operate in. Without it the
// working directory of the calling context is used.
func WithWorkDir(dir string) Option {
	return func(d *Dispatcher) { d.workDir = dir }
}

// WithProgress sets the sink that reports child activity.
func WithProgress(p ProgressSink) Option {
	return func(d *Dispatcher) { d.progress = p }
}

// WithLogger sets the logger passed to children.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithRecorder mirrors child transcripts to r.
func WithRecorder(r agent.Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithModelName overrides the model name children report.
func WithModelName(name string) Option {
	return func(d *Dispatcher) { d.modelName = name }
}

// WithAgentOptions appends options applied to every child agent after the
// profile defaults.
func WithAgentOptions(opts ...agent.AgentOption) Option {
	return func(d *Dispatcher) { d.extra = append(d.extra, opts...) }
}

// Dispatcher builds and runs child agents. It is safe for concurrent use;
// each Dispatch call gets its own child and session.
type Dispatcher struct {
	model     llm.Model
	modelName string
	registry  *agent.ToolRegistry
	maxRounds int
	workDir   string
	progress  ProgressSink
	logger    *slog.Logger
	recorder  agent.Recorder
	extra     []agent.AgentOption

	mu     sync.Mutex
	active map[string]TaskInfo
}

// NewDispatcher creates a Dispatcher whose children query model and draw
// their tools from registry.
func NewDispatcher(model llm.Model, registry *agent.ToolRegistry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		model:     model,
		registry:  registry,
		maxRounds: DefaultMaxRounds,
		progress:  NopProgress{},
		logger:    slog.Default(),
		active:    make(map[string]TaskInfo),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Active returns the tasks currently running.
func (d *Dispatcher) Active() []TaskInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]TaskInfo, 0, len(d.active))
	for _, info := range d.active {
		out = append(out, info)
	}
	return out
}

// Dispatch runs one child of type t on prompt and waits for its summary.
// Failures inside the child are reported in the summary; the returned error
// covers invalid requests only.
func (d *Dispatcher) Dispatch(ctx context.Context, t AgentType, description, prompt string) (*TaskResult, error) {
	profile, ok := Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownAgentType, t)
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrMissingDescription
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = description
	}

	workDir := d.workDir
	if workDir == "" {
		workDir = agent.ContextWorkDir(ctx)
	}

	info := TaskInfo{
		ID:          agent.GenerateID(agent.PrefixTask),
		Type:        t,
		Description: description,
	}
	start := time.Now()
	d.track(info)
	defer d.untrack(info.ID)
	d.progress.Start(info)

	logger := d.logger.With("task", info.ID, "agent_type", string(t))
	finish := func(summary, subtype string, rounds int) *TaskResult {
		info.Elapsed = time.Since(start)
		info.Subtype = subtype
		d.progress.Done(info)
		logger.Info("subagent finished", "subtype", subtype, "tool_calls", info.ToolCalls,
			"rounds", rounds, "elapsed", info.Elapsed)
		return &TaskResult{
			ID:        info.ID,
			Type:      t,
			Summary:   summary,
			ToolCalls: info.ToolCalls,
			Rounds:    rounds,
			Elapsed:   info.Elapsed,
			Subtype:   subtype,
		}
	}

	child, err := agent.NewAgent(d.childOptions(profile, workDir, description, logger)...)
	if err != nil {
		return finish("Subagent failed: "+err.Error(), agent.SubtypeExecutionError, 0), nil
	}

	logger.Debug("subagent started", "tools", child.Tools().Names())
	stream := child.Run(ctx, prompt)
	var result *agent.ResultEvent
	for stream.Next() {
		switch e := stream.Current().(type) {
		case *agent.ToolResultEvent:
			info.ToolCalls++
			info.Elapsed = time.Since(start)
			d.progress.Update(info)
		case *agent.ResultEvent:
			result = e
		}
	}

	if result == nil {
		return finish("Subagent failed: no result", agent.SubtypeExecutionError, 0), nil
	}
	return finish(summarize(result), result.Subtype, result.NumRounds), nil
}

func (d *Dispatcher) childOptions(p Profile, workDir, description string, logger *slog.Logger) []agent.AgentOption {
	opts := []agent.AgentOption{
		agent.WithModel(d.model),
		agent.WithSystemPrompt(p.SystemPrompt(workDir)),
		agent.WithTools(d.registry),
		agent.WithToolFilter(p.Tools),
		agent.WithMaxRounds(d.maxRounds),
		agent.WithRoundLimitNotice(fmt.Sprintf("Subagent stopped after reaching max rounds (%d). Last task: %s",
			d.maxRounds, description)),
		agent.WithActor(string(p.Type)),
		agent.WithReminders(false),
		agent.WithLogger(logger),
	}
	if d.modelName != "" {
		opts = append(opts, agent.WithModelName(d.modelName))
	}
	if workDir != "" {
		opts = append(opts, agent.WithWorkDir(workDir))
	}
	if d.recorder != nil {
		opts = append(opts, agent.WithRecorder(d.recorder))
	}
	return append(opts, d.extra...)
}

// summarize turns a child result into the text returned to the parent.
func summarize(r *agent.ResultEvent) string {
	switch r.Subtype {
	case agent.SubtypeSuccess, agent.SubtypeMaxRounds:
		if strings.TrimSpace(r.Result) == "" {
			return NoTextSummary
		}
		return r.Result
	default:
		reason := strings.Join(r.Errors, "; ")
		if reason == "" {
			reason = r.Subtype
		}
		return "Subagent failed: " + reason
	}
}

func (d *Dispatcher) track(info TaskInfo) {
	d.mu.Lock()
	d.active[info.ID] = info
	d.mu.Unlock()
}

func (d *Dispatcher) untrack(id string) {
	d.mu.Lock()
	delete(d.active, id)
	d.mu.Unlock()
}
