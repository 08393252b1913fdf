package agent

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/armatrix/taskagent/llm"
)

// AgentOption configures an Agent via the functional options pattern.
type AgentOption func(*agentOptions)

// agentOptions holds all configurable fields set via AgentOption functions.
type agentOptions struct {
	model            llm.Model
	modelName        string
	systemPrompt     string
	maxOutputTokens  int
	maxRounds        int
	roundLimitNotice string
	actor            string
	reminders        bool
	parallelTools    bool
	compactDisabled  bool
	maxBudget        decimal.Decimal
	streamBufferSize int
	workDir          string

	tools      *ToolRegistry
	toolFilter ToolFilter

	logger       *slog.Logger
	recorder     Recorder
	sessionStore SessionStore
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (o *agentOptions) applyDefaults() {
	if o.maxOutputTokens == 0 {
		o.maxOutputTokens = DefaultMaxOutputTokens
	}
	if o.actor == "" {
		o.actor = DefaultActor
	}
	if o.streamBufferSize == 0 {
		o.streamBufferSize = DefaultStreamBufferSize
	}
	if o.tools == nil {
		o.tools = NewToolRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
}

// resolveOptions applies all option functions and fills defaults.
func resolveOptions(opts []AgentOption) agentOptions {
	o := agentOptions{maxRounds: DefaultMaxRounds}
	for _, fn := range opts {
		fn(&o)
	}
	o.applyDefaults()
	return o
}

// --- Model ---

// WithModel sets the model service the agent queries.
func WithModel(model llm.Model) AgentOption {
	return func(o *agentOptions) { o.model = model }
}

// WithModelName overrides the model name reported in events and used for
// pricing. By default the model's own Name is used.
func WithModelName(name string) AgentOption {
	return func(o *agentOptions) { o.modelName = name }
}

// WithSystemPrompt sets the base system prompt.
func WithSystemPrompt(prompt string) AgentOption {
	return func(o *agentOptions) { o.systemPrompt = prompt }
}

// WithMaxOutputTokens sets the maximum output tokens per response.
func WithMaxOutputTokens(tokens int) AgentOption {
	return func(o *agentOptions) { o.maxOutputTokens = tokens }
}

// --- Loop ---

// WithMaxRounds sets the round ceiling (0 = unlimited).
func WithMaxRounds(n int) AgentOption {
	return func(o *agentOptions) { o.maxRounds = n }
}

// WithRoundLimitNotice sets the text appended to the final answer when the
// round ceiling is reached.
func WithRoundLimitNotice(notice string) AgentOption {
	return func(o *agentOptions) { o.roundLimitNotice = notice }
}

// WithActor names the agent in logs, events and transcripts.
func WithActor(actor string) AgentOption {
	return func(o *agentOptions) { o.actor = actor }
}

// WithReminders enables todo reminders in the system prompt.
func WithReminders(enabled bool) AgentOption {
	return func(o *agentOptions) { o.reminders = enabled }
}

// WithParallelTools lets consecutive non-exclusive tool calls of one batch run
// concurrently. Results keep request order either way.
func WithParallelTools(enabled bool) AgentOption {
	return func(o *agentOptions) { o.parallelTools = enabled }
}

// WithCompaction toggles micro-compaction of old tool results. It is on by default.
func WithCompaction(enabled bool) AgentOption {
	return func(o *agentOptions) { o.compactDisabled = !enabled }
}

// WithWorkDir sets the workspace tools resolve paths against.
func WithWorkDir(dir string) AgentOption {
	return func(o *agentOptions) { o.workDir = dir }
}

// --- Budget ---

// WithBudget sets the maximum budget in USD for a single run. Spend is not
// carried over between runs or Client queries. Zero means unlimited.
func WithBudget(maxUSD decimal.Decimal) AgentOption {
	return func(o *agentOptions) { o.maxBudget = maxUSD }
}

// --- Tools ---

// WithTools sets the registry the agent draws its tools from.
func WithTools(registry *ToolRegistry) AgentOption {
	return func(o *agentOptions) { o.tools = registry }
}

// WithToolFilter restricts the agent to a subset of the registry.
func WithToolFilter(filter ToolFilter) AgentOption {
	return func(o *agentOptions) { o.toolFilter = filter }
}

// --- Infrastructure ---

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(o *agentOptions) { o.logger = logger }
}

// WithRecorder attaches a transcript recorder.
func WithRecorder(r Recorder) AgentOption {
	return func(o *agentOptions) { o.recorder = r }
}

// WithSessionStore persists the session after every run.
func WithSessionStore(store SessionStore) AgentOption {
	return func(o *agentOptions) { o.sessionStore = store }
}

// WithStreamBufferSize sets the event channel buffer size.
func WithStreamBufferSize(n int) AgentOption {
	return func(o *agentOptions) { o.streamBufferSize = n }
}
