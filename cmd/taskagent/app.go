package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	agent "github.com/armatrix/taskagent"
	"github.com/armatrix/taskagent/internal/config"
	"github.com/armatrix/taskagent/internal/logging"
	"github.com/armatrix/taskagent/internal/trace"
	"github.com/armatrix/taskagent/llm"
	"github.com/armatrix/taskagent/llm/anthropic"
	"github.com/armatrix/taskagent/llm/openai"
	"github.com/armatrix/taskagent/session"
	"github.com/armatrix/taskagent/subagent"
	"github.com/armatrix/taskagent/tools"
)

// Provider default models.
const (
	defaultAnthropicModel = "claude-sonnet-4-5"
	defaultOpenAIModel    = "gpt-4o"
)

// appDeps overrides pieces of the app, mainly for tests.
type appDeps struct {
	model    llm.Model
	out      io.Writer
	logger   *slog.Logger
	progress subagent.ProgressSink
}

// app wires settings into a ready-to-use main agent.
type app struct {
	settings   *config.Settings
	workspace  string
	logger     *slog.Logger
	out        io.Writer
	theme      theme
	client     *agent.Client
	dispatcher *subagent.Dispatcher
	todos      *tools.TodoList
	store      agent.SessionStore
	closers    []func() error
}

func newApp(ctx context.Context, s *config.Settings, deps appDeps) (_ *app, err error) {
	a := &app{settings: s, out: deps.out}
	if a.out == nil {
		a.out = os.Stdout
	}
	a.theme = newTheme(a.out)
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.logger = deps.logger
	if a.logger == nil {
		a.logger = logging.Init(s.LogLevel)
	}

	a.workspace, err = filepath.Abs(s.Workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	if info, statErr := os.Stat(a.workspace); statErr != nil || !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", a.workspace)
	}

	tcfg := trace.Config{Endpoint: s.Trace.Endpoint, URLPath: s.Trace.URLPath, APIKey: s.Trace.APIKey}
	if tcfg.Enabled() {
		shutdown, terr := trace.Init(ctx, tcfg)
		if terr != nil {
			return nil, fmt.Errorf("init tracing: %w", terr)
		}
		a.closers = append(a.closers, func() error { return shutdown(context.Background()) })
	}

	model := deps.model
	if model == nil {
		var httpClient *http.Client
		if tcfg.Enabled() {
			httpClient = trace.HTTPClient()
		}
		model, err = newModel(s, httpClient)
		if err != nil {
			return nil, err
		}
	}

	store, recorder, err := a.openPersistence(model.Name())
	if err != nil {
		return nil, err
	}
	a.store = store

	skills, err := config.LoadSkills(a.skillDirs()...)
	if err != nil {
		return nil, err
	}

	registry := agent.NewToolRegistry()
	a.todos = tools.RegisterAll(registry)

	progress := deps.progress
	if progress == nil {
		progress = subagent.NewTerminalProgress(a.out)
	}
	dopts := []subagent.Option{
		subagent.WithMaxRounds(s.MaxSubagentRounds),
		subagent.WithWorkDir(a.workspace),
		subagent.WithProgress(progress),
		subagent.WithLogger(a.logger),
		subagent.WithAgentOptions(
			agent.WithMaxOutputTokens(s.MaxTokens),
			agent.WithParallelTools(s.ParallelTools),
		),
	}
	if recorder != nil {
		dopts = append(dopts, subagent.WithRecorder(recorder))
	}
	a.dispatcher = subagent.NewDispatcher(model, registry, dopts...)
	subagent.RegisterTaskTool(registry, a.dispatcher)

	opts := []agent.AgentOption{
		agent.WithModel(model),
		agent.WithSystemPrompt(mainSystemPrompt(a.workspace, skills)),
		agent.WithTools(registry),
		agent.WithMaxRounds(s.MaxMainRounds),
		agent.WithRoundLimitNotice(agent.RoundLimitNotice(s.MaxMainRounds)),
		agent.WithMaxOutputTokens(s.MaxTokens),
		agent.WithReminders(true),
		agent.WithParallelTools(s.ParallelTools),
		agent.WithWorkDir(a.workspace),
		agent.WithLogger(a.logger),
	}
	if s.MaxBudgetUSD > 0 {
		opts = append(opts, agent.WithBudget(decimal.NewFromFloat(s.MaxBudgetUSD)))
	}
	if recorder != nil {
		opts = append(opts, agent.WithRecorder(recorder))
	}
	if store != nil {
		opts = append(opts, agent.WithSessionStore(store))
	}
	a.client, err = agent.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create main agent: %w", err)
	}

	a.logger.Debug("app ready", "provider", s.Provider, "model", model.Name(),
		"workspace", a.workspace, "skills", len(skills), "session_store", s.Session.Store)
	return a, nil
}

// newModel builds the provider client selected by the settings.
func newModel(s *config.Settings, httpClient *http.Client) (llm.Model, error) {
	switch s.Provider {
	case config.ProviderAnthropic:
		name := s.Model
		if name == "" {
			name = defaultAnthropicModel
		}
		return anthropic.New(anthropic.Config{
			Model: name, APIKey: s.APIKey, BaseURL: s.BaseURL, HTTPClient: httpClient,
		}), nil
	case config.ProviderOpenAI:
		name := s.Model
		if name == "" {
			name = defaultOpenAIModel
		}
		return openai.New(openai.Config{
			Model: name, APIKey: s.APIKey, BaseURL: s.BaseURL, HTTPClient: httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", s.Provider)
	}
}

// openPersistence opens the configured session store and transcript
// recorder. The SQLite store doubles as recorder unless a JSONL transcript
// directory is set.
func (a *app) openPersistence(modelName string) (agent.SessionStore, agent.Recorder, error) {
	var (
		store    agent.SessionStore
		recorder agent.Recorder
	)
	switch a.settings.Session.Store {
	case config.StoreFile:
		fs, err := session.NewFileStore(a.settings.Session.Dir)
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case config.StoreSQLite:
		db, err := session.OpenSQLite(a.settings.Session.DB)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		store, recorder = db, db
	default:
		store = session.NewMemoryStore()
	}

	if dir := a.settings.TranscriptDir; dir != "" {
		jsonl, err := session.NewJSONLRecorder(dir, modelName)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, jsonl.Close)
		recorder = jsonl
	}
	return store, recorder, nil
}

// skillDirs resolves relative skill directories against the workspace.
func (a *app) skillDirs() []string {
	dirs := make([]string, 0, len(a.settings.SkillDirs))
	for _, d := range a.settings.SkillDirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(a.workspace, d)
		}
		dirs = append(dirs, d)
	}
	return dirs
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// mainSystemPrompt builds the system prompt of the main agent.
func mainSystemPrompt(workspace string, skills []config.Skill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a coding agent at %s.\n\n", workspace)
	b.WriteString("Loop: plan -> act with tools -> report.\n\n")
	b.WriteString("You can spawn subagents for complex subtasks with the Task tool:\n")
	b.WriteString(subagent.DescriptionsPrompt())
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Use Task for subtasks that need focused exploration or implementation.\n")
	b.WriteString("- Use todo_write to track multi-step work.\n")
	b.WriteString("- Prefer tools over prose. Act, don't just explain.\n")
	b.WriteString("- After finishing, summarize what changed.")
	if prompt := config.FormatSkillsPrompt(skills); prompt != "" {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(prompt))
	}
	return b.String()
}
