package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/armatrix/taskagent/internal/config"
)

type rootFlags struct {
	configPath string
	provider   string
	model      string
	workspace  string
	maxRounds  int
	parallel   bool
	sessionID  string
	logLevel   string
	prompt     string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:           "taskagent",
		Short:         "Coding agent with explore, plan and code subagents",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd, flags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, settings, appDeps{out: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			defer a.close()

			if flags.sessionID != "" {
				if err := a.client.Resume(ctx, flags.sessionID); err != nil {
					return fmt.Errorf("resume session %s: %w", flags.sessionID, err)
				}
			}
			if flags.prompt != "" {
				return a.runOnce(ctx, flags.prompt)
			}
			return a.repl(ctx, cmd.InOrStdin())
		},
	}

	bindFlags(cmd, &flags)
	cmd.AddCommand(newSessionsCmd(&flags))
	return cmd
}

func bindFlags(cmd *cobra.Command, flags *rootFlags) {
	f := cmd.PersistentFlags()
	f.StringVar(&flags.configPath, "config", "", "config file (TOML, or JSON by extension)")
	f.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "model provider: anthropic or openai")
	cmd.Flags().StringVar(&flags.model, "model", "", "model name")
	cmd.Flags().StringVarP(&flags.workspace, "workspace", "w", "", "workspace directory")
	cmd.Flags().IntVar(&flags.maxRounds, "max-rounds", 0, "round ceiling of the main agent")
	cmd.Flags().BoolVar(&flags.parallel, "parallel", false, "run independent tool calls concurrently")
	cmd.Flags().StringVar(&flags.sessionID, "session", "", "resume a stored session")
	cmd.Flags().StringVarP(&flags.prompt, "prompt", "p", "", "run one prompt and exit")
}

// loadSettings merges the config file, environment and changed flags.
func loadSettings(cmd *cobra.Command, flags rootFlags) (*config.Settings, error) {
	s, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("provider") {
		s.Provider = strings.ToLower(flags.provider)
	}
	if changed("model") {
		s.Model = flags.model
	}
	if changed("workspace") {
		s.Workspace = flags.workspace
	}
	if changed("max-rounds") {
		s.MaxMainRounds = flags.maxRounds
	}
	if changed("parallel") {
		s.ParallelTools = flags.parallel
	}
	if changed("log-level") {
		s.LogLevel = flags.logLevel
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// runOnce answers a single prompt. SIGINT cancels it.
func (a *app) runOnce(ctx context.Context, prompt string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	res := a.render(a.client.Query(ctx, prompt))
	if res.IsError {
		return fmt.Errorf("run ended with %s", res.Subtype)
	}
	return nil
}

// repl reads prompts until EOF, "exit" or "q". SIGINT during a query cancels
// that query only.
func (a *app) repl(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(a.out, a.theme.prompt.Sprint(">> "))
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "q":
			return nil
		}

		qctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		a.render(a.client.Query(qctx, line))
		stop()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
