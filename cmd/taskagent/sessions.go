package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	agent "github.com/armatrix/taskagent"
	"github.com/armatrix/taskagent/internal/config"
	"github.com/armatrix/taskagent/session"
)

func newSessionsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			lister, closeFn, err := openLister(s)
			if err != nil {
				return err
			}
			defer closeFn()
			if lister == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Sessions are kept in memory; configure a file or sqlite store to list them.")
				return nil
			}
			sessions, err := lister.List(cmd.Context())
			if err != nil {
				return err
			}
			return printSessions(cmd, sessions)
		},
	}
	return cmd
}

// openLister opens the configured persistent store. A memory store yields nil.
func openLister(s *config.Settings) (agent.SessionLister, func() error, error) {
	nop := func() error { return nil }
	switch s.Session.Store {
	case config.StoreFile:
		fs, err := session.NewFileStore(s.Session.Dir)
		if err != nil {
			return nil, nop, err
		}
		return fs, nop, nil
	case config.StoreSQLite:
		db, err := session.OpenSQLite(s.Session.DB)
		if err != nil {
			return nil, nop, err
		}
		return db, db.Close, nil
	default:
		return nil, nop, nil
	}
}

func printSessions(cmd *cobra.Command, sessions []*agent.Session) error {
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPDATED\tMESSAGES")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", s.ID, s.UpdatedAt.Local().Format(time.DateTime), len(s.Messages))
	}
	return tw.Flush()
}
