// Package sessions holds operator commands for the session store.
package sessions

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HSousa1987/Lavandaria-sub001/cmd/cmdutil"
	"github.com/HSousa1987/Lavandaria-sub001/internal/config"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
)

// SessionsCmd is the parent for session store commands.
var SessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session store maintenance",
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired sessions",
	Long: `Deletes every expired session from the configured store. The server
sweeps on its own every session.sweep_interval; this is for cron-driven
deployments that disable it. Redis expires keys natively, so a sweep there
removes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Session.Backend == config.SessionBackendMemory {
			return fmt.Errorf("the memory session backend lives inside the server process; nothing to sweep")
		}

		ctx := cmd.Context()
		logger := cmdutil.NewLogger(cfg)
		db, err := cmdutil.OpenDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		backend, closeBackend, err := cmdutil.NewSessionBackend(ctx, cfg, db, logger, nil)
		if err != nil {
			return err
		}
		defer closeBackend()

		n, err := cmdutil.NewSessionManager(cfg, backend, logger).Sweep(ctx)
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired sessions\n", n)
		return nil
	},
}

func init() {
	SessionsCmd.AddCommand(sweepCmd)
}
