// Command escrow-admin is the operator CLI for the escrow service.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/bootstrap"
)

// commandContext carries what every subcommand needs once the root has run.
type commandContext struct {
	Config config.AppConfig
	Logger *slog.Logger
	Out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Out: os.Stdout}
	if err := newRootCmd(cmdCtx).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(cmdCtx *commandContext) *cobra.Command {
	root := &cobra.Command{
		Use:          "escrow-admin",
		Short:        "Operator tooling for the escrow service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			cmdCtx.Config = cfg
			cmdCtx.Logger = bootstrap.ConfigureLogger(&cfg)
			cmd.SetOut(cmdCtx.Out)
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(cmdCtx),
		newStuckCmd(cmdCtx),
		newLedgerCmd(cmdCtx),
		newReleaseFundsCmd(cmdCtx),
		newDevTokenCmd(cmdCtx),
	)
	return root
}

func newMigrateCmd(cmdCtx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, err := connectDB(cmdCtx)
			if err != nil {
				return err
			}
			defer closeQuietly(cmdCtx.Logger, "database", db)

			if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
				return err
			}
			return writef(cmd.OutOrStdout(), "migrations applied\n")
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "migration timeout")
	return cmd
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
