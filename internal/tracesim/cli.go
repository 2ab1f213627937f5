package tracesim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/drawtree/pkg/logger"
	"github.com/spf13/cobra"
)

// ErrFailedPlayers is returned when any player failed or scored
// inconsistently with the local check.
var ErrFailedPlayers = errors.New("some players failed")

// NewCommand builds the trace-sim root command writing its report to out.
func NewCommand(out io.Writer) *cobra.Command {
	cfg := DefaultConfig()
	var logLevel string

	cmd := &cobra.Command{
		Use:           "trace-sim",
		Short:         "Play tree tracing sessions against a running server.",
		Long:          `trace-sim opens sessions, traces the reference outline with optional jitter and reports the scores the server returns.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return logger.SetLevelString(logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, _, err := Run(ctx, cfg, out)
			if err != nil {
				return err
			}
			if stats.Failed > 0 || stats.Mismatch > 0 {
				return fmt.Errorf("%w: %d failed, %d mismatched", ErrFailedPlayers, stats.Failed, stats.Mismatch)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	f.IntVarP(&cfg.Players, "players", "n", cfg.Players, "Number of sessions to play")
	f.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Number of concurrent players")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.Float64Var(&cfg.Jitter, "jitter", cfg.Jitter, "Max offset added to each traced point")
	f.Float64Var(&cfg.Coverage, "coverage", cfg.Coverage, "Fraction of the outline to trace (0-1]")
	f.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "Coverage threshold the server scores with")
	f.BoolVar(&cfg.Share, "share", cfg.Share, "Share each scored attempt")
	f.DurationVar(&cfg.ShareWait, "share-wait", cfg.ShareWait, "How long to wait for a queued share")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for the jitter source")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log every player")
	f.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	return cmd
}

// Execute runs the command with a background context.
func Execute() error {
	return NewCommand(os.Stdout).ExecuteContext(context.Background())
}
