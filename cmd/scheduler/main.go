package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/meeting-scheduler/internal/config"
	"github.com/example/meeting-scheduler/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries state resolved by the root command before any subcommand runs.
type cli struct {
	logOutput io.Writer
	cfg       config.Config
	logger    *slog.Logger
}

func newRootCommand(logOutput io.Writer) *cobra.Command {
	c := &cli{logOutput: logOutput}

	root := &cobra.Command{
		Use:          "scheduler",
		Short:        "Meeting scheduler service",
		Long:         "Scheduler publishes an organizer's bookable slots and accepts bookings against them.",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.init()
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true

	root.AddCommand(
		c.serveCommand(),
		c.organizerCommand(),
		c.slotsCommand(),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logging.New(c.logOutput, level, logging.Format(cfg.LogFormat))
	return nil
}

// withApp runs fn against a freshly opened app and closes it afterwards.
func (c *cli) withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			c.logger.ErrorContext(ctx, "failed to release resources", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()
	return fn(logging.ContextWithLogger(ctx, c.logger), a)
}
