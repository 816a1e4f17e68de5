package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/meeting-scheduler/internal/jobs"
)

// completionTimeout bounds a single completion sweep.
const completionTimeout = time.Minute

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				ln, err := net.Listen("tcp", c.cfg.Addr())
				if err != nil {
					return fmt.Errorf("listen on %s: %w", c.cfg.Addr(), err)
				}
				return serve(ctx, a, ln)
			})
		},
	}
}

// serve runs the HTTP server and the job scheduler until ctx is cancelled or
// either of them fails, then shuts both down within the configured timeout.
func serve(ctx context.Context, a *app, ln net.Listener) error {
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			_ = ln.Close()
			return fmt.Errorf("connect to redis at %s: %w", a.cfg.RedisAddr, err)
		}
	}

	scheduler := jobs.NewScheduler(a.logger)
	sweep := jobs.NewCompletionSweep(a.storage, a.cfg.CompletionSpec, time.Now, a.logger)
	if _, err := scheduler.Register(ctx, sweep, completionTimeout); err != nil {
		_ = ln.Close()
		return err
	}

	server := &http.Server{
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.InfoContext(gctx, "scheduler API listening", "addr", ln.Addr().String(), "lock_backend", a.cfg.LockBackend)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		a.logger.InfoContext(shutdownCtx, "shutting down")
		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		if err := scheduler.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop jobs: %w", err))
		}
		return errors.Join(errs...)
	})

	scheduler.Start()
	return g.Wait()
}
