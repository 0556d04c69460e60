package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/rss-summarizer/internal/api"
	"github.com/ryosukesatoh/rss-summarizer/internal/logger"
	"github.com/ryosukesatoh/rss-summarizer/internal/runner"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and process feeds on a schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a)
		},
	}
}

// serve runs the API and the scheduler until ctx is cancelled or the
// server fails.
func serve(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log := a.log

	if err := a.seed(); err != nil {
		return err
	}

	handler := api.NewHandler(ctx, api.HandlerDeps{
		Feeds:      a.feeds,
		Articles:   a.articles,
		Pipeline:   a.runner,
		Extractor:  a.extractor,
		Summarizer: a.summarizer,
		Gatherer:   a.registry,
		Logger:     log,
	})
	srv := api.NewServer(a.cfg.Server, log, a.metrics, handler.RegisterRoutes)

	if a.cfg.RunOnStart {
		log.Info("Running initial feed processing")
		if err := a.runner.Start(ctx); err != nil {
			log.Warn("Initial run not started", logger.Error(err))
		}
	}

	c := cron.New()
	_, err := c.AddFunc(a.cfg.Schedule, func() {
		log.Info("Cron triggered, processing feeds")
		if _, err := a.runner.Run(ctx); err != nil {
			if errors.Is(err, runner.ErrRunInProgress) {
				log.Info("Skipping scheduled run; processing already in progress")
				return
			}
			log.Error("Scheduled run failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %q: %w", a.cfg.Schedule, err)
	}
	c.Start()
	log.Info("Scheduled feed processing",
		logger.String("schedule", a.cfg.Schedule),
		logger.Bool("run_on_start", a.cfg.RunOnStart),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case serveErr = <-errCh:
	}

	cancel()
	cronDone := c.Stop()
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}
	<-cronDone.Done()
	a.runner.Wait()

	log.Info("Shutdown complete")
	return serveErr
}
