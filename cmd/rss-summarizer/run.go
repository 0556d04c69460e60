package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/rss-summarizer/internal/publisher"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process all feeds once and print a report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []publisher.Publisher
			if !quiet {
				extra = append(extra, publisher.NewStdoutPublisher(opts.out))
			}

			a, err := newApp(opts, extra...)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runOnce(ctx, a, opts)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the run report, not each article")
	return cmd
}

func runOnce(ctx context.Context, a *app, opts *rootOptions) error {
	if err := a.seed(); err != nil {
		return err
	}

	res, err := a.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	for _, line := range res.Lines() {
		fmt.Fprintln(opts.out, line)
	}
	return nil
}
