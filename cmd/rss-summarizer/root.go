package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
	out        io.Writer
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	return newRootCommand(os.Stdout).ExecuteContext(context.Background())
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	cmd := &cobra.Command{
		Use:           "rss-summarizer",
		Short:         "Fetch RSS feeds, summarize new articles with an LLM and serve them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newFeedsCommand(opts))
	cmd.AddCommand(newArticlesCommand(opts))

	return cmd
}
