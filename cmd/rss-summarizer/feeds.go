package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/rss-summarizer/internal/store"
)

func newFeedsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage the feed registry",
	}
	cmd.AddCommand(newFeedsListCommand(opts))
	cmd.AddCommand(newFeedsAddCommand(opts))
	cmd.AddCommand(newFeedsRemoveCommand(opts))
	return cmd
}

func newFeedsListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			feeds, err := a.feeds.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list feeds: %w", err)
			}
			if len(feeds) == 0 {
				fmt.Fprintln(opts.out, "No feeds configured")
				return nil
			}
			renderFeeds(opts, feeds)
			return nil
		},
	}
}

func newFeedsAddCommand(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add URL",
		Short: "Validate and register a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			feed, err := a.feeds.Add(cmd.Context(), args[0], name)
			if errors.Is(err, store.ErrDuplicateFeed) {
				return errors.New("feed already exists")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Feed '%s' added successfully\n", feed.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (defaults to the URL)")
	return cmd
}

func newFeedsRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a feed by its listing id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid feed id %q", args[0])
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			feed, err := a.feeds.Remove(cmd.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				return errors.New("feed not found")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Feed '%s' removed successfully\n", feed.Name)
			return nil
		},
	}
}

func renderFeeds(opts *rootOptions, feeds []store.Feed) {
	t := table.NewWriter()
	t.SetOutputMirror(opts.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "URL"})
	for _, f := range feeds {
		t.AppendRow(table.Row{f.ID, f.Name, f.URL})
	}
	t.Render()
}
