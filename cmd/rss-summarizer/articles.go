package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/rss-summarizer/internal/store"
)

const summaryColumnWidth = 60

func newArticlesCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Show the most recent summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must be non-negative, got %d", limit)
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			articles, err := a.articles.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to load articles: %w", err)
			}
			if len(articles) == 0 {
				fmt.Fprintln(opts.out, "No articles available")
				return nil
			}
			renderArticles(opts, articles)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "number of articles to show")
	return cmd
}

func renderArticles(opts *rootOptions, articles []store.Article) {
	t := table.NewWriter()
	t.SetOutputMirror(opts.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Feed", "Tag", "Summary"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Summary", WidthMax: summaryColumnWidth},
	})
	for _, art := range articles {
		t.AppendRow(table.Row{art.ID, art.Title, art.FeedName, art.Tag, art.Summary})
	}
	t.Render()
}
