package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ryosukesatoh/rss-summarizer/internal/store"
)

// StdoutPublisher prints each saved article to a writer, stdout by default.
type StdoutPublisher struct {
	out io.Writer
}

func NewStdoutPublisher(out io.Writer) *StdoutPublisher {
	if out == nil {
		out = os.Stdout
	}
	return &StdoutPublisher{out: out}
}

func (p *StdoutPublisher) Name() string { return "stdout" }

func (p *StdoutPublisher) Publish(_ context.Context, articles []store.Article) error {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 72) + "\n")
	fmt.Fprintf(&b, "Saved %d article(s)\n", len(articles))
	b.WriteString(strings.Repeat("=", 72) + "\n")

	for i, a := range articles {
		b.WriteString(strings.Repeat("-", 72) + "\n")
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "   Feed: %s\n", a.FeedName)
		fmt.Fprintf(&b, "   Author: %s\n", a.Author)
		fmt.Fprintf(&b, "   Date: %s\n", a.Date)
		fmt.Fprintf(&b, "   URL: %s\n", a.URL)
		if a.Tag != "" {
			fmt.Fprintf(&b, "   Tag: %s\n", a.Tag)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "   %s\n\n", a.Summary)
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}
