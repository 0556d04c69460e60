package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/ryosukesatoh/rss-summarizer/internal/store"
)

// FeedResult describes what a run did with one feed.
type FeedResult struct {
	Name      string
	Title     string
	Processed int
	Err       error
}

// Result summarizes a pipeline run.
type Result struct {
	Feeds      []FeedResult
	Articles   []store.Article
	Saved      int
	NoFeeds    bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Lines renders the run as a human-readable report.
func (r *Result) Lines() []string {
	if r.NoFeeds {
		return []string{"No RSS feeds configured"}
	}

	lines := make([]string, 0, len(r.Feeds)+1)
	for _, f := range r.Feeds {
		if f.Err != nil {
			lines = append(lines, fmt.Sprintf("Error processing %s: %v", f.Name, f.Err))
			continue
		}
		lines = append(lines, fmt.Sprintf("Processed %d articles from %s", f.Processed, f.Title))
	}
	if r.Saved > 0 {
		lines = append(lines, fmt.Sprintf("Saved %d articles", r.Saved))
	}
	return lines
}

func (r *Result) String() string {
	return strings.Join(r.Lines(), "\n")
}
