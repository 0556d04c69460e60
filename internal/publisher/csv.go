package publisher

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ryosukesatoh/rss-summarizer/internal/store"
)

// CSVHeader is the column order of the export file.
var CSVHeader = []string{"title", "url", "date", "author", "timestamp", "summary", "feed_name", "tag"}

// CSVPublisher appends every batch to a CSV file. The header is written
// only when the file is created.
type CSVPublisher struct {
	path string
}

func NewCSVPublisher(path string) *CSVPublisher {
	return &CSVPublisher{path: path}
}

func (p *CSVPublisher) Name() string { return "csv" }

func (p *CSVPublisher) Publish(_ context.Context, articles []store.Article) error {
	if len(articles) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("csv: create directory: %w", err)
	}

	_, statErr := os.Stat(p.path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csv: open %s: %w", p.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(CSVHeader); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
	}
	for _, a := range articles {
		row := []string{a.Title, a.URL, a.Date, a.Author, a.Timestamp, a.Summary, a.FeedName, a.Tag}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}
