package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultUserAgent = "rss-summarizer/1.0"

// RSSFetcher downloads feeds over HTTP and parses them with gofeed.
type RSSFetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewRSSFetcher(timeout time.Duration, userAgent string) *RSSFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &RSSFetcher{
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		userAgent: userAgent,
	}
}

func (f *RSSFetcher) Fetch(ctx context.Context, url string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetcher: unexpected status %d", resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w: %v", ErrMalformedFeed, err)
	}

	return convertFeed(parsed), nil
}

// Validate checks that url serves a parseable feed.
func (f *RSSFetcher) Validate(ctx context.Context, url string) error {
	_, err := f.Fetch(ctx, url)
	return err
}

func convertFeed(parsed *gofeed.Feed) *Feed {
	feed := &Feed{
		Title:   strings.TrimSpace(parsed.Title),
		Entries: make([]Entry, 0, len(parsed.Items)),
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Entries = append(feed.Entries, Entry{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Author:      authorName(item),
			Updated:     item.Updated,
			Published:   item.Published,
			UpdatedAt:   item.UpdatedParsed,
			PublishedAt: item.PublishedParsed,
		})
	}
	return feed
}

func authorName(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}
