package fetcher

import (
	"context"
	"errors"
	"time"
)

// Feed is a parsed feed document.
type Feed struct {
	Title   string
	Entries []Entry
}

// Entry is one item of a feed document. Optional fields are left at their
// zero value when the document does not carry them.
//
// Fallback order for the entry's age is UpdatedAt, then PublishedAt, then
// absent (treated as "just now" by callers).
type Entry struct {
	Title       string
	Link        string
	Author      string
	Updated     string // feed-native text
	Published   string // feed-native text
	UpdatedAt   *time.Time
	PublishedAt *time.Time
}

// Timestamp returns the time used to compute the entry's age.
func (e Entry) Timestamp() (time.Time, bool) {
	if e.UpdatedAt != nil {
		return *e.UpdatedAt, true
	}
	if e.PublishedAt != nil {
		return *e.PublishedAt, true
	}
	return time.Time{}, false
}

// DateText returns the feed-native date string stored with an article.
func (e Entry) DateText() string {
	if e.Updated != "" {
		return e.Updated
	}
	if e.Published != "" {
		return e.Published
	}
	return "Unknown"
}

// Fetcher retrieves and parses a feed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Feed, error)
}

// ErrMalformedFeed is returned when a document cannot be parsed as RSS, Atom
// or JSON Feed.
var ErrMalformedFeed = errors.New("malformed feed")
