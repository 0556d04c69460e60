package store

import (
	"context"
	"fmt"
	"sync"
)

// Feed is a registered subscription. ID is the 1-based position in the
// current listing; it is not stored and shifts when feeds are removed.
type Feed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type feedRecord struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// FeedValidator checks that a URL serves a parseable feed.
type FeedValidator interface {
	Validate(ctx context.Context, url string) error
}

// FeedRegistry persists feeds as a single JSON array, rewritten in full on
// every mutation.
type FeedRegistry struct {
	mu        sync.Mutex
	path      string
	validator FeedValidator
}

func NewFeedRegistry(path string, validator FeedValidator) *FeedRegistry {
	return &FeedRegistry{path: path, validator: validator}
}

func (r *FeedRegistry) load() ([]feedRecord, error) {
	var records []feedRecord
	if _, err := readJSON(r.path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *FeedRegistry) save(records []feedRecord) error {
	if records == nil {
		records = []feedRecord{}
	}
	return writeJSON(r.path, records)
}

// List returns all feeds in storage order.
func (r *FeedRegistry) List(_ context.Context) ([]Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	return toFeeds(records), nil
}

// Add registers url under name (url when name is empty). The feed is
// validated before it is stored.
func (r *FeedRegistry) Add(ctx context.Context, url, name string) (Feed, error) {
	if name == "" {
		name = url
	}

	if err := r.checkUnique(url); err != nil {
		return Feed{}, err
	}

	// Validation hits the network, so it runs without holding the lock.
	if r.validator != nil {
		if err := r.validator.Validate(ctx, url); err != nil {
			return Feed{}, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return Feed{}, err
	}
	if indexOf(records, url) >= 0 {
		return Feed{}, ErrDuplicateFeed
	}

	records = append(records, feedRecord{URL: url, Name: name})
	if err := r.save(records); err != nil {
		return Feed{}, err
	}
	return Feed{ID: len(records), Name: name, URL: url}, nil
}

func (r *FeedRegistry) checkUnique(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	if indexOf(records, url) >= 0 {
		return ErrDuplicateFeed
	}
	return nil
}

// Remove deletes the feed at the given 1-based position.
func (r *FeedRegistry) Remove(_ context.Context, id int) (Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return Feed{}, err
	}
	if id < 1 || id > len(records) {
		return Feed{}, fmt.Errorf("feed %d: %w", id, ErrNotFound)
	}

	removed := records[id-1]
	records = append(records[:id-1], records[id:]...)
	if err := r.save(records); err != nil {
		return Feed{}, err
	}
	return Feed{ID: id, Name: removed.Name, URL: removed.URL}, nil
}

// Seed writes feeds as the initial registry when no document exists yet.
// It reports whether anything was written.
func (r *FeedRegistry) Seed(feeds []Feed) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing []feedRecord
	found, err := readJSON(r.path, &existing)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	records := make([]feedRecord, 0, len(feeds))
	for _, f := range feeds {
		name := f.Name
		if name == "" {
			name = f.URL
		}
		if indexOf(records, f.URL) >= 0 {
			continue
		}
		records = append(records, feedRecord{URL: f.URL, Name: name})
	}
	if err := r.save(records); err != nil {
		return false, err
	}
	return true, nil
}

func indexOf(records []feedRecord, url string) int {
	for i, rec := range records {
		if rec.URL == url {
			return i
		}
	}
	return -1
}

func toFeeds(records []feedRecord) []Feed {
	feeds := make([]Feed, len(records))
	for i, rec := range records {
		feeds[i] = Feed{ID: i + 1, Name: rec.Name, URL: rec.URL}
	}
	return feeds
}
