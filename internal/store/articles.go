package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// TimestampLayout is the fixed-width ISO-8601 layout used for processing
// timestamps, so that lexical and chronological order agree.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Article is a processed feed entry. ID is positional and assigned at read
// time only; UID is the stable internal key.
type Article struct {
	ID        int    `json:"-"`
	UID       string `json:"uid,omitempty"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Date      string `json:"date"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
	Tag       string `json:"tag"`
	FeedName  string `json:"feed_name"`
}

// Retention decides what happens to stored history on each batch write.
type Retention int

const (
	// RetainAll appends each batch to the existing history.
	RetainAll Retention = iota
	// ReplaceEachRun keeps only the most recent batch.
	ReplaceEachRun
)

// ArticleStore persists articles as a single JSON array.
type ArticleStore struct {
	mu        sync.Mutex
	path      string
	retention Retention
}

func NewArticleStore(path string, retention Retention) *ArticleStore {
	return &ArticleStore{path: path, retention: retention}
}

// AppendBatch persists a batch in one document rewrite.
func (s *ArticleStore) AppendBatch(_ context.Context, batch []Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var articles []Article
	if s.retention == RetainAll {
		var err error
		if articles, err = s.load(); err != nil {
			return err
		}
	}

	articles = append(articles, batch...)
	if articles == nil {
		articles = []Article{}
	}
	return writeJSON(s.path, articles)
}

// List returns up to limit articles, newest first. A negative limit returns
// everything.
func (s *ArticleStore) List(_ context.Context, limit int) ([]Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.sorted()
	if err != nil {
		return nil, err
	}
	if limit >= 0 && limit < len(articles) {
		articles = articles[:limit]
	}
	return articles, nil
}

// Summary returns the summary of the article at the given 1-based position
// in the newest-first ordering.
func (s *ArticleStore) Summary(_ context.Context, id int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.sorted()
	if err != nil {
		return "", err
	}
	if id < 1 || id > len(articles) {
		return "", fmt.Errorf("article %d: %w", id, ErrNotFound)
	}
	return articles[id-1].Summary, nil
}

func (s *ArticleStore) load() ([]Article, error) {
	var articles []Article
	if _, err := readJSON(s.path, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (s *ArticleStore) sorted() ([]Article, error) {
	articles, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return newer(articles[i].Timestamp, articles[j].Timestamp)
	})
	for i := range articles {
		articles[i].ID = i + 1
	}
	return articles, nil
}

// legacyTimestampLayout matches naive timestamps written without an offset.
// They are read as UTC.
const legacyTimestampLayout = "2006-01-02T15:04:05.999999999"

// newer reports whether timestamp a sorts before b in newest-first order.
// Unparseable timestamps count as the zero time and sort last. Equal
// instants fall back to descending string order.
func newer(a, b string) bool {
	ta, tb := parseTimestamp(a), parseTimestamp(b)
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a > b
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(legacyTimestampLayout, s, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
