package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>  Example Tech  </title>
    <link>https://example.com</link>
    <description>Example feed</description>
    <item>
      <title>First Post</title>
      <link>https://example.com/posts/1</link>
      <dc:creator>Alice</dc:creator>
      <pubDate>Mon, 13 Jan 2025 08:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Second Post</title>
      <description>No link, no date</description>
    </item>
  </channel>
</rss>`

const sampleAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Blog</title>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/atom/1"/>
    <author><name>Bob</name></author>
    <published>2025-01-10T09:00:00Z</published>
    <updated>2025-01-12T09:00:00Z</updated>
  </entry>
</feed>`

func serve(body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestFetchParsesRSS(t *testing.T) {
	ts := serve(sampleRSSFeed, http.StatusOK)
	defer ts.Close()

	feed, err := NewRSSFetcher(5*time.Second, "").Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if feed.Title != "Example Tech" {
		t.Errorf("Expected trimmed title 'Example Tech', got %q", feed.Title)
	}
	if len(feed.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(feed.Entries))
	}

	first := feed.Entries[0]
	if first.Title != "First Post" {
		t.Errorf("Unexpected title: %q", first.Title)
	}
	if first.Link != "https://example.com/posts/1" {
		t.Errorf("Unexpected link: %q", first.Link)
	}
	if first.Author != "Alice" {
		t.Errorf("Expected author 'Alice', got %q", first.Author)
	}
	if first.DateText() != "Mon, 13 Jan 2025 08:00:00 +0000" {
		t.Errorf("Expected feed-native date text, got %q", first.DateText())
	}
	ts0, ok := first.Timestamp()
	if !ok {
		t.Fatal("Expected first entry to carry a timestamp")
	}
	if !ts0.Equal(time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected timestamp: %v", ts0)
	}

	second := feed.Entries[1]
	if second.Link != "" {
		t.Errorf("Expected empty link, got %q", second.Link)
	}
	if _, ok := second.Timestamp(); ok {
		t.Error("Expected no timestamp for undated entry")
	}
	if second.DateText() != "Unknown" {
		t.Errorf("Expected 'Unknown' date text, got %q", second.DateText())
	}
}

func TestFetchPrefersUpdatedOverPublished(t *testing.T) {
	ts := serve(sampleAtomFeed, http.StatusOK)
	defer ts.Close()

	feed, err := NewRSSFetcher(5*time.Second, "").Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(feed.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(feed.Entries))
	}

	e := feed.Entries[0]
	if e.Author != "Bob" {
		t.Errorf("Expected author 'Bob', got %q", e.Author)
	}
	got, _ := e.Timestamp()
	if got.Day() != 12 {
		t.Errorf("Expected updated timestamp (day 12), got %v", got)
	}
	if e.DateText() != "2025-01-12T09:00:00Z" {
		t.Errorf("Expected updated date text, got %q", e.DateText())
	}
}

func TestFetchMalformedFeed(t *testing.T) {
	ts := serve("this is not a feed", http.StatusOK)
	defer ts.Close()

	_, err := NewRSSFetcher(5*time.Second, "").Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("Expected error for malformed feed")
	}
	if !errors.Is(err, ErrMalformedFeed) {
		t.Errorf("Expected ErrMalformedFeed, got: %v", err)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	ts := serve("", http.StatusNotFound)
	defer ts.Close()

	err := NewRSSFetcher(5*time.Second, "").Validate(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if errors.Is(err, ErrMalformedFeed) {
		t.Error("Status failures should not be reported as malformed documents")
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Write([]byte(sampleAtomFeed))
	}))
	defer ts.Close()

	if err := NewRSSFetcher(5*time.Second, "test-agent/2").Validate(context.Background(), ts.URL); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if gotUA != "test-agent/2" {
		t.Errorf("Expected custom user agent, got %q", gotUA)
	}
}
