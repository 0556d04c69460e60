package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
<nav>Menu</nav>
<p>First paragraph with <b>bold</b> text.</p>
<div><p>Second paragraph.</p></div>
</body></html>`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div>No paragraphs here</div></body></html>`))
	})
	mux.HandleFunc("/long", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>" + strings.Repeat("word ", 50) + "</p>"))
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<html><body><p>caf\xe9 na\xefve</p></body></html>"))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	return httptest.NewServer(mux)
}

func TestExtractParagraphs(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	url := ts.URL + "/article"
	got := New(0, 0, "").Extract(context.Background(), url)

	want := "Content of " + url + ":\nFirst paragraph with bold text.\nSecond paragraph."
	if got != want {
		t.Errorf("Unexpected extraction:\n got: %q\nwant: %q", got, want)
	}
	if IsFailure(got) || IsNoURL(got) {
		t.Error("Real content must not be classified as a sentinel")
	}
}

func TestExtractDecodesDeclaredCharset(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	url := ts.URL + "/latin1"
	got := New(0, 0, "").Extract(context.Background(), url)

	want := "Content of " + url + ":\ncafé naïve"
	if got != want {
		t.Errorf("Unexpected extraction:\n got: %q\nwant: %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Error("Extracted text must be valid UTF-8")
	}
}

func TestExtractEmptyURL(t *testing.T) {
	got := New(0, 0, "").Extract(context.Background(), "")
	if got != NoURLText {
		t.Errorf("Expected no-URL sentinel, got %q", got)
	}
	if !IsNoURL(got) {
		t.Error("IsNoURL should match the no-URL sentinel")
	}
	if !IsFailure(got) {
		t.Error("IsFailure should match the no-URL sentinel")
	}
}

func TestExtractNoParagraphs(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	got := New(0, 0, "").Extract(context.Background(), ts.URL+"/empty")
	if !strings.Contains(got, "doesn't seem to have any readable content") {
		t.Errorf("Expected no-content sentinel, got %q", got)
	}
	if IsNoURL(got) {
		t.Error("No-content sentinel must not be mistaken for no-URL")
	}
}

func TestExtractHTTPErrorStatus(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	got := New(0, 0, "").Extract(context.Background(), ts.URL+"/gone")
	if !strings.Contains(got, "could not be loaded") || !strings.Contains(got, "410") {
		t.Errorf("Expected load failure sentinel with status, got %q", got)
	}
	if !IsFailure(got) {
		t.Error("IsFailure should match a load failure")
	}
}

func TestExtractUnreachableIsIdempotent(t *testing.T) {
	ts := newTestServer()
	url := ts.URL + "/article"
	ts.Close()

	e := New(0, 2*time.Second, "")
	first := e.Extract(context.Background(), url)
	second := e.Extract(context.Background(), url)

	if !strings.Contains(first, "could not be loaded") {
		t.Fatalf("Expected load failure sentinel, got %q", first)
	}
	if first != second {
		t.Errorf("Expected identical sentinels, got %q and %q", first, second)
	}
}

func TestExtractTruncatesWords(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	got := New(10, 0, "").Extract(context.Background(), ts.URL+"/long")
	body := strings.SplitN(got, "\n", 2)[1]

	if body != strings.TrimSpace(strings.Repeat("word ", 10))+"..." {
		t.Errorf("Unexpected truncated body: %q", body)
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"a b c", 5, "a b c"},
		{"a\nb c", 3, "a\nb c"},
		{"a  b\n c d", 2, "a b..."},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := truncateWords(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateWords(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
