// Package extractor pulls readable paragraph text out of article pages.
//
// Extraction never fails with an error. Problems are reported as sentinel
// text so callers can pass the result along or branch on it.
package extractor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	DefaultMaxWords = 7000
	DefaultTimeout  = 10 * time.Second

	NoURLText = "The feed entry doesn't seem to have any URL."

	loadFailedMarker = "could not be loaded"
	noContentMarker  = "doesn't seem to have"
)

// Extractor turns a URL into a length-bounded block of text.
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// HTMLExtractor fetches pages over HTTP and concatenates their <p> blocks.
type HTMLExtractor struct {
	client    *http.Client
	maxWords  int
	userAgent string
}

func New(maxWords int, timeout time.Duration, userAgent string) *HTMLExtractor {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTMLExtractor{
		client:    &http.Client{Timeout: timeout},
		maxWords:  maxWords,
		userAgent: userAgent,
	}
}

func (e *HTMLExtractor) Extract(ctx context.Context, url string) string {
	if url == "" {
		return NoURLText
	}

	doc, err := e.load(ctx, url)
	if err != nil {
		return fmt.Sprintf("The page %s %s: %v", url, loadFailedMarker, err)
	}

	paragraphs := doc.Find("p")
	if paragraphs.Length() == 0 {
		return fmt.Sprintf("The web page at %s %s any readable content.", url, noContentMarker)
	}

	parts := make([]string, 0, paragraphs.Length())
	paragraphs.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})

	text := truncateWords(strings.Join(parts, "\n"), e.maxWords)
	return fmt.Sprintf("Content of %s:\n%s", url, text)
}

func (e *HTMLExtractor) load(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// Pages in legacy encodings are decoded to UTF-8 before parsing.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(body)
}

// truncateWords keeps at most max whitespace-separated words. Untruncated
// text is returned unchanged, line breaks included.
func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ") + "..."
}

// IsNoURL reports whether text is the sentinel for an entry without a link.
func IsNoURL(text string) bool {
	return strings.Contains(text, "doesn't seem to have any URL")
}

// IsFailure reports whether text is any extraction sentinel rather than
// page content.
func IsFailure(text string) bool {
	return strings.Contains(text, loadFailedMarker) || strings.Contains(text, noContentMarker)
}
