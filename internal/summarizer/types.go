package summarizer

import (
	"context"
	"strings"
)

// UnknownTag is used whenever a category could not be determined.
const UnknownTag = "Unknown"

// Result is the outcome of summarizing one article.
type Result struct {
	Summary string `json:"summary"`
	Tag     string `json:"tag"`
}

// Summarizer turns article text into a short summary.
//
// Summarize never fails: transport, status and parse problems come back as
// an explanatory Summary with Tag set to UnknownTag. DidYouKnow returns its
// errors so callers can report them.
type Summarizer interface {
	Summarize(ctx context.Context, text string) Result
	DidYouKnow(ctx context.Context, text string) (string, error)
}

var failurePrefixes = []string{
	"Error generating summary:",
	"Error generating response:",
	"Error parsing JSON response:",
}

// IsFailure reports whether a summary is one of the error texts produced by
// Summarize.
func IsFailure(summary string) bool {
	for _, p := range failurePrefixes {
		if strings.HasPrefix(summary, p) {
			return true
		}
	}
	return false
}
