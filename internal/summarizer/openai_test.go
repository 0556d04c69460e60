package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ryosukesatoh/rss-summarizer/internal/config"
)

// fakeLLM answers every completion request with the given status and content.
func fakeLLM(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
		}
	}))
}

func newTestSummarizer(baseURL string, structured bool) *OpenAISummarizer {
	return NewOpenAISummarizer(Options{
		BaseURL:          baseURL + "/v1/",
		APIKey:           "test-key",
		Model:            "test-model",
		System:           "You are an expert summarizer.",
		Instruction:      "Summarize.",
		DidYouKnow:       "Make it fun.",
		Structured:       structured,
		Temperature:      0.7,
		MaxTokens:        600,
		DidYouKnowTokens: 200,
	})
}

func TestSummarizeBuildsChatPayload(t *testing.T) {
	var seen chatRequest
	ts := fakeLLM(t, http.StatusOK, "plain summary", &seen)
	defer ts.Close()

	res := newTestSummarizer(ts.URL, false).Summarize(context.Background(), "Article body")

	if res.Summary != "plain summary" {
		t.Errorf("Expected raw content as summary, got %q", res.Summary)
	}
	if res.Tag != "" {
		t.Errorf("Expected empty tag in plain mode, got %q", res.Tag)
	}
	if seen.Model != "test-model" || seen.MaxTokens != 600 || seen.Temperature != 0.7 {
		t.Errorf("Unexpected request parameters: %+v", seen)
	}
	if len(seen.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(seen.Messages))
	}
	if seen.Messages[0].Role != "system" || seen.Messages[0].Content != "You are an expert summarizer." {
		t.Errorf("Unexpected system message: %+v", seen.Messages[0])
	}
	if seen.Messages[1].Role != "user" || seen.Messages[1].Content != "Article body\n\nSummarize." {
		t.Errorf("Unexpected user message: %+v", seen.Messages[1])
	}
}

func TestSummarizeStructuredWrappedInProse(t *testing.T) {
	ts := fakeLLM(t, http.StatusOK, `Sure! {"summary": "X", "tag": "AI"}`, nil)
	defer ts.Close()

	res := newTestSummarizer(ts.URL, true).Summarize(context.Background(), "text")
	if res.Summary != "X" || res.Tag != "AI" {
		t.Errorf("Expected (X, AI), got (%q, %q)", res.Summary, res.Tag)
	}
}

func TestSummarizeStructuredNoBraces(t *testing.T) {
	ts := fakeLLM(t, http.StatusOK, "I cannot help with that.", nil)
	defer ts.Close()

	res := newTestSummarizer(ts.URL, true).Summarize(context.Background(), "text")
	if !strings.HasPrefix(res.Summary, "Error parsing JSON response") {
		t.Errorf("Expected parse error summary, got %q", res.Summary)
	}
	if res.Tag != UnknownTag {
		t.Errorf("Expected tag %q, got %q", UnknownTag, res.Tag)
	}
}

func TestSummarizeNonOKStatus(t *testing.T) {
	ts := fakeLLM(t, http.StatusTooManyRequests, "", nil)
	defer ts.Close()

	for _, structured := range []bool{true, false} {
		res := newTestSummarizer(ts.URL, structured).Summarize(context.Background(), "text")
		if res.Summary != "Error generating summary: 429" {
			t.Errorf("structured=%v: unexpected summary %q", structured, res.Summary)
		}
		if res.Tag != UnknownTag {
			t.Errorf("structured=%v: expected tag %q, got %q", structured, UnknownTag, res.Tag)
		}
		if !IsFailure(res.Summary) {
			t.Errorf("structured=%v: expected IsFailure for %q", structured, res.Summary)
		}
	}
}

func TestIsFailure(t *testing.T) {
	if IsFailure("A perfectly normal summary.") {
		t.Error("Expected normal summary not to be a failure")
	}
	if !IsFailure("Error parsing JSON response: nope") {
		t.Error("Expected parse error text to be a failure")
	}
}

func TestSummarizeTransportFailure(t *testing.T) {
	ts := fakeLLM(t, http.StatusOK, "", nil)
	url := ts.URL
	ts.Close()

	res := newTestSummarizer(url, true).Summarize(context.Background(), "text")
	if !strings.HasPrefix(res.Summary, "Error generating response:") {
		t.Errorf("Expected transport error summary, got %q", res.Summary)
	}
	if res.Tag != UnknownTag {
		t.Errorf("Expected tag %q, got %q", UnknownTag, res.Tag)
	}
}

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantSummary string
		wantTag     string
	}{
		{
			name:        "bare object",
			in:          `{"summary": " Short. ", "tag": " Business "}`,
			wantSummary: "Short.",
			wantTag:     "Business",
		},
		{
			name:        "newlines and tabs inside",
			in:          "```json\n{\n\t\"summary\": \"Line\",\n\t\"tag\": \"Games/Entertainment\"\n}\n```",
			wantSummary: "Line",
			wantTag:     "Games/Entertainment",
		},
		{
			name:        "missing tag",
			in:          `{"summary": "Only summary"}`,
			wantSummary: "Only summary",
			wantTag:     UnknownTag,
		},
		{
			name:    "reversed braces",
			in:      `} nothing {`,
			wantTag: UnknownTag,
		},
		{
			name:    "invalid json",
			in:      `{"summary": }`,
			wantTag: UnknownTag,
		},
		{
			name:    "non-string summary",
			in:      `{"summary": 42, "tag": "AI"}`,
			wantTag: UnknownTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseStructured(tt.in)
			if tt.wantSummary == "" {
				if !strings.HasPrefix(got.Summary, "Error parsing JSON response") {
					t.Errorf("Expected parse error, got %q", got.Summary)
				}
			} else if got.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.wantSummary)
			}
			if got.Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", got.Tag, tt.wantTag)
			}
		})
	}
}

func TestDidYouKnow(t *testing.T) {
	var seen chatRequest
	ts := fakeLLM(t, http.StatusOK, "  Octopuses have three hearts.  ", &seen)
	defer ts.Close()

	got, err := newTestSummarizer(ts.URL, true).DidYouKnow(context.Background(), "Body")
	if err != nil {
		t.Fatalf("DidYouKnow returned error: %v", err)
	}
	if got != "Octopuses have three hearts." {
		t.Errorf("Expected trimmed content, got %q", got)
	}
	if seen.MaxTokens != 200 {
		t.Errorf("Expected 200 max tokens, got %d", seen.MaxTokens)
	}
	if seen.Messages[1].Content != "Body\n\nMake it fun." {
		t.Errorf("Expected did-you-know instruction, got %q", seen.Messages[1].Content)
	}
}

func TestDidYouKnowStatusError(t *testing.T) {
	ts := fakeLLM(t, http.StatusInternalServerError, "", nil)
	defer ts.Close()

	_, err := newTestSummarizer(ts.URL, true).DidYouKnow(context.Background(), "Body")
	if !errors.Is(err, ErrLLMStatus) {
		t.Errorf("Expected ErrLLMStatus, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	s, err := New(config.LLMConfig{Mode: config.ModeStructured, BaseURL: "http://localhost"})
	if err != nil {
		t.Fatalf("Failed to create summarizer: %v", err)
	}
	if o, ok := s.(*OpenAISummarizer); !ok || !o.opts.Structured {
		t.Error("Expected a structured OpenAI summarizer")
	}

	if _, err := New(config.LLMConfig{Mode: "xml"}); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("Expected ErrUnsupportedMode, got %v", err)
	}
}
