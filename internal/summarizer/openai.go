package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrLLMStatus is returned by DidYouKnow when the endpoint answers with a
// non-200 status.
var ErrLLMStatus = errors.New("llm returned non-success status")

// Options configures an OpenAISummarizer.
type Options struct {
	BaseURL          string
	APIKey           string
	Model            string
	System           string
	Instruction      string
	DidYouKnow       string
	Structured       bool // expect {"summary": ..., "tag": ...} in the reply
	Temperature      float64
	MaxTokens        int
	DidYouKnowTokens int
	Timeout          time.Duration
}

// OpenAISummarizer talks to any OpenAI-compatible chat completions endpoint.
type OpenAISummarizer struct {
	opts   Options
	client *http.Client
}

func NewOpenAISummarizer(opts Options) *OpenAISummarizer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &OpenAISummarizer{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// statusError carries the HTTP status of a failed completion call.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%d", e.code)
}

func (e *statusError) Unwrap() error { return ErrLLMStatus }

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) Result {
	content, err := s.complete(ctx, text, s.opts.Instruction, s.opts.MaxTokens)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return Result{Summary: fmt.Sprintf("Error generating summary: %d", se.code), Tag: UnknownTag}
		}
		return Result{Summary: fmt.Sprintf("Error generating response: %v", err), Tag: UnknownTag}
	}

	if !s.opts.Structured {
		return Result{Summary: content}
	}
	return parseStructured(content)
}

func (s *OpenAISummarizer) DidYouKnow(ctx context.Context, text string) (string, error) {
	content, err := s.complete(ctx, text, s.opts.DidYouKnow, s.opts.DidYouKnowTokens)
	if err != nil {
		return "", fmt.Errorf("summarizer: did-you-know: %w", err)
	}
	return strings.TrimSpace(content), nil
}

func (s *OpenAISummarizer) complete(ctx context.Context, text, instruction string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: s.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: s.opts.System},
			{Role: "user", Content: text + "\n\n" + instruction},
		},
		MaxTokens:   maxTokens,
		Temperature: s.opts.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.opts.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return "", &statusError{code: resp.StatusCode}
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return apiResp.Choices[0].Message.Content, nil
}

// parseStructured pulls the {"summary", "tag"} object out of a reply that may
// be wrapped in prose.
func parseStructured(content string) Result {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return Result{Summary: "Error parsing JSON response: " + content, Tag: UnknownTag}
	}

	raw := content[start : end+1]
	raw = strings.NewReplacer("\n", "", "\t", "").Replace(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Result{Summary: "Error parsing JSON response: " + raw, Tag: UnknownTag}
	}

	res := Result{Tag: UnknownTag}
	if v, present := fields["summary"]; present {
		summary, ok := v.(string)
		if !ok {
			return Result{Summary: "Error parsing JSON response: " + raw, Tag: UnknownTag}
		}
		res.Summary = strings.TrimSpace(summary)
	}
	if v, ok := fields["tag"].(string); ok {
		res.Tag = strings.TrimSpace(v)
	}
	return res
}
