package summarizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/ryosukesatoh/rss-summarizer/internal/config"
)

// New creates a summarizer based on the LLM configuration.
func New(cfg config.LLMConfig) (Summarizer, error) {
	opts := Options{
		BaseURL:          cfg.BaseURL,
		APIKey:           cfg.APIKey,
		Model:            cfg.Model,
		System:           cfg.System,
		Instruction:      cfg.Instruction,
		DidYouKnow:       cfg.DidYouKnow,
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		DidYouKnowTokens: cfg.DidYouKnowTokens,
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	switch cfg.Mode {
	case config.ModeStructured:
		opts.Structured = true
	case config.ModePlain:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, cfg.Mode)
	}

	return NewOpenAISummarizer(opts), nil
}

// ErrUnsupportedMode is returned when an unknown response mode is configured.
var ErrUnsupportedMode = errors.New("unsupported summarizer mode")
