package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	RetentionAppend  = "append"
	RetentionReplace = "replace"

	ModeStructured = "structured"
	ModePlain      = "plain"
)

const (
	defaultSystem      = "You are an expert summarizer."
	defaultInstruction = `Summarize this article into a short, punchy tech fact (max 2 sentences) to put in a newsletter, prioritizing the most important information first and then adding supporting details (inverted pyramid style). Categorize it into one of the following categories: AI, New in Tech, Business, Games/Entertainment. Return the response in the following JSON format only and do NOT include any markdown or escape characters inside it :{"summary": "Your summary here", "tag": "Category"}`
	defaultDYK         = "Turn this article into one fun, factual, and that feels like a surprising fact or hook for a newsletter. It should be exciting and attention-grabbing, but it does not have to start with 'Did you know'."
)

type Config struct {
	DataDir      string `yaml:"data_dir"`
	FeedsFile    string `yaml:"feeds_file"`
	ArticlesFile string `yaml:"articles_file"`
	CSVFile      string `yaml:"csv_file"`
	Retention    string `yaml:"retention"`

	Schedule   string `yaml:"schedule"`
	RunOnStart bool   `yaml:"run_on_start"`

	MaxArticles int `yaml:"max_articles"`
	TimeLapse   int `yaml:"time_lapse"` // seconds

	SeedFeeds []FeedConfig `yaml:"seed_feeds"`

	Extractor ExtractorConfig `yaml:"extractor"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type FeedConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type ExtractorConfig struct {
	MaxWords       int    `yaml:"max_words"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type LLMConfig struct {
	BaseURL          string  `yaml:"base_url"`
	APIKey           string  `yaml:"api_key"`
	Model            string  `yaml:"model"`
	System           string  `yaml:"system"`
	Instruction      string  `yaml:"instruction"`
	DidYouKnow       string  `yaml:"did_you_know_instruction"`
	Mode             string  `yaml:"mode"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	DidYouKnowTokens int     `yaml:"did_you_know_max_tokens"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	Debug       bool     `yaml:"debug"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// FeedsPath returns the feed registry document location.
func (c *Config) FeedsPath() string { return filepath.Join(c.DataDir, c.FeedsFile) }

// ArticlesPath returns the article history document location.
func (c *Config) ArticlesPath() string { return filepath.Join(c.DataDir, c.ArticlesFile) }

// CSVPath returns the tabular export location.
func (c *Config) CSVPath() string { return filepath.Join(c.DataDir, c.CSVFile) }

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// applyEnv lets the well-known environment variables override file values.
func applyEnv(cfg *Config) error {
	strVars := map[string]*string{
		"OPENAI_API_BASE":                &cfg.LLM.BaseURL,
		"OPENAI_API_KEY":                 &cfg.LLM.APIKey,
		"FEEDSUMMARIZER_MODEL":           &cfg.LLM.Model,
		"FEEDSUMMARIZER_SYSTEM":          &cfg.LLM.System,
		"FEEDSUMMARIZER_INSTRUCTION":     &cfg.LLM.Instruction,
		"FEEDSUMMARIZER_DYK_INSTRUCTION": &cfg.LLM.DidYouKnow,
		"FEEDSUMMARIZER_DATA_DIR":        &cfg.DataDir,
		"FEEDSUMMARIZER_ADDR":            &cfg.Server.Addr,
		"FEEDSUMMARIZER_SCHEDULE":        &cfg.Schedule,
		"FEEDSUMMARIZER_LOG_LEVEL":       &cfg.Log.Level,
	}
	for name, dst := range strVars {
		if val, ok := os.LookupEnv(name); ok && val != "" {
			*dst = val
		}
	}

	intVars := map[string]*int{
		"FEEDSUMMARIZER_MAX_ARTICLES": &cfg.MaxArticles,
		"FEEDSUMMARIZER_TIME_LAPSE":   &cfg.TimeLapse,
	}
	for name, dst := range intVars {
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("config: %s must be an integer, got %q", name, val)
		}
		*dst = n
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.FeedsFile == "" {
		cfg.FeedsFile = "rss_feeds.json"
	}
	if cfg.ArticlesFile == "" {
		cfg.ArticlesFile = "news_summaries.json"
	}
	if cfg.CSVFile == "" {
		cfg.CSVFile = "news_summaries.csv"
	}
	if cfg.Retention == "" {
		cfg.Retention = RetentionAppend
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 9 * * 1"
	}
	if cfg.MaxArticles == 0 {
		cfg.MaxArticles = 10
	}
	if cfg.TimeLapse == 0 {
		cfg.TimeLapse = 86400
	}
	if cfg.SeedFeeds == nil {
		cfg.SeedFeeds = []FeedConfig{
			{URL: "https://news.ycombinator.com/rss", Name: "Hacker News"},
			{URL: "https://feeds.bbci.co.uk/news/rss.xml", Name: "BBC News"},
		}
	}
	if cfg.Extractor.MaxWords == 0 {
		cfg.Extractor.MaxWords = 7000
	}
	if cfg.Extractor.TimeoutSeconds == 0 {
		cfg.Extractor.TimeoutSeconds = 10
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.System == "" {
		cfg.LLM.System = defaultSystem
	}
	if cfg.LLM.Instruction == "" {
		cfg.LLM.Instruction = defaultInstruction
	}
	if cfg.LLM.DidYouKnow == "" {
		cfg.LLM.DidYouKnow = defaultDYK
	}
	if cfg.LLM.Mode == "" {
		cfg.LLM.Mode = ModeStructured
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 600
	}
	if cfg.LLM.DidYouKnowTokens == 0 {
		cfg.LLM.DidYouKnowTokens = 200
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

func validate(cfg *Config) error {
	switch cfg.Retention {
	case RetentionAppend, RetentionReplace:
	default:
		return fmt.Errorf("config: unsupported retention %q (supported: append, replace)", cfg.Retention)
	}
	switch cfg.LLM.Mode {
	case ModeStructured, ModePlain:
	default:
		return fmt.Errorf("config: unsupported llm.mode %q (supported: structured, plain)", cfg.LLM.Mode)
	}
	if cfg.MaxArticles < 0 {
		return fmt.Errorf("config: max_articles must be positive, got %d", cfg.MaxArticles)
	}
	if cfg.TimeLapse < 0 {
		return fmt.Errorf("config: time_lapse must be positive, got %d", cfg.TimeLapse)
	}
	if cfg.Extractor.MaxWords < 0 {
		return fmt.Errorf("config: extractor.max_words must be positive, got %d", cfg.Extractor.MaxWords)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("config: invalid schedule %q: %w", cfg.Schedule, err)
	}
	for i, f := range cfg.SeedFeeds {
		if f.URL == "" {
			return fmt.Errorf("config: seed_feeds[%d].url is required", i)
		}
	}
	return nil
}

// Load reads the config file (if any), expands environment variables, applies
// environment overrides and defaults, and validates the configuration. A
// missing file is not an error; every setting has a default.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		default:
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
