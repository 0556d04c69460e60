package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ryosukesatoh/rss-summarizer/internal/config"
	"github.com/ryosukesatoh/rss-summarizer/internal/extractor"
	"github.com/ryosukesatoh/rss-summarizer/internal/fetcher"
	"github.com/ryosukesatoh/rss-summarizer/internal/logger"
	"github.com/ryosukesatoh/rss-summarizer/internal/metrics"
	"github.com/ryosukesatoh/rss-summarizer/internal/publisher"
	"github.com/ryosukesatoh/rss-summarizer/internal/runner"
	"github.com/ryosukesatoh/rss-summarizer/internal/store"
	"github.com/ryosukesatoh/rss-summarizer/internal/summarizer"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	fetcher    *fetcher.RSSFetcher
	extractor  *extractor.HTMLExtractor
	summarizer summarizer.Summarizer
	feeds      *store.FeedRegistry
	articles   *store.ArticleStore
	runner     *runner.Runner
}

// newApp loads configuration and builds every component. extra publishers
// run after the CSV export.
func newApp(opts *rootOptions, extra ...publisher.Publisher) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	if opts.debug {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	sum, err := summarizer.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		log.Warn("No LLM API key configured; summarization requests will likely be rejected")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	timeout := time.Duration(cfg.Extractor.TimeoutSeconds) * time.Second
	f := fetcher.NewRSSFetcher(timeout, cfg.Extractor.UserAgent)
	ex := extractor.New(cfg.Extractor.MaxWords, timeout, cfg.Extractor.UserAgent)

	retention := store.RetainAll
	if cfg.Retention == config.RetentionReplace {
		retention = store.ReplaceEachRun
	}
	feeds := store.NewFeedRegistry(cfg.FeedsPath(), f)
	articles := store.NewArticleStore(cfg.ArticlesPath(), retention)

	pubs := []publisher.Publisher{publisher.NewCSVPublisher(cfg.CSVPath())}
	pubs = append(pubs, extra...)

	r := runner.New(cfg.MaxArticles, time.Duration(cfg.TimeLapse)*time.Second, runner.Deps{
		Feeds:      feeds,
		Fetcher:    f,
		Extractor:  ex,
		Summarizer: sum,
		Articles:   articles,
		Publishers: pubs,
		Metrics:    m,
		Logger:     log,
	})

	return &app{
		cfg:        cfg,
		log:        log,
		registry:   reg,
		metrics:    m,
		fetcher:    f,
		extractor:  ex,
		summarizer: sum,
		feeds:      feeds,
		articles:   articles,
		runner:     r,
	}, nil
}

// seed writes the configured starter feeds when no registry exists yet.
func (a *app) seed() error {
	initial := make([]store.Feed, len(a.cfg.SeedFeeds))
	for i, f := range a.cfg.SeedFeeds {
		initial[i] = store.Feed{URL: f.URL, Name: f.Name}
	}

	seeded, err := a.feeds.Seed(initial)
	if err != nil {
		return fmt.Errorf("failed to seed feeds: %w", err)
	}
	if seeded {
		a.log.Info("Created feed registry with starter feeds",
			logger.String("path", a.cfg.FeedsPath()),
			logger.Int("feeds", len(initial)),
		)
	}
	return nil
}

func (a *app) close() {
	_ = a.log.Sync()
}
