package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ryosukesatoh/rss-summarizer/internal/extractor"
	"github.com/ryosukesatoh/rss-summarizer/internal/fetcher"
	"github.com/ryosukesatoh/rss-summarizer/internal/logger"
	"github.com/ryosukesatoh/rss-summarizer/internal/metrics"
	"github.com/ryosukesatoh/rss-summarizer/internal/publisher"
	"github.com/ryosukesatoh/rss-summarizer/internal/store"
	"github.com/ryosukesatoh/rss-summarizer/internal/summarizer"
)

const (
	DefaultMaxEntries = 10
	DefaultWindow     = 24 * time.Hour

	// NoContentSummary replaces the summary of entries that carry no link.
	NoContentSummary = "Could not summarize - no content available"
	unknown          = "Unknown"
)

// ErrRunInProgress is returned by Run while another run is executing.
var ErrRunInProgress = errors.New("runner: feed processing already in progress")

// FeedSource lists the feeds a run should process.
type FeedSource interface {
	List(ctx context.Context) ([]store.Feed, error)
}

// ArticleSink persists the batch produced by a run.
type ArticleSink interface {
	AppendBatch(ctx context.Context, articles []store.Article) error
}

// Deps are the collaborators of a Runner. Publishers and Metrics are
// optional; a nil Logger discards output.
type Deps struct {
	Feeds      FeedSource
	Fetcher    fetcher.Fetcher
	Extractor  extractor.Extractor
	Summarizer summarizer.Summarizer
	Articles   ArticleSink
	Publishers []publisher.Publisher
	Metrics    *metrics.Metrics
	Logger     logger.Logger
}

// Runner orchestrates the fetch -> extract -> summarize -> store pipeline.
// Only one run executes at a time.
type Runner struct {
	deps       Deps
	maxEntries int
	window     time.Duration

	mu      sync.Mutex
	wg      sync.WaitGroup
	running atomic.Bool

	now    func() time.Time
	newUID func() string
}

// New creates a Runner. maxEntries caps the entries considered per feed and
// window is the maximum entry age; non-positive values fall back to the
// defaults.
func New(maxEntries int, window time.Duration, deps Deps) *Runner {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	return &Runner{
		deps:       deps,
		maxEntries: maxEntries,
		window:     window,
		now:        time.Now,
		newUID:     uuid.NewString,
	}
}

// Running reports whether a run is currently executing.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run executes the full pipeline once and waits for it to finish.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.mu.TryLock() {
		r.deps.Metrics.RecordRunSkipped()
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()
	return r.execute(ctx)
}

// Start begins a run in the background and returns immediately. It fails
// with ErrRunInProgress when a run is already executing.
func (r *Runner) Start(ctx context.Context) error {
	if !r.mu.TryLock() {
		r.deps.Metrics.RecordRunSkipped()
		return ErrRunInProgress
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.mu.Unlock()
		_, _ = r.execute(ctx)
	}()
	return nil
}

// Wait blocks until background runs started with Start have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// execute runs the pipeline. The caller holds r.mu.
func (r *Runner) execute(ctx context.Context) (*Result, error) {
	r.running.Store(true)
	defer r.running.Store(false)

	log := r.deps.Logger
	res := &Result{StartedAt: r.now()}
	r.deps.Metrics.RecordRunStarted()

	err := r.run(ctx, res)

	res.FinishedAt = r.now()
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailed
	}
	r.deps.Metrics.RecordRunFinished(status, res.FinishedAt.Sub(res.StartedAt).Seconds())

	if err != nil {
		log.Error("Feed processing failed", logger.Error(err))
		return res, err
	}
	log.Info("Feed processing finished",
		logger.Int("feeds", len(res.Feeds)),
		logger.Int("saved", res.Saved),
		logger.Duration("duration", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, res *Result) error {
	log := r.deps.Logger

	feeds, err := r.deps.Feeds.List(ctx)
	if err != nil {
		return fmt.Errorf("runner: list feeds: %w", err)
	}
	if len(feeds) == 0 {
		log.Info("No feeds found to process")
		res.NoFeeds = true
		return nil
	}

	log.Info("Starting feed processing", logger.Int("feeds", len(feeds)))

	var batch []store.Article
	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return err
		}

		articles, fr := r.processFeed(ctx, feed)
		res.Feeds = append(res.Feeds, fr)
		batch = append(batch, articles...)
	}

	if len(batch) == 0 {
		log.Info("No new articles to process")
		return nil
	}

	if err := r.deps.Articles.AppendBatch(ctx, batch); err != nil {
		return fmt.Errorf("runner: save articles: %w", err)
	}
	res.Saved = len(batch)
	res.Articles = batch
	r.deps.Metrics.RecordArticlesSaved(len(batch))
	log.Info("Processed and saved articles", logger.Int("count", len(batch)))

	r.publish(ctx, batch)
	return nil
}

// processFeed handles one feed. Failures are recorded on the FeedResult and
// never abort the run.
func (r *Runner) processFeed(ctx context.Context, feed store.Feed) ([]store.Article, FeedResult) {
	log := r.deps.Logger.With(logger.String("feed", feed.Name), logger.String("url", feed.URL))
	fr := FeedResult{Name: feed.Name, Title: feed.Name}

	log.Info("Processing feed")
	parsed, err := r.deps.Fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		log.Warn("Failed to process feed", logger.Error(err))
		r.deps.Metrics.RecordFeedError(feed.Name)
		fr.Err = err
		return nil, fr
	}
	if parsed.Title != "" {
		fr.Title = parsed.Title
	}

	entries := parsed.Entries
	if len(entries) > r.maxEntries {
		entries = entries[:r.maxEntries]
	}

	now := r.now()
	var recent []fetcher.Entry
	for _, entry := range entries {
		if r.isRecent(entry, now) {
			recent = append(recent, entry)
		}
	}
	log.Info("Found recent articles", logger.String("title", fr.Title), logger.Int("count", len(recent)))

	articles := make([]store.Article, 0, len(recent))
	for _, entry := range recent {
		articles = append(articles, r.buildArticle(ctx, entry, fr.Title))
	}
	fr.Processed = len(articles)
	return articles, fr
}

// isRecent keeps entries strictly younger than the window. Entries without
// any timestamp count as new.
func (r *Runner) isRecent(entry fetcher.Entry, now time.Time) bool {
	then, ok := entry.Timestamp()
	if !ok {
		return true
	}
	return now.Sub(then) < r.window
}

func (r *Runner) buildArticle(ctx context.Context, entry fetcher.Entry, feedTitle string) store.Article {
	text := r.deps.Extractor.Extract(ctx, entry.Link)

	var result summarizer.Result
	if extractor.IsNoURL(text) {
		result = summarizer.Result{Summary: NoContentSummary, Tag: summarizer.UnknownTag}
	} else {
		result = r.deps.Summarizer.Summarize(ctx, text)
		if summarizer.IsFailure(result.Summary) {
			r.deps.Metrics.RecordSummaryFailure()
			r.deps.Logger.Warn("Summarization failed",
				logger.String("url", entry.Link),
				logger.String("summary", result.Summary),
			)
		}
	}

	return store.Article{
		UID:       r.newUID(),
		Title:     orUnknown(entry.Title),
		URL:       entry.Link,
		Date:      entry.DateText(),
		Author:    orUnknown(entry.Author),
		Timestamp: store.FormatTimestamp(r.now()),
		Summary:   result.Summary,
		Tag:       result.Tag,
		FeedName:  feedTitle,
	}
}

// publish hands the batch to every publisher. Failures are logged and
// counted but do not fail the run.
func (r *Runner) publish(ctx context.Context, batch []store.Article) {
	for _, pub := range r.deps.Publishers {
		if err := pub.Publish(ctx, batch); err != nil {
			r.deps.Metrics.RecordPublishFailure(pub.Name())
			r.deps.Logger.Warn("Publisher failed", logger.String("publisher", pub.Name()), logger.Error(err))
			continue
		}
		r.deps.Logger.Debug("Published batch", logger.String("publisher", pub.Name()))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
