package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryosukesatoh/rss-summarizer/internal/extractor"
	"github.com/ryosukesatoh/rss-summarizer/internal/logger"
	"github.com/ryosukesatoh/rss-summarizer/internal/runner"
	"github.com/ryosukesatoh/rss-summarizer/internal/store"
	"github.com/ryosukesatoh/rss-summarizer/internal/summarizer"
)

const (
	serviceName         = "rss-summarizer"
	defaultArticleLimit = 10
)

// FeedService is the feed registry as seen by the API.
type FeedService interface {
	List(ctx context.Context) ([]store.Feed, error)
	Add(ctx context.Context, url, name string) (store.Feed, error)
	Remove(ctx context.Context, id int) (store.Feed, error)
}

// ArticleService is the article store as seen by the API.
type ArticleService interface {
	List(ctx context.Context, limit int) ([]store.Article, error)
	Summary(ctx context.Context, id int) (string, error)
}

// Pipeline starts background feed processing.
type Pipeline interface {
	Start(ctx context.Context) error
	Running() bool
}

// Handler serves the HTTP routes.
type Handler struct {
	feeds      FeedService
	articles   ArticleService
	pipeline   Pipeline
	extractor  extractor.Extractor
	summarizer summarizer.Summarizer
	gatherer   prometheus.Gatherer
	log        logger.Logger

	// runCtx outlives individual requests; runs started over HTTP are
	// cancelled only when the process shuts down.
	runCtx context.Context
}

// HandlerDeps bundles the collaborators of a Handler.
type HandlerDeps struct {
	Feeds      FeedService
	Articles   ArticleService
	Pipeline   Pipeline
	Extractor  extractor.Extractor
	Summarizer summarizer.Summarizer
	Gatherer   prometheus.Gatherer
	Logger     logger.Logger
}

func NewHandler(runCtx context.Context, deps HandlerDeps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		feeds:      deps.Feeds,
		articles:   deps.Articles,
		pipeline:   deps.Pipeline,
		extractor:  deps.Extractor,
		summarizer: deps.Summarizer,
		gatherer:   deps.Gatherer,
		log:        deps.Logger,
		runCtx:     runCtx,
	}
}

// RegisterRoutes mounts every route on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Home)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/articles", h.ListArticles)
	api.GET("/article/:id/summary", h.ArticleSummary)
	api.GET("/feeds", h.ListFeeds)
	api.POST("/feeds", h.AddFeed)
	api.DELETE("/feeds/:id", h.RemoveFeed)
	api.POST("/process-feeds", h.ProcessFeeds)
	api.POST("/convert-url", h.ConvertURL)
}

type feedRequest struct {
	URL  string `json:"url" binding:"required"`
	Name string `json:"name"`
}

type convertRequest struct {
	URL string `json:"url" binding:"required"`
}

type articleResponse struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Date      string `json:"date"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
	FeedName  string `json:"feed_name"`
	Tag       string `json:"tag"`
}

func errorBody(detail string) gin.H {
	return gin.H{"detail": detail}
}

func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, "RSS Feed Summarizer")
}

func (h *Handler) Health(c *gin.Context) {
	status := "idle"
	if h.pipeline != nil && h.pipeline.Running() {
		status = "processing"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  serviceName,
		"pipeline": status,
	})
}

// ListArticles handles GET /api/articles?limit=N.
func (h *Handler) ListArticles(c *gin.Context) {
	limit := defaultArticleLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	articles, err := h.articles.List(c.Request.Context(), limit)
	if err != nil {
		h.internalError(c, "Error loading articles", err)
		return
	}

	resp := make([]articleResponse, len(articles))
	for i, a := range articles {
		resp[i] = articleResponse{
			ID:        a.ID,
			Title:     a.Title,
			URL:       a.URL,
			Date:      a.Date,
			Author:    a.Author,
			Timestamp: a.Timestamp,
			Summary:   a.Summary,
			FeedName:  a.FeedName,
			Tag:       a.Tag,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ArticleSummary handles GET /api/article/:id/summary.
func (h *Handler) ArticleSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	summary, err := h.articles.Summary(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if existing, listErr := h.articles.List(ctx, 1); listErr == nil && len(existing) == 0 {
			c.JSON(http.StatusNotFound, errorBody("No articles available"))
			return
		}
		c.JSON(http.StatusNotFound, errorBody("Article not found"))
	case err != nil:
		h.internalError(c, "Error loading article", err)
	default:
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}

// ListFeeds handles GET /api/feeds.
func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.feeds.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "Error loading feeds", err)
		return
	}
	c.JSON(http.StatusOK, feeds)
}

// AddFeed handles POST /api/feeds.
func (h *Handler) AddFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid request body: "+err.Error()))
		return
	}

	feed, err := h.feeds.Add(c.Request.Context(), req.URL, req.Name)
	switch {
	case errors.Is(err, store.ErrDuplicateFeed):
		c.JSON(http.StatusBadRequest, errorBody("Feed already exists"))
	case errors.Is(err, store.ErrInvalidFeed):
		c.JSON(http.StatusBadRequest, errorBody("Invalid RSS feed: "+unwrapDetail(err)))
	case err != nil:
		h.internalError(c, "Error saving feed", err)
	default:
		h.log.Info("Feed added", logger.String("name", feed.Name), logger.String("url", feed.URL))
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Feed '%s' added successfully", feed.Name)})
	}
}

// RemoveFeed handles DELETE /api/feeds/:id.
func (h *Handler) RemoveFeed(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	feed, err := h.feeds.Remove(c.Request.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("Feed not found"))
	case err != nil:
		h.internalError(c, "Error saving feeds", err)
	default:
		h.log.Info("Feed removed", logger.String("name", feed.Name), logger.String("url", feed.URL))
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Feed '%s' removed successfully", feed.Name)})
	}
}

// ProcessFeeds handles POST /api/process-feeds. The run continues after
// the response is sent.
func (h *Handler) ProcessFeeds(c *gin.Context) {
	if err := h.pipeline.Start(h.runCtx); err != nil {
		if errors.Is(err, runner.ErrRunInProgress) {
			c.JSON(http.StatusConflict, errorBody("Feed processing already in progress"))
			return
		}
		h.internalError(c, "Error starting feed processing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feed processing started"})
}

// ConvertURL handles POST /api/convert-url.
func (h *Handler) ConvertURL(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid request body: "+err.Error()))
		return
	}

	ctx := c.Request.Context()
	text := h.extractor.Extract(ctx, req.URL)
	if extractor.IsFailure(text) || extractor.IsNoURL(text) {
		c.JSON(http.StatusBadRequest, errorBody("Failed to extract readable content from the URL."))
		return
	}

	fact, err := h.summarizer.DidYouKnow(ctx, text)
	switch {
	case errors.Is(err, summarizer.ErrLLMStatus):
		h.log.Warn("Did-you-know generation failed", logger.String("url", req.URL), logger.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("Failed to generate summary from LLM."))
	case err != nil:
		h.log.Warn("Did-you-know generation failed", logger.String("url", req.URL), logger.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("Error during LLM call: "+err.Error()))
	default:
		c.JSON(http.StatusOK, gin.H{"did_you_know": fact})
	}
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errorBody(fmt.Sprintf("%s: %v", msg, err)))
}

// pathID parses the :id path parameter, writing a 400 when it is not an
// integer.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("id must be an integer"))
		return 0, false
	}
	return id, true
}

// unwrapDetail returns the cause carried after an ErrInvalidFeed prefix.
func unwrapDetail(err error) string {
	return strings.TrimPrefix(err.Error(), store.ErrInvalidFeed.Error()+": ")
}
