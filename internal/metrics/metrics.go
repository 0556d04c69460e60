// Package metrics holds the Prometheus instruments for pipeline runs and
// the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rss_summarizer"

// Run outcomes used as the status label of RunsTotal.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Metrics groups every instrument the service exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RunsTotal              *prometheus.CounterVec
	RunDurationSeconds     prometheus.Histogram
	RunInProgress          prometheus.Gauge
	ArticlesSavedTotal     prometheus.Counter
	FeedErrorsTotal        *prometheus.CounterVec
	SummaryFailuresTotal   prometheus.Counter
	PublishFailuresTotal   *prometheus.CounterVec
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDurationSec *prometheus.HistogramVec
}

// NewMetrics creates and registers all instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &Metrics{}
	m.initRunMetrics(factory)
	m.initHTTPMetrics(factory)
	return m
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by outcome",
		},
		[]string{"status"},
	)
	m.RunDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
	m.RunInProgress = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_in_progress",
			Help:      "1 while a pipeline run is executing",
		},
	)
	m.ArticlesSavedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "articles_saved_total",
			Help:      "Total number of articles persisted",
		},
	)
	m.FeedErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "feed_errors_total",
			Help:      "Feeds that could not be fetched or parsed",
		},
		[]string{"feed"},
	)
	m.SummaryFailuresTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "summary_failures_total",
			Help:      "Entries whose summary is an error marker",
		},
	)
	m.PublishFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "publish_failures_total",
			Help:      "Publisher errors by publisher",
		},
		[]string{"publisher"},
	)
}

func (m *Metrics) initHTTPMetrics(factory promauto.Factory) {
	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	m.HTTPRequestDurationSec = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
}

func (m *Metrics) RecordRunStarted() {
	if m == nil {
		return
	}
	m.RunInProgress.Set(1)
}

func (m *Metrics) RecordRunFinished(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RunInProgress.Set(0)
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDurationSeconds.Observe(durationSeconds)
}

func (m *Metrics) RecordRunSkipped() {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(StatusSkipped).Inc()
}

func (m *Metrics) RecordArticlesSaved(n int) {
	if m == nil {
		return
	}
	m.ArticlesSavedTotal.Add(float64(n))
}

func (m *Metrics) RecordFeedError(feed string) {
	if m == nil {
		return
	}
	m.FeedErrorsTotal.WithLabelValues(feed).Inc()
}

func (m *Metrics) RecordSummaryFailure() {
	if m == nil {
		return
	}
	m.SummaryFailuresTotal.Inc()
}

func (m *Metrics) RecordPublishFailure(publisher string) {
	if m == nil {
		return
	}
	m.PublishFailuresTotal.WithLabelValues(publisher).Inc()
}

func (m *Metrics) RecordHTTPRequest(route, method, code string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, code).Inc()
	m.HTTPRequestDurationSec.WithLabelValues(route).Observe(durationSeconds)
}
