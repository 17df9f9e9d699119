// Package metrics holds the Prometheus collectors of the restock jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all restock metrics.
	Namespace = "restock"

	statusSuccess    = "success"
	statusFailure    = "failure"
	statusSuppressed = "suppressed"
)

// Metrics holds all Prometheus metrics of the restock jobs. A nil *Metrics
// records nothing.
type Metrics struct {
	// Crawl metrics
	PagesTotal         *prometheus.CounterVec
	ItemsTotal         *prometheus.CounterVec
	ExtractErrorsTotal *prometheus.CounterVec
	FetchErrorsTotal   *prometheus.CounterVec

	// Pipeline metrics
	PipelineOutcomesTotal *prometheus.CounterVec

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec

	// Retention metrics
	PrunedRecordsTotal prometheus.Counter

	// Job metrics
	JobDurationSeconds *prometheus.HistogramVec
	JobsRunning        *prometheus.GaugeVec
	JobLastSuccess     *prometheus.GaugeVec
}

// New creates and registers all restock metrics on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initCrawlMetrics(factory)
	m.initPipelineMetrics(factory)
	m.initNotificationMetrics(factory)
	m.initJobMetrics(factory)

	return m
}

func (m *Metrics) initCrawlMetrics(factory promauto.Factory) {
	m.PagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawl",
			Name:      "pages_total",
			Help:      "Total number of HTML pages fetched",
		},
		[]string{"job"},
	)

	m.ItemsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawl",
			Name:      "items_total",
			Help:      "Total number of product items extracted",
		},
		[]string{"job"},
	)

	m.ExtractErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawl",
			Name:      "extract_errors_total",
			Help:      "Total number of product pages skipped because of extraction errors",
		},
		[]string{"job"},
	)

	m.FetchErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "crawl",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed page fetches",
		},
		[]string{"job"},
	)
}

func (m *Metrics) initPipelineMetrics(factory promauto.Factory) {
	m.PipelineOutcomesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "Total number of pipeline runs by chain, deciding stage and status",
		},
		[]string{"chain", "stage", "status"},
	)
}

func (m *Metrics) initNotificationMetrics(factory promauto.Factory) {
	m.NotificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total number of notifications by decision kind and result (success, failure, suppressed)",
		},
		[]string{"kind", "status"},
	)
}

func (m *Metrics) initJobMetrics(factory promauto.Factory) {
	m.PrunedRecordsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "retention",
			Name:      "pruned_records_total",
			Help:      "Total number of availability records deleted by retention",
		},
	)

	m.JobDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "Duration of job runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 15), // 0.1s to ~55min
		},
		[]string{"job", "status"},
	)

	m.JobsRunning = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "job",
			Name:      "running",
			Help:      "Number of job runs in progress",
		},
		[]string{"job"},
	)

	m.JobLastSuccess = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "job",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful job run",
		},
		[]string{"job"},
	)
}

// RecordCrawl adds the counters of one finished crawl.
func (m *Metrics) RecordCrawl(job string, pages, items, extractErrors, fetchErrors int64) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(job).Add(float64(pages))
	m.ItemsTotal.WithLabelValues(job).Add(float64(items))
	m.ExtractErrorsTotal.WithLabelValues(job).Add(float64(extractErrors))
	m.FetchErrorsTotal.WithLabelValues(job).Add(float64(fetchErrors))
}

// RecordOutcome counts one pipeline run. stage is empty for passed items.
func (m *Metrics) RecordOutcome(chain, stage, status string) {
	if m == nil {
		return
	}
	m.PipelineOutcomesTotal.WithLabelValues(chain, stage, status).Inc()
}

// RecordNotification counts one notification attempt.
func (m *Metrics) RecordNotification(kind string, err error) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind, resultLabel(err)).Inc()
}

// RecordSuppressed counts a notification the tracker held back as already
// sent.
func (m *Metrics) RecordSuppressed(kind string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind, statusSuppressed).Inc()
}

// RecordPruned adds deleted availability records.
func (m *Metrics) RecordPruned(n int64) {
	if m == nil {
		return
	}
	m.PrunedRecordsTotal.Add(float64(n))
}

// StartJob marks a job run as started. The returned function records its
// duration and result and must be called exactly once.
func (m *Metrics) StartJob(job string) func(err error) {
	if m == nil {
		return func(error) {}
	}

	start := time.Now()
	m.JobsRunning.WithLabelValues(job).Inc()

	return func(err error) {
		m.JobsRunning.WithLabelValues(job).Dec()
		status := resultLabel(err)
		m.JobDurationSeconds.WithLabelValues(job, status).Observe(time.Since(start).Seconds())
		if err == nil {
			m.JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
		}
	}
}

func resultLabel(err error) string {
	if err != nil {
		return statusFailure
	}
	return statusSuccess
}
