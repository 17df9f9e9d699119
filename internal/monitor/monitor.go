// Package monitor wires crawler, pipeline, detector and notifier into the
// restock jobs: discovery, refresh, evaluate and prune.
package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/crawler"
	"github.com/jonesrussell/north-cloud/restock/internal/detector"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/metrics"
	"github.com/jonesrussell/north-cloud/restock/internal/pipeline"
)

// Job names, used in logs and metric labels.
const (
	JobDiscover = "discover"
	JobRefresh  = "refresh"
	JobEvaluate = "evaluate"
	JobPrune    = "prune"
)

// Crawler fetches pages and hands extracted items to handle.
type Crawler interface {
	Run(ctx context.Context, seeds []string, follow bool, handle crawler.ItemHandler) (crawler.Stats, error)
}

// Notifier sends the message for a detector decision.
type Notifier interface {
	Notify(ctx context.Context, d detector.Decision, p *domain.Product) error
}

// Report summarizes one job run.
type Report struct {
	Job      string
	RunID    string
	Started  time.Time
	Duration time.Duration

	Crawl crawler.Stats

	Passed  int64
	Dropped int64
	Failed  int64

	Notified       int64
	NotifyFailures int64
	// Suppressed counts notifications the tracker held back as already sent.
	Suppressed int64

	Pruned int64
}

// tally collects per-item counts from colly's goroutines.
type tally struct {
	passed, dropped, failed              atomic.Int64
	notified, notifyFailures, suppressed atomic.Int64
}

func (t *tally) record(status pipeline.Status) {
	switch status {
	case pipeline.Passed:
		t.passed.Add(1)
	case pipeline.Dropped:
		t.dropped.Add(1)
	case pipeline.Failed:
		t.failed.Add(1)
	}
}

func (t *tally) fill(r *Report) {
	r.Passed = t.passed.Load()
	r.Dropped = t.dropped.Load()
	r.Failed = t.failed.Load()
	r.Notified = t.notified.Load()
	r.NotifyFailures = t.notifyFailures.Load()
	r.Suppressed = t.suppressed.Load()
}

// recordNotify counts what the notifier did with res.
func (t *tally) recordNotify(res ItemResult) {
	switch {
	case res.Notified:
		t.notified.Add(1)
	case res.Suppressed:
		t.suppressed.Add(1)
	case res.NotifyFailed:
		t.notifyFailures.Add(1)
	}
}

// run is one job execution with its own run ID and logger.
type run struct {
	report  Report
	logger  logger.Logger
	finish  func(error)
	metrics *metrics.Metrics
}

func startRun(job string, m *metrics.Metrics, log logger.Logger) *run {
	id := uuid.NewString()
	r := &run{
		report: Report{
			Job:     job,
			RunID:   id,
			Started: time.Now(),
		},
		logger:  log.With(logger.Job(job), logger.RunID(id)),
		finish:  m.StartJob(job),
		metrics: m,
	}
	r.logger.Info("Job started")
	return r
}

// done records the run result and returns the final report.
func (r *run) done(err error) Report {
	r.report.Duration = time.Since(r.report.Started)
	r.finish(err)

	fields := []logger.Field{
		logger.Duration("duration", r.report.Duration),
		logger.Int64("pages", r.report.Crawl.Pages),
		logger.Int64("items", r.report.Crawl.Items),
		logger.Int64("passed", r.report.Passed),
		logger.Int64("dropped", r.report.Dropped),
		logger.Int64("failed", r.report.Failed),
		logger.Int64("notified", r.report.Notified),
		logger.Int64("suppressed", r.report.Suppressed),
	}
	if err != nil {
		r.logger.Error("Job failed", append(fields, logger.Error(err))...)
	} else {
		r.logger.Info("Job finished", fields...)
	}
	return r.report
}

func (r *run) recordCrawl(stats crawler.Stats) {
	r.report.Crawl = stats
	r.metrics.RecordCrawl(r.report.Job, stats.Pages, stats.Items, stats.ExtractErrors, stats.FetchErrors)
}
