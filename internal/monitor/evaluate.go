package monitor

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/detector"
	"github.com/jonesrussell/north-cloud/restock/internal/metrics"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// Evaluate runs the detector over every stored history without crawling and
// notifies where the latest transition asks for it. It re-sends messages lost
// while the transport was down.
type Evaluate struct {
	store    store.Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewEvaluate creates the evaluate job.
func NewEvaluate(s store.Store, n Notifier, m *metrics.Metrics, log logger.Logger) *Evaluate {
	return &Evaluate{store: s, notifier: n, metrics: m, logger: log}
}

// Run evaluates every product. A failure for one product does not stop the
// others.
func (e *Evaluate) Run(ctx context.Context) (Report, error) {
	rn := startRun(JobEvaluate, e.metrics, e.logger)

	ids, err := e.store.ListProductIDs(ctx)
	if err != nil {
		err = fmt.Errorf("list product ids: %w", err)
		return rn.done(err), err
	}

	for _, id := range ids {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rn.done(ctxErr), ctxErr
		}

		history, histErr := e.store.AvailabilityHistory(ctx, id)
		if histErr != nil {
			rn.report.Failed++
			rn.logger.Error("Failed to load availability history", logger.ProductID(id), logger.Error(histErr))
			continue
		}
		rn.report.Passed++

		decision := detector.Evaluate(history)
		if !decision.Notify() {
			continue
		}

		res := notifyProduct(ctx, e.store, e.notifier, e.metrics, ItemResult{Decision: decision}, id, rn.logger)
		switch {
		case res.Notified:
			rn.report.Notified++
		case res.Suppressed:
			rn.report.Suppressed++
		case res.NotifyFailed:
			rn.report.NotifyFailures++
		case res.Err != nil:
			rn.report.Failed++
		}
	}

	return rn.done(nil), nil
}
