package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/detector"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/metrics"
	"github.com/jonesrussell/north-cloud/restock/internal/notify"
	"github.com/jonesrussell/north-cloud/restock/internal/pipeline"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// ItemResult is what the refresh job did with one item.
type ItemResult struct {
	Outcome  pipeline.Outcome
	Decision detector.Decision
	// Notified is set when the notifier sent the message.
	Notified bool
	// Suppressed is set when the transition had already been announced.
	Suppressed bool
	// NotifyFailed is set when the notifier rejected the decision.
	NotifyFailed bool
	// Err is a history, product lookup or notification failure after the
	// chain passed.
	Err error
}

// Refresh re-fetches every stored product page, records its availability
// and notifies on transitions worth a message.
type Refresh struct {
	crawler  Crawler
	store    store.Store
	notifier Notifier
	chain    *pipeline.Chain
	locks    *pipeline.KeyedMutex
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewRefresh creates the refresh job. The chain is RequireExistingProduct ->
// UpdatePrice -> RecordAvailability stamped with clock.
func NewRefresh(
	c Crawler,
	s store.Store,
	n Notifier,
	clock func() time.Time,
	m *metrics.Metrics,
	log logger.Logger,
) *Refresh {
	if clock == nil {
		clock = time.Now
	}
	return &Refresh{
		crawler:  c,
		store:    s,
		notifier: n,
		chain:    pipeline.NewChain("refresh", s, log, pipeline.RefreshStages(clock)...),
		locks:    pipeline.NewKeyedMutex(),
		metrics:  m,
		logger:   log,
	}
}

// Run refreshes every stored product URL. Links are not followed.
func (r *Refresh) Run(ctx context.Context) (Report, error) {
	rn := startRun(JobRefresh, r.metrics, r.logger)

	urls, err := r.store.ListProductURLs(ctx)
	if err != nil {
		err = fmt.Errorf("list product urls: %w", err)
		return rn.done(err), err
	}
	if len(urls) == 0 {
		rn.logger.Info("No products stored, nothing to refresh")
		return rn.done(nil), nil
	}

	var counts tally
	stats, err := r.crawler.Run(ctx, urls, false, func(ctx context.Context, item domain.Item) {
		res := r.process(ctx, item, rn.logger)
		counts.record(res.Outcome.Status)
		counts.recordNotify(res)
	})
	rn.recordCrawl(stats)
	counts.fill(&rn.report)

	return rn.done(err), err
}

// Process runs one item through the refresh chain and, when it passed, the
// detector and notifier. Work for one product is serialized.
func (r *Refresh) Process(ctx context.Context, item domain.Item) ItemResult {
	return r.process(ctx, item, r.logger)
}

func (r *Refresh) process(ctx context.Context, item domain.Item, log logger.Logger) ItemResult {
	unlock := r.locks.Lock(item.ProductID)
	defer unlock()

	out := r.chain.Run(ctx, item)
	r.metrics.RecordOutcome(r.chain.Name(), out.Stage, out.Status.String())
	res := ItemResult{Outcome: out}
	if out.Status != pipeline.Passed {
		return res
	}

	history, err := r.store.AvailabilityHistory(ctx, item.ProductID)
	if err != nil {
		res.Err = fmt.Errorf("availability history %d: %w", item.ProductID, err)
		log.Error("Failed to load availability history", logger.ProductID(item.ProductID), logger.Error(err))
		return res
	}

	res.Decision = detector.Evaluate(history)
	if !res.Decision.Notify() {
		if res.Decision.Kind == detector.Transition {
			log.Info("Availability changed",
				logger.ProductID(item.ProductID),
				logger.String("from", res.Decision.From.String()),
				logger.String("to", res.Decision.To.String()),
			)
		}
		return res
	}

	return notifyProduct(ctx, r.store, r.notifier, r.metrics, res, item.ProductID, log)
}

// notifyProduct loads the product and hands the decision to the notifier.
func notifyProduct(
	ctx context.Context,
	s store.Store,
	n Notifier,
	m *metrics.Metrics,
	res ItemResult,
	productID int64,
	log logger.Logger,
) ItemResult {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		log.Error("Failed to load product for notification", logger.ProductID(productID), logger.Error(err))
		res.Err = fmt.Errorf("get product %d: %w", productID, err)
		return res
	}

	kind := res.Decision.Kind.String()
	err = n.Notify(ctx, res.Decision, product)
	if errors.Is(err, notify.ErrSuppressed) {
		m.RecordSuppressed(kind)
		res.Suppressed = true
		return res
	}
	m.RecordNotification(kind, err)
	if err != nil {
		log.Error("Notification failed",
			logger.ProductID(productID),
			logger.String("decision", kind),
			logger.Error(err),
		)
		res.NotifyFailed = true
		res.Err = err
		return res
	}

	res.Notified = true
	return res
}
