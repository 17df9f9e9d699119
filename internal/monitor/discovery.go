package monitor

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/metrics"
	"github.com/jonesrussell/north-cloud/restock/internal/pipeline"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// ErrNoSeeds is returned when discovery has nowhere to start.
var ErrNoSeeds = errors.New("no seed URLs configured")

// Discovery crawls the catalog from its seed pages and stores every product
// not seen before.
type Discovery struct {
	crawler Crawler
	chain   *pipeline.Chain
	seeds   []string
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewDiscovery creates the discovery job. The chain is Dedup -> CreateProduct.
func NewDiscovery(c Crawler, s store.Store, seeds []string, m *metrics.Metrics, log logger.Logger) *Discovery {
	return &Discovery{
		crawler: c,
		chain:   pipeline.NewChain("discovery", s, log, pipeline.DiscoveryStages()...),
		seeds:   append([]string(nil), seeds...),
		metrics: m,
		logger:  log,
	}
}

// Run performs one discovery crawl.
func (d *Discovery) Run(ctx context.Context) (Report, error) {
	r := startRun(JobDiscover, d.metrics, d.logger)
	if len(d.seeds) == 0 {
		return r.done(ErrNoSeeds), ErrNoSeeds
	}

	var counts tally
	stats, err := d.crawler.Run(ctx, d.seeds, true, func(ctx context.Context, item domain.Item) {
		out := d.chain.Run(ctx, item)
		counts.record(out.Status)
		d.metrics.RecordOutcome(d.chain.Name(), out.Stage, out.Status.String())
		if out.Status == pipeline.Passed {
			r.logger.Info("Product discovered",
				logger.ProductID(item.ProductID),
				logger.String("name", item.Name),
				logger.URL(item.URL),
			)
		}
	})
	r.recordCrawl(stats)
	counts.fill(&r.report)

	return r.done(err), err
}
