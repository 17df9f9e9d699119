// Package crawler drives colly over catalog pages and hands every extracted
// product item to a handler.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/extractor"
	"github.com/jonesrussell/north-cloud/restock/internal/frontier"
)

// Extractor reads an item from a page.
type Extractor interface {
	Extract(page extractor.Page) (domain.Item, bool, error)
}

// ItemHandler receives every extracted item. It runs on colly's goroutines and
// must be safe for concurrent use.
type ItemHandler func(ctx context.Context, item domain.Item)

// Stats summarizes one crawl.
type Stats struct {
	Pages         int64
	Items         int64
	Skipped       int64
	ExtractErrors int64
	FetchErrors   int64
}

type counters struct {
	pages, items, skipped, extractErrors, fetchErrors atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Pages:         c.pages.Load(),
		Items:         c.items.Load(),
		Skipped:       c.skipped.Load(),
		ExtractErrors: c.extractErrors.Load(),
		FetchErrors:   c.fetchErrors.Load(),
	}
}

// Crawler runs crawls. A Crawler is reusable; every Run gets a fresh
// collector and therefore a fresh visited set.
type Crawler struct {
	cfg       Config
	extractor Extractor
	frontier  *frontier.Frontier
	logger    logger.Logger
}

// New creates a Crawler. f may be nil when Run is never asked to follow links.
func New(cfg Config, ext Extractor, f *frontier.Frontier, log logger.Logger) *Crawler {
	cfg.SetDefaults()
	return &Crawler{cfg: cfg, extractor: ext, frontier: f, logger: log}
}

// Run fetches seeds and, when follow is set, every allowed link up to the
// configured depth. It returns after all requests finished or ctx is done.
func (c *Crawler) Run(ctx context.Context, seeds []string, follow bool, handle ItemHandler) (Stats, error) {
	if follow && c.frontier == nil {
		return Stats{}, errors.New("crawler: link following requires a frontier")
	}

	var stats counters
	collector, err := c.newCollector(ctx, follow)
	if err != nil {
		return Stats{}, err
	}

	collector.OnResponseHeaders(func(r *colly.Response) {
		if r.StatusCode >= http.StatusMultipleChoices {
			return
		}
		contentType := strings.ToLower(r.Headers.Get("Content-Type"))
		if contentType != "" && !strings.Contains(contentType, "html") {
			stats.skipped.Add(1)
			r.Request.Abort()
		}
	})

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		c.logger.Debug("Visiting URL", logger.String("url", r.URL.String()))
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		stats.pages.Add(1)
		c.processPage(ctx, e, handle, &stats)
		if follow {
			c.followLinks(e)
		}
	})

	collector.OnError(func(r *colly.Response, fetchErr error) {
		if errors.Is(fetchErr, colly.ErrAbortedAfterHeaders) {
			return
		}
		stats.fetchErrors.Add(1)
		c.logFetchError(r, fetchErr)
	})

	for _, seed := range seeds {
		if visitErr := collector.Visit(seed); visitErr != nil && !isExpectedVisitError(visitErr) {
			c.logger.Warn("Failed to queue seed",
				logger.String("url", seed),
				logger.Error(visitErr),
			)
		}
	}
	collector.Wait()

	result := stats.snapshot()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("crawl interrupted: %w", ctxErr)
	}
	return result, nil
}

func (c *Crawler) newCollector(ctx context.Context, follow bool) (*colly.Collector, error) {
	maxDepth := 1
	if follow {
		maxDepth = c.cfg.MaxDepth
	}

	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.MaxDepth(maxDepth),
		colly.Async(true),
		colly.UserAgent(c.cfg.UserAgent),
	}
	if !c.cfg.RespectRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}
	if c.cfg.MaxBodySize > 0 {
		opts = append(opts, colly.MaxBodySize(c.cfg.MaxBodySize))
	}

	collector := colly.NewCollector(opts...)
	collector.SetRequestTimeout(c.cfg.RequestTimeout)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.cfg.Parallelism,
		Delay:       c.cfg.Delay,
		RandomDelay: c.cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("set crawl limit: %w", err)
	}

	c.logger.Debug("Collector configured",
		logger.Int("max_depth", maxDepth),
		logger.Int("parallelism", c.cfg.Parallelism),
		logger.Bool("follow_links", follow),
	)
	return collector, nil
}

func (c *Crawler) processPage(ctx context.Context, e *colly.HTMLElement, handle ItemHandler, stats *counters) {
	pageURL := e.Request.URL.String()
	page := extractor.NewDocumentPage(pageURL, e.DOM)

	item, ok, err := c.extractor.Extract(page)
	if err != nil {
		stats.extractErrors.Add(1)
		c.logger.Warn("Failed to extract product",
			logger.String("url", pageURL),
			logger.Error(err),
		)
		return
	}
	if !ok {
		return
	}

	stats.items.Add(1)
	if handle != nil {
		handle(ctx, item)
	}
}

func (c *Crawler) followLinks(e *colly.HTMLElement) {
	var hrefs []string
	e.DOM.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})

	for _, link := range c.frontier.Links(e.Request.URL, hrefs) {
		if canonical, err := frontier.NormalizeURL(link); err == nil {
			link = canonical
		}
		if err := e.Request.Visit(link); err != nil && !isExpectedVisitError(err) {
			c.logger.Debug("Failed to queue link",
				logger.String("url", link),
				logger.Error(err),
			)
		}
	}
}

func (c *Crawler) logFetchError(r *colly.Response, err error) {
	pageURL := ""
	status := 0
	if r != nil {
		status = r.StatusCode
		if r.Request != nil {
			pageURL = r.Request.URL.String()
		}
	}

	if status == http.StatusNotFound || status == http.StatusGone {
		c.logger.Info("Page gone",
			logger.String("url", pageURL),
			logger.Int("status", status),
		)
		return
	}
	c.logger.Warn("Fetch failed",
		logger.String("url", pageURL),
		logger.Int("status", status),
		logger.Error(err),
	)
}

// isExpectedVisitError reports refusals that are part of normal crawling.
func isExpectedVisitError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already visited") ||
		errors.Is(err, colly.ErrMaxDepth) ||
		errors.Is(err, colly.ErrForbiddenURL) ||
		errors.Is(err, colly.ErrForbiddenDomain) ||
		errors.Is(err, colly.ErrRobotsTxtBlocked) ||
		errors.Is(err, colly.ErrAbortedAfterHeaders) ||
		errors.Is(err, context.Canceled)
}
