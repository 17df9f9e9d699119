package monitor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/crawler"
	"github.com/jonesrussell/north-cloud/restock/internal/detector"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/extractor"
	"github.com/jonesrussell/north-cloud/restock/internal/frontier"
	"github.com/jonesrussell/north-cloud/restock/internal/metrics"
	"github.com/jonesrussell/north-cloud/restock/internal/monitor"
	"github.com/jonesrussell/north-cloud/restock/internal/notify"
	"github.com/jonesrussell/north-cloud/restock/internal/pipeline"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
	"github.com/jonesrussell/north-cloud/restock/testutils/catalog"
	notifymocks "github.com/jonesrussell/north-cloud/restock/testutils/mocks/notify"
	storemocks "github.com/jonesrussell/north-cloud/restock/testutils/mocks/store"
)

const testChannel = "@restock"

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedProduct(t *testing.T, s *store.Memory, p domain.Product, codes ...availability.Code) {
	t.Helper()

	ctx := context.Background()
	_, err := s.InsertProduct(ctx, &p)
	require.NoError(t, err)
	for i, code := range codes {
		require.NoError(t, s.AppendAvailability(ctx, p.ProductID, code, baseTime.Add(time.Duration(i)*time.Minute)))
	}
}

func historyCodes(t *testing.T, s store.Store, productID int64) []availability.Code {
	t.Helper()

	history, err := s.AvailabilityHistory(context.Background(), productID)
	require.NoError(t, err)
	codes := make([]availability.Code, len(history))
	for i, rec := range history {
		codes[i] = rec.Code
	}
	return codes
}

func newNotifier(t *testing.T) (*notify.Notifier, *notifymocks.MockTransport) {
	t.Helper()

	ctrl := gomock.NewController(t)
	transport := notifymocks.NewMockTransport(ctrl)
	return notify.NewNotifier(transport, testChannel, logger.NewNop()), transport
}

func TestRefresh_Process_RestockEndToEnd(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	seedProduct(t, s, domain.Product{
		Name:      "Millennium Falcon",
		Price:     1000,
		ProductID: 1,
		URL:       "https://www.lego.com/de-de/product/falcon-1",
	}, availability.TemporarilyOutOfStock)

	notifier, transport := newNotifier(t)
	transport.EXPECT().
		Send(gomock.Any(), gomock.Any(), testChannel).
		DoAndReturn(func(_ context.Context, msg, _ string) error {
			assert.Contains(t, msg, "ist wieder für 12,00€ verfügbar!")
			assert.Contains(t, msg, "#1")
			return nil
		})

	refresh := monitor.NewRefresh(nil, s, notifier, fixedClock(baseTime.Add(time.Hour)), nil, logger.NewNop())
	res := refresh.Process(context.Background(), domain.Item{
		Name:         "Millennium Falcon",
		Price:        1200,
		ProductID:    1,
		Availability: availability.Available,
		URL:          "https://www.lego.com/de-de/product/falcon-1",
	})

	require.NoError(t, res.Err)
	assert.Equal(t, pipeline.Passed, res.Outcome.Status)
	assert.Equal(t, detector.NotifyAvailable, res.Decision.Kind)
	assert.True(t, res.Notified)

	product, err := s.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), product.Price)
	assert.Equal(t,
		[]availability.Code{availability.TemporarilyOutOfStock, availability.Available},
		historyCodes(t, s, 1))
}

// steppingClock returns a clock that moves forward a minute per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func newTrackedNotifier(t *testing.T) (*notify.Notifier, *notifymocks.MockTransport) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctrl := gomock.NewController(t)
	transport := notifymocks.NewMockTransport(ctrl)
	tracker := notify.NewRedisTracker(client, notify.DefaultDedupTTL, logger.NewNop())
	return notify.NewNotifier(transport, testChannel, logger.NewNop(), notify.WithTracker(tracker)), transport
}

func TestRefresh_Process_FlappingProductIsAnnouncedEachRestock(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	seedProduct(t, s, domain.Product{Name: "Falcon", Price: 1000, ProductID: 1, URL: "u1"}, availability.SoldOut)

	notifier, transport := newTrackedNotifier(t)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), testChannel).Return(nil).Times(2)

	m := metrics.New(prometheus.NewRegistry())
	refresh := monitor.NewRefresh(nil, s, notifier, steppingClock(baseTime.Add(time.Hour)), m, logger.NewNop())

	steps := []struct {
		code     availability.Code
		kind     detector.Kind
		notified bool
	}{
		{availability.Available, detector.NotifyAvailable, true},
		{availability.SoldOut, detector.Transition, false},
		{availability.Available, detector.NotifyAvailable, true},
	}
	for _, step := range steps {
		res := refresh.Process(context.Background(), domain.Item{
			Name: "Falcon", Price: 1000, ProductID: 1, Availability: step.code, URL: "u1",
		})
		require.NoError(t, res.Err)
		assert.Equal(t, step.kind, res.Decision.Kind)
		assert.Equal(t, step.notified, res.Notified)
		assert.False(t, res.Suppressed)
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("notify_available", "success")), 0)
}

func TestEvaluate_AlreadyAnnouncedTransitionIsSuppressed(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	seedProduct(t, s, domain.Product{Name: "Falcon", Price: 1000, ProductID: 1, URL: "u1"}, availability.SoldOut)

	notifier, transport := newTrackedNotifier(t)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), testChannel).Return(nil).Times(1)

	m := metrics.New(prometheus.NewRegistry())
	refresh := monitor.NewRefresh(nil, s, notifier, fixedClock(baseTime.Add(time.Hour)), m, logger.NewNop())
	res := refresh.Process(context.Background(), domain.Item{
		Name: "Falcon", Price: 1000, ProductID: 1, Availability: availability.Available, URL: "u1",
	})
	require.True(t, res.Notified)

	report, err := monitor.NewEvaluate(s, notifier, m, logger.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.Notified)
	assert.Equal(t, int64(1), report.Suppressed)
	assert.Equal(t, int64(0), report.NotifyFailures)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("notify_available", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("notify_available", "suppressed")), 0)
}

func TestRefresh_Process_SameProductConcurrently(t *testing.T) {
	t.Parallel()

	const workers = 8

	s := store.NewMemory()
	seedProduct(t, s, domain.Product{Name: "Falcon", Price: 1000, ProductID: 1, URL: "u1"}, availability.SoldOut)

	// Only the first Available sample follows SoldOut. Interleaved workers
	// would see two new samples at once and miss it, or both announce it.
	notifier, transport := newNotifier(t)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), testChannel).Return(nil).Times(1)

	refresh := monitor.NewRefresh(nil, s, notifier, fixedClock(baseTime.Add(time.Hour)), nil, logger.NewNop())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		notified int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := refresh.Process(context.Background(), domain.Item{
				Name: "Falcon", Price: 1000, ProductID: 1, Availability: availability.Available, URL: "u1",
			})
			assert.NoError(t, res.Err)
			if res.Notified {
				mu.Lock()
				notified++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, notified)
	assert.Len(t, historyCodes(t, s, 1), workers+1)
}

func TestRefresh_Process_UnknownProductIsDropped(t *testing.T) {
	t.Parallel()

	notifier, _ := newNotifier(t)
	refresh := monitor.NewRefresh(nil, store.NewMemory(), notifier, fixedClock(baseTime), nil, logger.NewNop())

	res := refresh.Process(context.Background(), domain.Item{ProductID: 9, Availability: availability.Available})

	assert.Equal(t, pipeline.Dropped, res.Outcome.Status)
	assert.Equal(t, pipeline.ReasonUnknown, res.Outcome.Reason)
	assert.False(t, res.Notified)
}

func TestRefresh_Process_TransitionWithoutNotification(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	seedProduct(t, s, domain.Product{Name: "X-Wing", Price: 100, ProductID: 2, URL: "u2"}, availability.Available)

	notifier, _ := newNotifier(t)
	refresh := monitor.NewRefresh(nil, s, notifier, fixedClock(baseTime.Add(time.Hour)), nil, logger.NewNop())

	res := refresh.Process(context.Background(), domain.Item{
		Name: "X-Wing", Price: 100, ProductID: 2, Availability: availability.TemporarilyOutOfStock, URL: "u2",
	})

	require.NoError(t, res.Err)
	assert.Equal(t, detector.Transition, res.Decision.Kind)
	assert.False(t, res.Notified)
}

func TestRefresh_Process_TransportFailure(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	seedProduct(t, s, domain.Product{Name: "AT-AT", Price: 100, ProductID: 3, URL: "u3"}, availability.SoldOut)

	notifier, transport := newNotifier(t)
	transport.EXPECT().Send(gomock.Any(), gomock.Any(), testChannel).Return(errors.New("bad gateway"))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	refresh := monitor.NewRefresh(nil, s, notifier, fixedClock(baseTime.Add(time.Hour)), m, logger.NewNop())

	res := refresh.Process(context.Background(), domain.Item{
		Name: "AT-AT", Price: 100, ProductID: 3, Availability: availability.Backorder, URL: "u3",
	})

	assert.Equal(t, detector.NotifyBackorder, res.Decision.Kind)
	assert.True(t, res.NotifyFailed)
	require.ErrorIs(t, res.Err, notify.ErrTransport)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("notify_backorder", "failure")), 0)
}

func TestRefresh_Run_ListFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	s := storemocks.NewMockStore(ctrl)
	s.EXPECT().ListProductURLs(gomock.Any()).Return(nil, errors.New("connection refused"))

	notifier, _ := newNotifier(t)
	refresh := monitor.NewRefresh(nil, s, notifier, nil, nil, logger.NewNop())

	report, err := refresh.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, monitor.JobRefresh, report.Job)
	assert.NotEmpty(t, report.RunID)
}

func TestRefresh_Run_EmptyStore(t *testing.T) {
	t.Parallel()

	notifier, _ := newNotifier(t)
	refresh := monitor.NewRefresh(nil, store.NewMemory(), notifier, nil, nil, logger.NewNop())

	report, err := refresh.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Crawl.Pages)
}

func newCatalogCrawler(t *testing.T) *crawler.Crawler {
	t.Helper()

	f, err := frontier.New([]string{`^http://127\.0\.0\.1:\d+/de-de/`}, []string{`\.\w{1,3}$`, `@`})
	require.NoError(t, err)
	ext := extractor.New(extractor.DefaultSelectors(), logger.NewNop())
	return crawler.New(crawler.Config{Parallelism: 2}, ext, f, logger.NewNop())
}

var catalogProducts = []catalog.Product{
	{Slug: "falcon-75192", Name: "Millennium Falcon", ID: "75192", Price: "849,99 €", Status: "Ausverkauft"},
	{Slug: "x-wing-75355", Name: "X-Wing", ID: "75355", Price: "239,99 €", Status: "Jetzt verfügbar"},
}

func TestDiscoveryThenRefresh_AgainstCatalog(t *testing.T) {
	t.Parallel()

	srv := catalog.NewServer(catalogProducts...)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	s := store.NewMemory()
	c := newCatalogCrawler(t)

	discovery := monitor.NewDiscovery(c, s, []string{srv.SeedURL()}, nil, logger.NewNop())
	report, err := discovery.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Passed)

	ids, err := s.ListProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{75192, 75355}, ids)

	// A second discovery finds nothing new.
	report, err = discovery.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Passed)
	assert.Equal(t, int64(2), report.Dropped)

	notifier, transport := newNotifier(t)
	refresh := monitor.NewRefresh(c, s, notifier, nil, nil, logger.NewNop())

	// First refresh only records the current state.
	report, err = refresh.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Passed)
	assert.Zero(t, report.Notified)

	srv.SetStatus("falcon-75192", "Jetzt verfügbar")
	srv.SetPrice("falcon-75192", "799,99 €")
	transport.EXPECT().
		Send(gomock.Any(), gomock.Any(), testChannel).
		DoAndReturn(func(_ context.Context, msg, _ string) error {
			assert.Contains(t, msg, "Millennium Falcon")
			assert.Contains(t, msg, "799,99€")
			return nil
		})

	report, err = refresh.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Notified)
	assert.Equal(t,
		[]availability.Code{availability.SoldOut, availability.Available},
		historyCodes(t, s, 75192))
}

func TestDiscovery_NoSeeds(t *testing.T) {
	t.Parallel()

	discovery := monitor.NewDiscovery(newCatalogCrawler(t), store.NewMemory(), nil, nil, logger.NewNop())
	_, err := discovery.Run(context.Background())
	require.ErrorIs(t, err, monitor.ErrNoSeeds)
}

func TestEvaluate_NotifiesLatestTransitions(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	seedProduct(t, s, domain.Product{Name: "Restocked", Price: 1999, ProductID: 10, URL: "u10"},
		availability.SoldOut, availability.Available)
	seedProduct(t, s, domain.Product{Name: "Steady", Price: 999, ProductID: 11, URL: "u11"},
		availability.Available, availability.Available)
	seedProduct(t, s, domain.Product{Name: "Fresh", Price: 999, ProductID: 12, URL: "u12"},
		availability.Available)

	notifier, transport := newNotifier(t)
	transport.EXPECT().
		Send(gomock.Any(), gomock.Any(), testChannel).
		DoAndReturn(func(_ context.Context, msg, _ string) error {
			assert.Contains(t, msg, "Restocked")
			assert.Contains(t, msg, "19,99€")
			return nil
		})

	report, err := monitor.NewEvaluate(s, notifier, nil, logger.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Passed)
	assert.Equal(t, int64(1), report.Notified)
}

func TestPrune_DeletesAtAndBeforeCutoff(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	seedProduct(t, s, domain.Product{Name: "P", Price: 1, ProductID: 20, URL: "u20"})

	now := baseTime.Add(60 * 24 * time.Hour)
	cutoff := now.Add(-monitor.DefaultMaxAge)
	for _, ts := range []time.Time{cutoff.Add(-time.Hour), cutoff, cutoff.Add(time.Second), now} {
		require.NoError(t, s.AppendAvailability(ctx, 20, availability.Available, ts))
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	report, err := monitor.NewPrune(s, monitor.DefaultMaxAge, fixedClock(now), m, logger.NewNop()).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Pruned)
	assert.InDelta(t, 2, testutil.ToFloat64(m.PrunedRecordsTotal), 0)

	history, err := s.AvailabilityHistory(ctx, 20)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, rec := range history {
		assert.True(t, rec.Timestamp.After(cutoff))
	}
}

func TestPrune_RejectsNonPositiveMaxAge(t *testing.T) {
	t.Parallel()

	_, err := monitor.NewPrune(store.NewMemory(), 0, nil, nil, logger.NewNop()).Run(context.Background())
	require.ErrorIs(t, err, monitor.ErrInvalidMaxAge)
}
