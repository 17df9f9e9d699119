package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/pipeline"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
	storemocks "github.com/jonesrussell/north-cloud/restock/testutils/mocks/store"
)

func sampleItem() domain.Item {
	return domain.Item{
		Name:         "Millennium Falcon",
		Price:        84999,
		ProductID:    75192,
		Availability: availability.Available,
		URL:          "https://www.lego.com/de-de/product/millennium-falcon-75192",
	}
}

func TestChain_RunsStagesInOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	record := func(name string) pipeline.Stage {
		return pipeline.NewStage(name, func(_ context.Context, item domain.Item, _ store.Store) (pipeline.Result, error) {
			calls = append(calls, name)
			item.Name += "+" + name
			return pipeline.Pass(item), nil
		})
	}

	chain := pipeline.NewChain("test", store.NewMemory(), logger.NewNop(), record("a"), record("b"), record("c"))
	out := chain.Run(context.Background(), sampleItem())

	assert.Equal(t, pipeline.Passed, out.Status)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.Equal(t, "Millennium Falcon+a+b+c", out.Item.Name)
	assert.Empty(t, out.Stage)
	assert.Equal(t, []string{"a", "b", "c"}, chain.Stages())
}

func TestChain_DropShortCircuits(t *testing.T) {
	t.Parallel()

	reached := false
	chain := pipeline.NewChain("test", store.NewMemory(), logger.NewNop(),
		pipeline.NewStage("drop", func(context.Context, domain.Item, store.Store) (pipeline.Result, error) {
			return pipeline.Drop("nope"), nil
		}),
		pipeline.NewStage("after", func(_ context.Context, item domain.Item, _ store.Store) (pipeline.Result, error) {
			reached = true
			return pipeline.Pass(item), nil
		}),
	)

	out := chain.Run(context.Background(), sampleItem())

	assert.Equal(t, pipeline.Dropped, out.Status)
	assert.Equal(t, "drop", out.Stage)
	assert.Equal(t, "nope", out.Reason)
	assert.False(t, reached)
}

func TestChain_ErrorFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection lost")
	chain := pipeline.NewChain("test", store.NewMemory(), logger.NewNop(),
		pipeline.NewStage("broken", func(context.Context, domain.Item, store.Store) (pipeline.Result, error) {
			return pipeline.Result{}, boom
		}),
	)

	out := chain.Run(context.Background(), sampleItem())

	assert.Equal(t, pipeline.Failed, out.Status)
	assert.Equal(t, "broken", out.Stage)
	require.ErrorIs(t, out.Err, boom)
	assert.Equal(t, "failed", out.Status.String())
}

func TestChain_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := pipeline.NewChain("discovery", store.NewMemory(), logger.NewNop(), pipeline.DiscoveryStages()...)
	out := chain.Run(ctx, sampleItem())

	assert.Equal(t, pipeline.Failed, out.Status)
	require.ErrorIs(t, out.Err, context.Canceled)
}

func TestDedup_DropsExistingProduct(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().ProductExists(gomock.Any(), int64(75192)).Return(true, nil)

	res, err := pipeline.Dedup().Process(context.Background(), sampleItem(), mockStore)

	require.NoError(t, err)
	assert.True(t, res.Dropped)
	assert.Equal(t, pipeline.ReasonDuplicate, res.Reason)
}

func TestDedup_PassesNewProduct(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().ProductExists(gomock.Any(), int64(75192)).Return(false, nil)

	res, err := pipeline.Dedup().Process(context.Background(), sampleItem(), mockStore)

	require.NoError(t, err)
	assert.False(t, res.Dropped)
	assert.Equal(t, sampleItem(), res.Item)
}

func TestCreateProduct_UniqueViolationIsDuplicate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().
		InsertProduct(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *domain.Product) (int64, error) {
			assert.Equal(t, int64(75192), p.ProductID)
			return 0, store.ErrUniqueViolation
		})

	res, err := pipeline.CreateProduct().Process(context.Background(), sampleItem(), mockStore)

	require.NoError(t, err)
	assert.True(t, res.Dropped)
	assert.Equal(t, pipeline.ReasonDuplicate, res.Reason)
}

func TestCreateProduct_StoreError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().InsertProduct(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("disk full"))

	_, err := pipeline.CreateProduct().Process(context.Background(), sampleItem(), mockStore)

	require.Error(t, err)
}

func TestRequireExistingProduct(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockStore := storemocks.NewMockStore(ctrl)
	gomock.InOrder(
		mockStore.EXPECT().ProductExists(gomock.Any(), int64(75192)).Return(false, nil),
		mockStore.EXPECT().ProductExists(gomock.Any(), int64(75192)).Return(true, nil),
	)

	stage := pipeline.RequireExistingProduct()

	res, err := stage.Process(context.Background(), sampleItem(), mockStore)
	require.NoError(t, err)
	assert.True(t, res.Dropped)
	assert.Equal(t, pipeline.ReasonUnknown, res.Reason)

	res, err = stage.Process(context.Background(), sampleItem(), mockStore)
	require.NoError(t, err)
	assert.False(t, res.Dropped)
}

func TestUpdatePrice_NotFoundIsUnknown(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockStore := storemocks.NewMockStore(ctrl)
	mockStore.EXPECT().UpdateProductPrice(gomock.Any(), int64(75192), int64(84999)).Return(store.ErrNotFound)

	res, err := pipeline.UpdatePrice().Process(context.Background(), sampleItem(), mockStore)

	require.NoError(t, err)
	assert.True(t, res.Dropped)
	assert.Equal(t, pipeline.ReasonUnknown, res.Reason)
}

func TestRefreshChain_AgainstMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	now := func() time.Time { return time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC) }
	refresh := pipeline.NewChain("refresh", mem, logger.NewNop(), pipeline.RefreshStages(now)...)

	out := refresh.Run(ctx, sampleItem())
	assert.Equal(t, pipeline.Dropped, out.Status)
	assert.Equal(t, "require_existing", out.Stage)

	discovery := pipeline.NewChain("discovery", mem, logger.NewNop(), pipeline.DiscoveryStages()...)
	require.Equal(t, pipeline.Passed, discovery.Run(ctx, sampleItem()).Status)
	dup := discovery.Run(ctx, sampleItem())
	assert.Equal(t, pipeline.Dropped, dup.Status)
	assert.Equal(t, "dedup", dup.Stage)

	updated := sampleItem()
	updated.Price = 79999
	updated.Availability = availability.SoldOut
	require.Equal(t, pipeline.Passed, refresh.Run(ctx, updated).Status)

	p, err := mem.GetProduct(ctx, 75192)
	require.NoError(t, err)
	assert.Equal(t, int64(79999), p.Price)

	history, err := mem.AvailabilityHistory(ctx, 75192)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, availability.SoldOut, history[0].Code)
	assert.Equal(t, now(), history[0].Timestamp)
}
