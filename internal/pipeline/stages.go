package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// Drop reasons.
const (
	ReasonDuplicate = "duplicate product"
	ReasonUnknown   = "unknown product"
)

// Dedup drops items whose product is already stored.
func Dedup() Stage {
	return NewStage("dedup", func(ctx context.Context, item domain.Item, s store.Store) (Result, error) {
		exists, err := s.ProductExists(ctx, item.ProductID)
		if err != nil {
			return Result{}, fmt.Errorf("dedup: %w", err)
		}
		if exists {
			return Drop(ReasonDuplicate), nil
		}
		return Pass(item), nil
	})
}

// CreateProduct stores the item as a new product. A concurrent insert of the
// same product is reported as a duplicate drop.
func CreateProduct() Stage {
	return NewStage("create_product", func(ctx context.Context, item domain.Item, s store.Store) (Result, error) {
		_, err := s.InsertProduct(ctx, item.Product())
		if errors.Is(err, store.ErrUniqueViolation) {
			return Drop(ReasonDuplicate), nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("create product: %w", err)
		}
		return Pass(item), nil
	})
}

// RequireExistingProduct drops items whose product is not stored.
func RequireExistingProduct() Stage {
	return NewStage("require_existing", func(ctx context.Context, item domain.Item, s store.Store) (Result, error) {
		exists, err := s.ProductExists(ctx, item.ProductID)
		if err != nil {
			return Result{}, fmt.Errorf("require existing: %w", err)
		}
		if !exists {
			return Drop(ReasonUnknown), nil
		}
		return Pass(item), nil
	})
}

// UpdatePrice overwrites the stored price with the extracted one.
func UpdatePrice() Stage {
	return NewStage("update_price", func(ctx context.Context, item domain.Item, s store.Store) (Result, error) {
		err := s.UpdateProductPrice(ctx, item.ProductID, item.Price)
		if errors.Is(err, store.ErrNotFound) {
			return Drop(ReasonUnknown), nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("update price: %w", err)
		}
		return Pass(item), nil
	})
}

// RecordAvailability appends the extracted status stamped with clock().
func RecordAvailability(clock func() time.Time) Stage {
	if clock == nil {
		clock = time.Now
	}
	return NewStage("record_availability", func(ctx context.Context, item domain.Item, s store.Store) (Result, error) {
		if err := s.AppendAvailability(ctx, item.ProductID, item.Availability, clock().UTC()); err != nil {
			return Result{}, fmt.Errorf("record availability: %w", err)
		}
		return Pass(item), nil
	})
}

// DiscoveryStages is the chain for newly found product pages.
func DiscoveryStages() []Stage {
	return []Stage{Dedup(), CreateProduct()}
}

// RefreshStages is the chain for re-fetched known product pages.
func RefreshStages(clock func() time.Time) []Stage {
	return []Stage{RequireExistingProduct(), UpdatePrice(), RecordAvailability(clock)}
}
