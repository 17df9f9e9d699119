// Package store defines the persistence contract for products and their
// availability history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
)

var (
	// ErrNotFound is returned when no product has the requested identifier.
	ErrNotFound = errors.New("product not found")
	// ErrUniqueViolation is returned when a product with the same identifier or
	// URL already exists.
	ErrUniqueViolation = errors.New("product already exists")
)

// Store persists products and availability samples. Implementations are safe
// for concurrent use.
type Store interface {
	// InsertProduct stores p and returns its surrogate id.
	InsertProduct(ctx context.Context, p *domain.Product) (int64, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	UpdateProductPrice(ctx context.Context, productID, price int64) error
	AppendAvailability(ctx context.Context, productID int64, code availability.Code, ts time.Time) error
	// AvailabilityHistory returns the samples of a product ordered by
	// (timestamp, id) ascending.
	AvailabilityHistory(ctx context.Context, productID int64) ([]domain.AvailabilityRecord, error)
	// DeleteAvailabilityBefore removes every sample with timestamp <= cutoff
	// and returns how many were removed.
	DeleteAvailabilityBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListProductIDs(ctx context.Context) ([]int64, error)
	ListProductURLs(ctx context.Context) ([]string, error)
}
