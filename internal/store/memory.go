package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
)

// Memory is an in-process Store used by tests and dry runs.
type Memory struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	urls     map[string]int64
	history  []domain.AvailabilityRecord
	nextID   int64
	nextRec  int64
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		products: make(map[int64]*domain.Product),
		urls:     make(map[string]int64),
		now:      time.Now,
	}
}

func (m *Memory) InsertProduct(_ context.Context, p *domain.Product) (int64, error) {
	if p.Price < 0 {
		return 0, fmt.Errorf("insert product %d: negative price %d", p.ProductID, p.Price)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ProductID]; ok {
		return 0, fmt.Errorf("insert product %d: %w", p.ProductID, ErrUniqueViolation)
	}
	if _, ok := m.urls[p.URL]; ok {
		return 0, fmt.Errorf("insert product url %s: %w", p.URL, ErrUniqueViolation)
	}

	m.nextID++
	now := m.now().UTC()
	stored := *p
	stored.ID = m.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.products[p.ProductID] = &stored
	m.urls[p.URL] = p.ProductID

	return stored.ID, nil
}

func (m *Memory) ProductExists(_ context.Context, productID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.products[productID]
	return ok, nil
}

func (m *Memory) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[productID]
	if !ok {
		return nil, fmt.Errorf("get product %d: %w", productID, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) UpdateProductPrice(_ context.Context, productID, price int64) error {
	if price < 0 {
		return fmt.Errorf("update price of %d: negative price %d", productID, price)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("update price of %d: %w", productID, ErrNotFound)
	}
	p.Price = price
	p.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) AppendAvailability(_ context.Context, productID int64, code availability.Code, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[productID]; !ok {
		return fmt.Errorf("append availability for %d: %w", productID, ErrNotFound)
	}

	m.nextRec++
	m.history = append(m.history, domain.AvailabilityRecord{
		ID:        m.nextRec,
		ProductID: productID,
		Code:      code,
		Timestamp: ts,
	})
	return nil
}

func (m *Memory) AvailabilityHistory(_ context.Context, productID int64) ([]domain.AvailabilityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.AvailabilityRecord
	for _, rec := range m.history {
		if rec.ProductID == productID {
			out = append(out, rec)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.AvailabilityRecord) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmpInt64(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) DeleteAvailabilityBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.history)
	m.history = slices.DeleteFunc(m.history, func(rec domain.AvailabilityRecord) bool {
		return !rec.Timestamp.After(cutoff)
	})
	return int64(before - len(m.history)), nil
}

func (m *Memory) ListProductIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *Memory) ListProductURLs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b *domain.Product) int { return cmpInt64(a.ID, b.ID) })

	urls := make([]string, len(products))
	for i, p := range products {
		urls[i] = p.URL
	}
	return urls, nil
}

// ListProducts returns a copy of every stored product ordered by name.
func (m *Memory) ListProducts(_ context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpInt64(a.ProductID, b.ProductID)
	})
	return out, nil
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
