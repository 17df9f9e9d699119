// Package domain holds the records shared by the crawl, pipeline, storage and
// notification packages.
package domain

import (
	"time"

	"github.com/jonesrussell/north-cloud/restock/internal/availability"
)

// Product is a catalog product as stored. Price is in minor currency units.
type Product struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Price     int64     `db:"price"`
	ProductID int64     `db:"product_id"`
	URL       string    `db:"url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AvailabilityRecord is one availability sample. Records are append-only.
type AvailabilityRecord struct {
	ID        int64             `db:"id"`
	ProductID int64             `db:"product_id"`
	Code      availability.Code `db:"availability"`
	Timestamp time.Time         `db:"timestamp"`
}

// Item is the set of fields extracted from one product page.
type Item struct {
	Name         string
	Price        int64
	ProductID    int64
	Availability availability.Code
	URL          string
}

// Product converts the item into an unsaved product.
func (i Item) Product() *Product {
	return &Product{
		Name:      i.Name,
		Price:     i.Price,
		ProductID: i.ProductID,
		URL:       i.URL,
	}
}
