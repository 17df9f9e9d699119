// Package extractor turns a fetched product page into a domain.Item.
package extractor

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/frontier"
	"github.com/jonesrussell/north-cloud/restock/internal/normalize"
)

// Selectors locates the product fields on a page and recognizes product and
// retired-product pages.
type Selectors struct {
	Name         string `yaml:"name"`
	Price        string `yaml:"price"`
	ProductID    string `yaml:"product_id"`
	Availability string `yaml:"availability"`
	// ProductPath must occur in the URL of a product page.
	ProductPath string `yaml:"product_path"`
	// RetiredMarker in the availability text marks a product that left the
	// catalog.
	RetiredMarker string `yaml:"retired_marker"`
}

// DefaultSelectors returns the selectors of the German storefront.
func DefaultSelectors() Selectors {
	return Selectors{
		Name:          ".eqJexe .hlipzx",
		Price:         ".eGdbAY",
		ProductID:     ".ProductDetailsstyles__ProductID-sc-16lgx7x-10.bIKuiP",
		Availability:  ".ejRirH .hlipzx",
		ProductPath:   "de-de/product",
		RetiredMarker: "Altes Produkt",
	}
}

// SetDefaults fills empty selectors from DefaultSelectors.
func (s *Selectors) SetDefaults() {
	d := DefaultSelectors()
	setDefault(&s.Name, d.Name)
	setDefault(&s.Price, d.Price)
	setDefault(&s.ProductID, d.ProductID)
	setDefault(&s.Availability, d.Availability)
	setDefault(&s.ProductPath, d.ProductPath)
	setDefault(&s.RetiredMarker, d.RetiredMarker)
}

func setDefault(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Extractor reads product items from pages.
type Extractor struct {
	sel    Selectors
	logger logger.Logger
}

// New creates an Extractor.
func New(sel Selectors, log logger.Logger) *Extractor {
	return &Extractor{sel: sel, logger: log}
}

// Extract returns the item on page. ok is false for pages that are not
// current product pages; err is non-nil when a product page carries an
// unrecognized status or identifier.
func (e *Extractor) Extract(page Page) (item domain.Item, ok bool, err error) {
	pageURL := page.URL()

	if !strings.Contains(pageURL, e.sel.ProductPath) {
		return domain.Item{}, false, nil
	}

	name := page.Text(e.sel.Name)
	if name == "" {
		e.logger.Debug("Product page without name", logger.String("url", pageURL))
		return domain.Item{}, false, nil
	}

	statusText := page.Text(e.sel.Availability)
	if e.sel.RetiredMarker != "" && strings.Contains(statusText, e.sel.RetiredMarker) {
		e.logger.Debug("Skipping retired product",
			logger.String("url", pageURL),
			logger.String("name", name),
		)
		return domain.Item{}, false, nil
	}

	code, err := availability.CodeFromText(statusText)
	if err != nil {
		return domain.Item{}, false, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	productID, err := normalize.ParseIdentifier(page.Text(e.sel.ProductID))
	if err != nil {
		return domain.Item{}, false, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	canonical, normErr := frontier.NormalizeURL(pageURL)
	if normErr != nil {
		canonical = pageURL
	}

	item = domain.Item{
		Name:         name,
		Price:        normalize.ParsePrice(page.Text(e.sel.Price)),
		ProductID:    productID,
		Availability: code,
		URL:          canonical,
	}

	e.logger.Debug("Extracted product",
		logger.Int64("product_id", item.ProductID),
		logger.String("availability", code.String()),
		logger.Int64("price", item.Price),
	)

	return item, true, nil
}
