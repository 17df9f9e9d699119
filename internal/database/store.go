package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

const (
	productsTable     = "products"
	availabilityTable = "availability"
	timestampColumn   = `"timestamp"`
)

var productColumns = []string{"id", "name", "price", "product_id", "url", "created_at", "updated_at"}

// Store implements store.Store on PostgreSQL.
type Store struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

var _ store.Store = (*Store)(nil)

// NewStore creates a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (s *Store) InsertProduct(ctx context.Context, p *domain.Product) (int64, error) {
	query, args, err := s.sb.Insert(productsTable).
		Columns("name", "price", "product_id", "url").
		Values(p.Name, p.Price, p.ProductID, p.URL).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert product: %w", err)
	}

	var id int64
	if scanErr := s.db.QueryRowxContext(ctx, query, args...).Scan(&id); scanErr != nil {
		return 0, fmt.Errorf("insert product %d: %w", p.ProductID, mapError(scanErr))
	}
	return id, nil
}

func (s *Store) ProductExists(ctx context.Context, productID int64) (bool, error) {
	query, args, err := s.sb.Select("1").
		From(productsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build product exists: %w", err)
	}

	var exists bool
	if getErr := s.db.GetContext(ctx, &exists, query, args...); getErr != nil {
		return false, fmt.Errorf("product exists %d: %w", productID, getErr)
	}
	return exists, nil
}

func (s *Store) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	query, args, err := s.sb.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get product: %w", err)
	}

	var p domain.Product
	if getErr := s.db.GetContext(ctx, &p, query, args...); getErr != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, mapError(getErr))
	}
	return &p, nil
}

func (s *Store) UpdateProductPrice(ctx context.Context, productID, price int64) error {
	query, args, err := s.sb.Update(productsTable).
		Set("price", price).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update price: %w", err)
	}

	result, execErr := s.db.ExecContext(ctx, query, args...)
	if reqErr := execRequireRows(result, execErr, store.ErrNotFound); reqErr != nil {
		return fmt.Errorf("update price of %d: %w", productID, mapError(reqErr))
	}
	return nil
}

func (s *Store) AppendAvailability(ctx context.Context, productID int64, code availability.Code, ts time.Time) error {
	query, args, err := s.sb.Insert(availabilityTable).
		Columns("product_id", "availability", timestampColumn).
		Values(productID, int(code), ts.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build append availability: %w", err)
	}

	if _, execErr := s.db.ExecContext(ctx, query, args...); execErr != nil {
		return fmt.Errorf("append availability for %d: %w", productID, mapError(execErr))
	}
	return nil
}

func (s *Store) AvailabilityHistory(ctx context.Context, productID int64) ([]domain.AvailabilityRecord, error) {
	query, args, err := s.sb.Select("id", "product_id", "availability", timestampColumn).
		From(availabilityTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy(timestampColumn+" ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build availability history: %w", err)
	}

	var records []domain.AvailabilityRecord
	if selErr := s.db.SelectContext(ctx, &records, query, args...); selErr != nil {
		return nil, fmt.Errorf("availability history of %d: %w", productID, selErr)
	}
	return records, nil
}

func (s *Store) DeleteAvailabilityBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := s.sb.Delete(availabilityTable).
		Where(squirrel.LtOrEq{timestampColumn: cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete availability: %w", err)
	}

	result, execErr := s.db.ExecContext(ctx, query, args...)
	if execErr != nil {
		return 0, fmt.Errorf("delete availability before %s: %w", cutoff.Format(time.RFC3339), execErr)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete availability rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) ListProductIDs(ctx context.Context) ([]int64, error) {
	query, args, err := s.sb.Select("product_id").From(productsTable).OrderBy("product_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list product ids: %w", err)
	}

	var ids []int64
	if selErr := s.db.SelectContext(ctx, &ids, query, args...); selErr != nil {
		return nil, fmt.Errorf("list product ids: %w", selErr)
	}
	return ids, nil
}

func (s *Store) ListProductURLs(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("url").From(productsTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list product urls: %w", err)
	}

	var urls []string
	if selErr := s.db.SelectContext(ctx, &urls, query, args...); selErr != nil {
		return nil, fmt.Errorf("list product urls: %w", selErr)
	}
	return urls, nil
}

// ListProducts returns every product ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query, args, err := s.sb.Select(productColumns...).From(productsTable).OrderBy("name", "product_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list products: %w", err)
	}

	var products []domain.Product
	if selErr := s.db.SelectContext(ctx, &products, query, args...); selErr != nil {
		return nil, fmt.Errorf("list products: %w", selErr)
	}
	return products, nil
}
