package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// PostgreSQL error codes mapped onto the store taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// execRequireRows turns a zero-row result into notFoundErr.
func execRequireRows(result sql.Result, err, notFoundErr error) error {
	if err != nil {
		return err
	}
	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return affectedErr
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}

// mapError translates driver errors into store errors, keeping the driver
// error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w (%s): %w", store.ErrUniqueViolation, pqErr.Constraint, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w (%s): %w", store.ErrNotFound, pqErr.Constraint, err)
		}
	}
	return err
}
