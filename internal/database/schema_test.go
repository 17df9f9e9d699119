package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/restock/internal/database"
)

func TestSchema_DeclaresConstraints(t *testing.T) {
	t.Parallel()

	ddl := database.Schema()

	assert.Contains(t, ddl, "product_id  BIGINT NOT NULL UNIQUE")
	assert.Contains(t, ddl, "url         VARCHAR(512) NOT NULL UNIQUE")
	assert.Contains(t, ddl, "CHECK (price >= 0)")
	assert.Contains(t, ddl, "REFERENCES products (product_id)")
	assert.Contains(t, ddl, `ON availability (product_id, "timestamp", id)`)
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS products").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, database.EnsureSchema(context.Background(), db))

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	require.Error(t, database.EnsureSchema(context.Background(), db))

	expectationsMet(t, mock)
}

func TestConfig_DSN(t *testing.T) {
	t.Parallel()

	cfg := database.Config{Password: "secret"}
	cfg.SetDefaults()

	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=restock sslmode=disable", cfg.DSN())
	assert.Equal(t, database.DefaultMaxOpenConns, cfg.MaxOpenConns)
}
