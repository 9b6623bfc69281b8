package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("stocks table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"id":             "uuid",
			"stock_name":     "character varying",
			"ticker_symbol":  "character varying",
			"market_cap":     "numeric",
			"pe_ratio":       "numeric",
			"roe":            "numeric",
			"debt_to_equity": "numeric",
			"current_price":  "numeric",
			"industry":       "character varying",
			"data_date":      "timestamp with time zone",
			"created_at":     "timestamp with time zone",
			"updated_at":     "timestamp with time zone",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'stocks' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in stocks table", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("ticker symbol is unique", func(t *testing.T) {
		var exists bool
		err := testDB.GetRawConn().QueryRow(`
			SELECT EXISTS (
				SELECT FROM information_schema.table_constraints
				WHERE table_name = 'stocks'
				AND constraint_type = 'UNIQUE'
				AND constraint_name = 'stocks_ticker_symbol_key'
			)
		`).Scan(&exists)

		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, testDB.RunMigrations())
	})

	t.Run("rollback drops and re-up restores the table", func(t *testing.T) {
		require.NoError(t, testDB.RollbackMigrations(1))

		var exists bool
		err := testDB.GetRawConn().QueryRow(`
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = 'stocks'
			)
		`).Scan(&exists)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, testDB.RunMigrations())
	})
}
