package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sqlite stand-in for gen_random_uuid()
const sqliteUUIDDefault = `(lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' || substr(lower(hex(randomblob(2))),2) || '-a' || substr(lower(hex(randomblob(2))),2) || '-' || lower(hex(randomblob(6))))`

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
			order_number TEXT NOT NULL UNIQUE,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			customer_phone TEXT,
			customer_address TEXT NOT NULL,
			customer_city TEXT NOT NULL,
			customer_region TEXT NOT NULL,
			customer_postal TEXT NOT NULL,
			subtotal_cents INTEGER NOT NULL,
			shipping_code TEXT NOT NULL,
			shipping_name TEXT NOT NULL,
			shipping_cost_cents INTEGER NOT NULL,
			total_cents INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			payment_status TEXT NOT NULL DEFAULT 'unpaid',
			payment_id TEXT,
			receipt_url TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE order_items (
			id TEXT PRIMARY KEY DEFAULT ` + sqliteUUIDDefault + `,
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id TEXT,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price_cents INTEGER NOT NULL,
			selected_options TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
