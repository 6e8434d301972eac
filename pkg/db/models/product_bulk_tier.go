package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductBulkTier overrides the base price at or above a quantity threshold.
// MinQuantity is unique per product; duplicate thresholds are rejected at
// data entry rather than tie-broken at pricing time.
type ProductBulkTier struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_bulk_tiers_product_min_qty"`
	MinQuantity    int       `gorm:"column:min_quantity;not null;uniqueIndex:uq_bulk_tiers_product_min_qty"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
