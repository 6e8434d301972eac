package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog listing. A nil BasePriceCents means the product is
// quote-only and cannot be priced automatically.
type Product struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string            `gorm:"column:name;not null"`
	Slug            string            `gorm:"column:slug;not null;uniqueIndex"`
	Description     string            `gorm:"column:description;not null"`
	LongDescription *string           `gorm:"column:long_description"`
	BasePriceCents  *int              `gorm:"column:base_price_cents"`
	WeightKg        *float64          `gorm:"column:weight_kg;type:numeric(6,3)"`
	ImageURL        *string           `gorm:"column:image_url"`
	CategoryID      *uuid.UUID        `gorm:"column:category_id;type:uuid"`
	SubCategoryID   *uuid.UUID        `gorm:"column:sub_category_id;type:uuid"`
	IsActive        bool              `gorm:"column:is_active;not null;default:true"`
	BulkTiers       []ProductBulkTier `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// RequiresQuote reports whether the product has no automatic price.
func (p *Product) RequiresQuote() bool {
	return p == nil || p.BasePriceCents == nil
}
