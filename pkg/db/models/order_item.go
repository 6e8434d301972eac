package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/riversidefab/storefront-backend/pkg/types"
)

// OrderItem is an immutable snapshot of a cart item taken at commit time.
type OrderItem struct {
	ID              uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID     `gorm:"column:order_id;type:uuid;not null"`
	ProductID       *uuid.UUID    `gorm:"column:product_id;type:uuid"`
	ProductName     string        `gorm:"column:product_name;not null"`
	Quantity        int           `gorm:"column:quantity;not null"`
	UnitPriceCents  int           `gorm:"column:unit_price_cents;not null"`
	SelectedOptions types.JSONMap `gorm:"column:selected_options;type:jsonb;serializer:json"`
	CreatedAt       time.Time     `gorm:"column:created_at;autoCreateTime"`
}

// SubtotalCents returns unit price × quantity.
func (i OrderItem) SubtotalCents() int {
	return i.UnitPriceCents * i.Quantity
}
