package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/riversidefab/storefront-backend/pkg/types"
)

// CartItem is a line in a cart. PriceAtTimeCents is the unit price frozen
// at the moment of addition; later catalog edits never change it.
type CartItem struct {
	ID               uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID           uuid.UUID     `gorm:"column:cart_id;type:uuid;not null"`
	ProductID        uuid.UUID     `gorm:"column:product_id;type:uuid;not null"`
	Quantity         int           `gorm:"column:quantity;not null;default:1"`
	SelectedOptions  types.JSONMap `gorm:"column:selected_options;type:jsonb;serializer:json"`
	PriceAtTimeCents int           `gorm:"column:price_at_time_cents;not null"`
	WeightKg         *float64      `gorm:"column:weight_kg;type:numeric(6,3)"`
	CreatedAt        time.Time     `gorm:"column:created_at;autoCreateTime"`
}

// SubtotalCents returns price_at_time × quantity.
func (i CartItem) SubtotalCents() int {
	return i.PriceAtTimeCents * i.Quantity
}
