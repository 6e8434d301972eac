package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/riversidefab/storefront-backend/pkg/enums"
)

// Order is created exactly once per successful checkout. Line items are
// denormalized snapshots; the order never dereferences the catalog again.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex:uq_orders_order_number"`

	CustomerName    string  `gorm:"column:customer_name;not null"`
	CustomerEmail   string  `gorm:"column:customer_email;not null"`
	CustomerPhone   *string `gorm:"column:customer_phone"`
	CustomerAddress string  `gorm:"column:customer_address;not null"`
	CustomerCity    string  `gorm:"column:customer_city;not null"`
	CustomerRegion  string  `gorm:"column:customer_region;not null"`
	CustomerPostal  string  `gorm:"column:customer_postal;not null"`

	SubtotalCents     int    `gorm:"column:subtotal_cents;not null"`
	ShippingCode      string `gorm:"column:shipping_code;not null"`
	ShippingName      string `gorm:"column:shipping_name;not null"`
	ShippingCostCents int    `gorm:"column:shipping_cost_cents;not null"`
	TotalCents        int    `gorm:"column:total_cents;not null"`

	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'"`
	PaymentID     *string             `gorm:"column:payment_id"`
	ReceiptURL    *string             `gorm:"column:receipt_url"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
