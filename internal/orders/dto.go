package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`

	CustomerName    string  `json:"customer_name"`
	CustomerEmail   string  `json:"customer_email"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	CustomerAddress string  `json:"customer_address"`
	CustomerCity    string  `json:"customer_city"`
	CustomerRegion  string  `json:"customer_region"`
	CustomerPostal  string  `json:"customer_postal"`

	SubtotalCents     int    `json:"subtotal_cents"`
	ShippingCode      string `json:"shipping_code"`
	ShippingName      string `json:"shipping_name"`
	ShippingCostCents int    `json:"shipping_cost_cents"`
	TotalCents        int    `json:"total_cents"`

	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	ReceiptURL    *string `json:"receipt_url,omitempty"`

	Items     []OrderItemDTO `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// OrderItemDTO is a single snapshotted line.
type OrderItemDTO struct {
	ID              uuid.UUID     `json:"id"`
	ProductID       *uuid.UUID    `json:"product_id,omitempty"`
	ProductName     string        `json:"product_name"`
	Quantity        int           `json:"quantity"`
	UnitPriceCents  int           `json:"unit_price_cents"`
	SubtotalCents   int           `json:"subtotal_cents"`
	SelectedOptions types.JSONMap `json:"selected_options,omitempty"`
}

// OrderListDTO is one admin page of orders.
type OrderListDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps a persisted order onto its API shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			SubtotalCents:   item.SubtotalCents(),
			SelectedOptions: item.SelectedOptions,
		})
	}
	return OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		CustomerPhone:     order.CustomerPhone,
		CustomerAddress:   order.CustomerAddress,
		CustomerCity:      order.CustomerCity,
		CustomerRegion:    order.CustomerRegion,
		CustomerPostal:    order.CustomerPostal,
		SubtotalCents:     order.SubtotalCents,
		ShippingCode:      order.ShippingCode,
		ShippingName:      order.ShippingName,
		ShippingCostCents: order.ShippingCostCents,
		TotalCents:        order.TotalCents,
		Status:            order.Status.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		ReceiptURL:        order.ReceiptURL,
		Items:             items,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}
