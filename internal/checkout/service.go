package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/internal/cart"
	"github.com/riversidefab/storefront-backend/internal/orders"
	"github.com/riversidefab/storefront-backend/internal/payments"
	"github.com/riversidefab/storefront-backend/internal/pricing"
	"github.com/riversidefab/storefront-backend/pkg/db/models"
	"github.com/riversidefab/storefront-backend/pkg/enums"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
)

// Input carries everything the orchestrator needs to commit a checkout.
type Input struct {
	SessionID string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	CustomerCity    string
	CustomerRegion  string
	CustomerPostal  string

	ShippingCode      string
	ShippingName      string
	ShippingCostCents int

	SourceToken        string
	ExpectedTotalCents int
	IdempotencyKey     string
}

type charger interface {
	Charge(ctx context.Context, input payments.ChargeInput) (*payments.ChargeResult, error)
}

type productLoader interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type checkoutMetrics interface {
	IncOrderCreated()
	IncReconciliationGap()
}

// Service commits a cart into a paid order.
type Service interface {
	Checkout(ctx context.Context, input Input) (*orders.OrderDTO, error)
}

type service struct {
	carts    *cart.Repository
	orders   *orders.Repository
	products productLoader
	payments charger
	tx       txRunner
	logger   *logger.Logger
	metrics  checkoutMetrics
}

func NewService(
	carts *cart.Repository,
	ordersRepo *orders.Repository,
	products productLoader,
	paymentsSvc charger,
	tx txRunner,
	logg *logger.Logger,
	metrics checkoutMetrics,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if paymentsSvc == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		orders:   ordersRepo,
		products: products,
		payments: paymentsSvc,
		tx:       tx,
		logger:   logg,
		metrics:  metrics,
	}, nil
}

// Checkout charges the card and then persists the order and clears the cart
// in one transaction. The charge happens first: a declined card must leave
// the cart untouched, and a persisted order must never precede its payment.
func (s *service) Checkout(ctx context.Context, input Input) (*orders.OrderDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	current, err := s.carts.FindBySession(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(current.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	subtotal := pricing.CartSubtotalCents(current.Items)
	total := subtotal + input.ShippingCostCents
	if input.ExpectedTotalCents != total {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total has changed, please review your cart")
	}

	orderNumber := orders.NewOrderNumber()
	charge, err := s.payments.Charge(ctx, payments.ChargeInput{
		AmountCents:    int64(total),
		SourceID:       input.SourceToken,
		IdempotencyKey: input.IdempotencyKey,
		ReferenceID:    orderNumber,
		BuyerEmail:     input.CustomerEmail,
		Note:           "Order " + orderNumber,
	})
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(ctx, input, current, orderNumber, subtotal, total, charge)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.carts.WithTx(tx).DeleteCart(ctx, current.ID)
	})
	if err != nil {
		// The card was charged but the order did not persist. This needs
		// a human: the payment reference is the only durable record.
		ctx = s.logger.WithFields(ctx, map[string]any{
			"alert":        "reconciliation_gap",
			"order_number": orderNumber,
			"payment_id":   charge.PaymentID,
			"amount_cents": total,
		})
		s.logger.Error(ctx, "payment captured but order persistence failed", err)
		if s.metrics != nil {
			s.metrics.IncReconciliationGap()
		}
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeOrderGap,
			err,
			"your payment was received but the order could not be recorded, please contact support with payment reference "+charge.PaymentID,
		)
	}

	if s.metrics != nil {
		s.metrics.IncOrderCreated()
	}
	dto := orders.NewOrderDTO(order)
	return &dto, nil
}

func validateInput(input Input) error {
	missing := func(field string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
	}
	switch {
	case strings.TrimSpace(input.SessionID) == "":
		return missing("session")
	case strings.TrimSpace(input.CustomerName) == "":
		return missing("customer name")
	case strings.TrimSpace(input.CustomerEmail) == "":
		return missing("customer email")
	case strings.TrimSpace(input.CustomerAddress) == "":
		return missing("customer address")
	case strings.TrimSpace(input.CustomerCity) == "":
		return missing("customer city")
	case strings.TrimSpace(input.CustomerRegion) == "":
		return missing("customer region")
	case strings.TrimSpace(input.CustomerPostal) == "":
		return missing("customer postal code")
	case strings.TrimSpace(input.ShippingCode) == "":
		return missing("shipping selection")
	case strings.TrimSpace(input.SourceToken) == "":
		return missing("payment source")
	}
	if input.ShippingCostCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}
	return nil
}

func (s *service) buildOrder(ctx context.Context, input Input, current *models.Cart, orderNumber string, subtotal, total int, charge *payments.ChargeResult) *models.Order {
	items := make([]models.OrderItem, 0, len(current.Items))
	for _, line := range current.Items {
		productID := line.ProductID
		// The name is denormalized so the order survives catalog deletes.
		name := "Discontinued item"
		if product, err := s.products.FindProductByID(ctx, line.ProductID); err == nil {
			name = product.Name
		}
		items = append(items, models.OrderItem{
			ProductID:       &productID,
			ProductName:     name,
			Quantity:        line.Quantity,
			UnitPriceCents:  line.PriceAtTimeCents,
			SelectedOptions: line.SelectedOptions,
		})
	}

	order := &models.Order{
		OrderNumber:       orderNumber,
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerEmail:     strings.TrimSpace(input.CustomerEmail),
		CustomerAddress:   strings.TrimSpace(input.CustomerAddress),
		CustomerCity:      strings.TrimSpace(input.CustomerCity),
		CustomerRegion:    strings.TrimSpace(input.CustomerRegion),
		CustomerPostal:    strings.TrimSpace(input.CustomerPostal),
		SubtotalCents:     subtotal,
		ShippingCode:      input.ShippingCode,
		ShippingName:      input.ShippingName,
		ShippingCostCents: input.ShippingCostCents,
		TotalCents:        total,
		Status:            enums.OrderStatusProcessing,
		PaymentStatus:     enums.PaymentStatusPaid,
		Items:             items,
	}
	if phone := strings.TrimSpace(input.CustomerPhone); phone != "" {
		order.CustomerPhone = &phone
	}
	if charge.PaymentID != "" {
		paymentID := charge.PaymentID
		order.PaymentID = &paymentID
	}
	if charge.ReceiptURL != "" {
		receiptURL := charge.ReceiptURL
		order.ReceiptURL = &receiptURL
	}
	return order
}
