package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/enums"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/pagination"
)

// NewOrderNumber builds a customer-facing order reference. Collisions are
// caught by the unique constraint on order_number.
func NewOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:8])
}

// Service reads orders and drives admin status transitions.
type Service interface {
	GetByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderListDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(orderNumber))
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderListDTO, error) {
	result, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(result.Orders))
	for i := range result.Orders {
		dtos = append(dtos, NewOrderDTO(&result.Orders[i]))
	}
	return &OrderListDTO{Orders: dtos, NextCursor: result.NextCursor}, nil
}

// UpdateStatus moves the order through the fulfillment status machine.
// Completed and cancelled orders are terminal.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	var updated *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, next),
			)
		}
		if err := repo.UpdateStatus(ctx, id, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		order.Status = next
		dto := NewOrderDTO(order)
		updated = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
