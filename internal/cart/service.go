package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/internal/pricing"
	"github.com/riversidefab/storefront-backend/pkg/db/models"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

// Service exposes session cart operations.
type Service interface {
	GetCart(ctx context.Context, sessionID string) (*CartDTO, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, sessionID string) error
}

// AddItemInput is the validated payload for adding a product to the cart.
type AddItemInput struct {
	ProductID       uuid.UUID
	Quantity        int
	SelectedOptions types.JSONMap
}

// CartDTO is the cart payload returned to clients.
type CartDTO struct {
	Items         []CartItemDTO `json:"items"`
	SubtotalCents int           `json:"subtotal_cents"`
	ItemCount     int           `json:"item_count"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CartItemDTO is one cart line enriched with catalog display data.
type CartItemDTO struct {
	ID               uuid.UUID     `json:"id"`
	ProductID        uuid.UUID     `json:"product_id"`
	ProductName      string        `json:"product_name"`
	ProductSlug      string        `json:"product_slug"`
	ImageURL         *string       `json:"image_url,omitempty"`
	Quantity         int           `json:"quantity"`
	PriceAtTimeCents int           `json:"price_at_time_cents"`
	SubtotalCents    int           `json:"subtotal_cents"`
	WeightKg         *float64      `json:"weight_kg,omitempty"`
	SelectedOptions  types.JSONMap `json:"selected_options,omitempty"`
}

type productLoader interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     *Repository
	products productLoader
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// GetCart returns the session cart; a session without a cart reads as empty.
func (s *service) GetCart(ctx context.Context, sessionID string) (*CartDTO, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CartDTO{Items: []CartItemDTO{}}, nil
		}
		return nil, err
	}
	return s.buildDTO(ctx, cart)
}

// AddItem freezes the current unit price and adds (or merges) a cart line.
func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartDTO, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadSellableProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.FindOrCreateBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, input.ProductID, input.SelectedOptions)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil {
		// Merging changes the line quantity, so the tier price is re-derived
		// at the new quantity.
		newQuantity := existing.Quantity + input.Quantity
		priceCents, err := resolveUnitPrice(product, newQuantity)
		if err != nil {
			return nil, err
		}
		if err := s.repo.updateItemLine(ctx, existing.ID, newQuantity, priceCents); err != nil {
			return nil, err
		}
	} else {
		priceCents, err := resolveUnitPrice(product, input.Quantity)
		if err != nil {
			return nil, err
		}
		item := &models.CartItem{
			CartID:           cart.ID,
			ProductID:        product.ID,
			Quantity:         input.Quantity,
			SelectedOptions:  input.SelectedOptions,
			PriceAtTimeCents: priceCents,
			WeightKg:         product.WeightKg,
		}
		if _, err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := s.repo.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, sessionID)
}

// UpdateItemQuantity sets a line's quantity; zero removes the line.
func (s *service) UpdateItemQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	cart, err := s.findCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}

	if quantity == 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
	} else {
		product, err := s.loadSellableProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		priceCents, err := resolveUnitPrice(product, quantity)
		if err != nil {
			return nil, err
		}
		if err := s.repo.updateItemLine(ctx, item.ID, quantity, priceCents); err != nil {
			return nil, err
		}
	}

	if err := s.repo.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, sessionID)
}

// RemoveItem deletes a single line from the session cart.
func (s *service) RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*CartDTO, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	cart, err := s.findCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	if err := s.repo.TouchCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.reload(ctx, sessionID)
}

// Clear deletes the session cart entirely.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	cart, err := s.repo.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.repo.DeleteCart(ctx, cart.ID)
}

func (s *service) findCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart, err := s.repo.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, err
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, sessionID string) (*CartDTO, error) {
	cart, err := s.repo.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CartDTO{Items: []CartItemDTO{}}, nil
		}
		return nil, err
	}
	return s.buildDTO(ctx, cart)
}

func (s *service) loadSellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) buildDTO(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	dto := &CartDTO{
		Items:         make([]CartItemDTO, 0, len(cart.Items)),
		SubtotalCents: cart.TotalCents(),
		UpdatedAt:     cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := CartItemDTO{
			ID:               item.ID,
			ProductID:        item.ProductID,
			Quantity:         item.Quantity,
			PriceAtTimeCents: item.PriceAtTimeCents,
			SubtotalCents:    item.SubtotalCents(),
			WeightKg:         item.WeightKg,
			SelectedOptions:  item.SelectedOptions,
		}
		// Display data is best-effort; a deleted product leaves the frozen line intact.
		if product, err := s.products.FindProductByID(ctx, item.ProductID); err == nil {
			line.ProductName = product.Name
			line.ProductSlug = product.Slug
			line.ImageURL = product.ImageURL
		}
		dto.ItemCount += item.Quantity
		dto.Items = append(dto.Items, line)
	}
	return dto, nil
}

func resolveUnitPrice(product *models.Product, quantity int) (int, error) {
	result, err := pricing.UnitPrice(product, quantity)
	if err != nil {
		return 0, err
	}
	if result.QuoteRequired {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "product requires a quote and cannot be added to the cart")
	}
	return result.UnitCents, nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return nil
}
