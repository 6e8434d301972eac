package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

// Repository persists carts and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindBySession loads the cart with its items, or gorm.ErrRecordNotFound.
func (r *Repository) FindBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&cart, "session_id = ?", sessionID).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateBySession returns the session cart, creating it on first use.
func (r *Repository) FindOrCreateBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart, err := r.FindBySession(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{SessionID: sessionID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// FindItem locates a cart line by product and selected options.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID, options types.JSONMap) (*models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		if sameOptions(items[i].SelectedOptions, options) {
			return &items[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// FindItemByID loads a cart line scoped to the cart.
func (r *Repository) FindItemByID(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// updateItemLine sets the quantity and refreshed frozen price for a line.
func (r *Repository) updateItemLine(ctx context.Context, itemID uuid.UUID, quantity, priceCents int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "price_at_time_cents": priceCents}).
		Error
}

// DeleteItem removes a single cart line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// DeleteCart removes the cart and all of its lines.
func (r *Repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

// TouchCart bumps the cart's updated_at timestamp.
func (r *Repository) TouchCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).
		Error
}

// sameOptions compares option maps by canonical JSON form.
func sameOptions(a, b types.JSONMap) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}
