package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	"github.com/riversidefab/storefront-backend/pkg/pagination"
)

// Repository wires together product and category persistence.
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

// FindProductByID loads the product with its bulk tiers.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("BulkTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySlug loads the product with its bulk tiers by slug.
func (r *Repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("BulkTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity ASC")
		}).
		First(&product, "slug = ?", slug).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductListFilters narrows the product listing.
type ProductListFilters struct {
	CategoryID *uuid.UUID
	Query      string
	ActiveOnly bool
}

// ProductListResult is one page of products plus the cursor for the next.
type ProductListResult struct {
	Products   []models.Product
	NextCursor string
}

// ListProducts returns a cursor page of products ordered newest first.
func (r *Repository) ListProducts(ctx context.Context, params pagination.Params, filters ProductListFilters) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("BulkTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity ASC")
		})

	if filters.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}
	if filters.CategoryID != nil {
		qb = qb.Where("(category_id = ? OR sub_category_id = ?)", *filters.CategoryID, *filters.CategoryID)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ProductListResult{Products: rows, NextCursor: nextCursor}, nil
}

// CreateProduct inserts a new product row with its tiers.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Omit("BulkTiers").Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product by ID; tiers cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// ReplaceBulkTiers replaces all bulk tiers for the product.
func (r *Repository) ReplaceBulkTiers(ctx context.Context, productID uuid.UUID, tiers []models.ProductBulkTier) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductBulkTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	return tx.Create(&tiers).Error
}

// ListCategories returns all categories ordered for tree assembly.
func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	qb := r.db.WithContext(ctx).Model(&models.Category{})
	if activeOnly {
		qb = qb.Where("is_active = ?", true)
	}
	var rows []models.Category
	err := qb.Order("position ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

// FindCategoryByID loads a single category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory updates a category row.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Omit("Children").Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category; products referencing it keep a nil link.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// CountProductsInCategory reports how many products reference the category.
func (r *Repository) CountProductsInCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("(category_id = ? OR sub_category_id = ?)", id, id).
		Count(&count).
		Error
	return count, err
}
