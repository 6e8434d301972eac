package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/db"
	"github.com/riversidefab/storefront-backend/pkg/db/models"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/pagination"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const maxWeightKg = 30.0

// Service exposes catalog read paths and admin product management.
type Service interface {
	GetProduct(ctx context.Context, idOrSlug string) (*ProductDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)

	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error
}

// ListProductsInput holds the public listing filters.
type ListProductsInput struct {
	Limit      int
	Cursor     string
	CategoryID *uuid.UUID
	Query      string
}

// ProductInput is the validated payload for creating or updating a product.
type ProductInput struct {
	Name            string
	Slug            string
	Description     string
	LongDescription *string
	BasePriceCents  *int
	WeightKg        *float64
	ImageURL        *string
	CategoryID      *uuid.UUID
	SubCategoryID   *uuid.UUID
	IsActive        bool
	BulkTiers       []BulkTierInput
}

// BulkTierInput defines a tiered unit price for a minimum quantity.
type BulkTierInput struct {
	MinQuantity    int
	UnitPriceCents int
}

// CategoryInput is the validated payload for creating or updating a category.
type CategoryInput struct {
	Name        string
	Slug        string
	ParentID    *uuid.UUID
	Description *string
	Position    int
	IsActive    bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// GetProduct resolves a public detail lookup by UUID or slug.
func (s *service) GetProduct(ctx context.Context, idOrSlug string) (*ProductDTO, error) {
	trimmed := strings.TrimSpace(idOrSlug)
	if id, err := uuid.Parse(trimmed); err == nil {
		product, err := s.repo.FindProductByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return NewProductDTO(product), nil
	}
	return s.GetProductBySlug(ctx, trimmed)
}

// GetProductBySlug returns the active product for a public detail page.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	trimmed := strings.ToLower(strings.TrimSpace(slug))
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}

	product, err := s.repo.FindProductBySlug(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns a page of active products for the storefront.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListDTO, error) {
	result, err := s.repo.ListProducts(ctx, pagination.Params{Limit: input.Limit, Cursor: input.Cursor}, ProductListFilters{
		CategoryID: input.CategoryID,
		Query:      input.Query,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	dto := &ProductListDTO{NextCursor: result.NextCursor, Products: make([]ProductDTO, 0, len(result.Products))}
	for i := range result.Products {
		dto.Products = append(dto.Products, *NewProductDTO(&result.Products[i]))
	}
	return dto, nil
}

// ListCategories returns the active category tree.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx, true)
	if err != nil {
		return nil, err
	}
	return NewCategoryTree(rows), nil
}

// CreateProduct validates and persists a new product with its bulk tiers.
func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := s.validateProductInput(ctx, input); err != nil {
		return nil, err
	}

	product := buildProduct(input)
	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.CreateProduct(ctx, product)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
			}
			return err
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(created), nil
}

// UpdateProduct replaces the product fields and its tier set.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.validateProductInput(ctx, input); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}

		applyProductInput(existing, input)
		if _, err := repo.UpdateProduct(ctx, existing); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
			}
			return err
		}

		tiers := buildTiers(productID, input.BulkTiers)
		if err := repo.ReplaceBulkTiers(ctx, productID, tiers); err != nil {
			return err
		}

		updated, err = repo.FindProductByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

// DeleteProduct removes the product and its tiers.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.repo.FindProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return err
	}
	return s.repo.DeleteProduct(ctx, productID)
}

// CreateCategory validates and persists a category node.
func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	if err := s.validateCategoryInput(input); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
			}
			return nil, err
		}
	}

	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        strings.ToLower(strings.TrimSpace(input.Slug)),
		ParentID:    input.ParentID,
		Description: input.Description,
		Position:    input.Position,
		IsActive:    input.IsActive,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, err
	}
	dto := NewCategoryTree([]models.Category{*created})
	return &dto[0], nil
}

// UpdateCategory mutates a category, rejecting parent moves that create a cycle.
func (s *service) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	if categoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if err := s.validateCategoryInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, err
	}

	if input.ParentID != nil {
		if err := s.ensureAcyclicParent(ctx, categoryID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	existing.ParentID = input.ParentID
	existing.Description = input.Description
	existing.Position = input.Position
	existing.IsActive = input.IsActive

	updated, err := s.repo.UpdateCategory(ctx, existing)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, err
	}
	dto := NewCategoryTree([]models.Category{*updated})
	return &dto[0], nil
}

// DeleteCategory removes an empty category.
func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	if categoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return err
	}
	count, err := s.repo.CountProductsInCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "category still has products assigned")
	}
	return s.repo.DeleteCategory(ctx, categoryID)
}

func (s *service) validateProductInput(ctx context.Context, input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugRe.MatchString(slug) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain lowercase letters, digits, and hyphens")
	}
	if input.BasePriceCents != nil && *input.BasePriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	if input.WeightKg != nil && (*input.WeightKg <= 0 || *input.WeightKg > maxWeightKg) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("weight must be between 0 and %.0f kg", maxWeightKg))
	}
	if err := validateTiers(input.BulkTiers); err != nil {
		return err
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
			}
			return err
		}
	}
	if input.SubCategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.SubCategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "sub category not found")
			}
			return err
		}
	}
	return nil
}

func (s *service) validateCategoryInput(input CategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugRe.MatchString(slug) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain lowercase letters, digits, and hyphens")
	}
	return nil
}

// ensureAcyclicParent walks up from the proposed parent and rejects the move
// if it reaches the category being updated.
func (s *service) ensureAcyclicParent(ctx context.Context, categoryID, parentID uuid.UUID) error {
	if parentID == categoryID {
		return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
	}
	current := parentID
	seen := map[uuid.UUID]bool{categoryID: true}
	for {
		if seen[current] {
			return pkgerrors.New(pkgerrors.CodeValidation, "category move would create a cycle")
		}
		seen[current] = true

		node, err := s.repo.FindCategoryByID(ctx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
			}
			return err
		}
		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
}

func validateTiers(tiers []BulkTierInput) error {
	seen := map[int]bool{}
	for _, tier := range tiers {
		if tier.MinQuantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier min quantity must be at least 1")
		}
		if tier.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier unit price cannot be negative")
		}
		if seen[tier.MinQuantity] {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate tier min quantity %d", tier.MinQuantity))
		}
		seen[tier.MinQuantity] = true
	}
	return nil
}

func buildProduct(input ProductInput) *models.Product {
	product := &models.Product{
		Name:            strings.TrimSpace(input.Name),
		Slug:            strings.ToLower(strings.TrimSpace(input.Slug)),
		Description:     strings.TrimSpace(input.Description),
		LongDescription: input.LongDescription,
		BasePriceCents:  input.BasePriceCents,
		WeightKg:        input.WeightKg,
		ImageURL:        input.ImageURL,
		CategoryID:      input.CategoryID,
		SubCategoryID:   input.SubCategoryID,
		IsActive:        input.IsActive,
	}
	for _, tier := range input.BulkTiers {
		product.BulkTiers = append(product.BulkTiers, models.ProductBulkTier{
			MinQuantity:    tier.MinQuantity,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}
	return product
}

func applyProductInput(product *models.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	product.Description = strings.TrimSpace(input.Description)
	product.LongDescription = input.LongDescription
	product.BasePriceCents = input.BasePriceCents
	product.WeightKg = input.WeightKg
	product.ImageURL = input.ImageURL
	product.CategoryID = input.CategoryID
	product.SubCategoryID = input.SubCategoryID
	product.IsActive = input.IsActive
}

func buildTiers(productID uuid.UUID, inputs []BulkTierInput) []models.ProductBulkTier {
	tiers := make([]models.ProductBulkTier, 0, len(inputs))
	for _, tier := range inputs {
		tiers = append(tiers, models.ProductBulkTier{
			ProductID:      productID,
			MinQuantity:    tier.MinQuantity,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}
	return tiers
}
