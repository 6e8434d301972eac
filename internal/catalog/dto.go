package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
)

// ProductDTO represents the catalog product payload returned to clients.
type ProductDTO struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Slug            string        `json:"slug"`
	Description     string        `json:"description"`
	LongDescription *string       `json:"long_description,omitempty"`
	BasePriceCents  *int          `json:"base_price_cents,omitempty"`
	QuoteRequired   bool          `json:"quote_required"`
	WeightKg        *float64      `json:"weight_kg,omitempty"`
	ImageURL        *string       `json:"image_url,omitempty"`
	CategoryID      *uuid.UUID    `json:"category_id,omitempty"`
	SubCategoryID   *uuid.UUID    `json:"sub_category_id,omitempty"`
	IsActive        bool          `json:"is_active"`
	BulkTiers       []BulkTierDTO `json:"bulk_tiers,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BulkTierDTO represents a tiered unit price.
type BulkTierDTO struct {
	ID             uuid.UUID `json:"id"`
	MinQuantity    int       `json:"min_quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
}

// CategoryDTO is one node of the category tree.
type CategoryDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	ParentID    *uuid.UUID    `json:"parent_id,omitempty"`
	Description *string       `json:"description,omitempty"`
	Position    int           `json:"position"`
	IsActive    bool          `json:"is_active"`
	Children    []CategoryDTO `json:"children,omitempty"`
}

// ProductListDTO pairs a page of products with the next cursor.
type ProductListDTO struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:              product.ID,
		Name:            product.Name,
		Slug:            product.Slug,
		Description:     product.Description,
		LongDescription: product.LongDescription,
		BasePriceCents:  product.BasePriceCents,
		QuoteRequired:   product.RequiresQuote(),
		WeightKg:        product.WeightKg,
		ImageURL:        product.ImageURL,
		CategoryID:      product.CategoryID,
		SubCategoryID:   product.SubCategoryID,
		IsActive:        product.IsActive,
		CreatedAt:       product.CreatedAt,
		UpdatedAt:       product.UpdatedAt,
	}
	for _, tier := range product.BulkTiers {
		dto.BulkTiers = append(dto.BulkTiers, BulkTierDTO{
			ID:             tier.ID,
			MinQuantity:    tier.MinQuantity,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}
	return dto
}

// NewCategoryTree assembles flat category rows into a parent/child tree.
func NewCategoryTree(rows []models.Category) []CategoryDTO {
	byParent := map[uuid.UUID][]models.Category{}
	var roots []models.Category
	for _, row := range rows {
		if row.ParentID == nil {
			roots = append(roots, row)
			continue
		}
		byParent[*row.ParentID] = append(byParent[*row.ParentID], row)
	}

	var build func(row models.Category) CategoryDTO
	build = func(row models.Category) CategoryDTO {
		dto := CategoryDTO{
			ID:          row.ID,
			Name:        row.Name,
			Slug:        row.Slug,
			ParentID:    row.ParentID,
			Description: row.Description,
			Position:    row.Position,
			IsActive:    row.IsActive,
		}
		for _, child := range byParent[row.ID] {
			dto.Children = append(dto.Children, build(child))
		}
		return dto
	}

	tree := make([]CategoryDTO, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, build(root))
	}
	return tree
}
