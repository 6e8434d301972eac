package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	"github.com/riversidefab/storefront-backend/pkg/pagination"
)

func createProduct(t *testing.T, db *gorm.DB, name, slug string, price *int, active bool, created time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:             uuid.New(),
		Name:           name,
		Slug:           slug,
		Description:    name + " description",
		BasePriceCents: price,
		IsActive:       active,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryFindProductBySlugPreloadsTiers(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	price := 1000
	product := createProduct(t, db, "Widget", "widget", &price, true, time.Now().UTC())
	for _, tier := range []models.ProductBulkTier{
		{ID: uuid.New(), ProductID: product.ID, MinQuantity: 50, UnitPriceCents: 750},
		{ID: uuid.New(), ProductID: product.ID, MinQuantity: 10, UnitPriceCents: 900},
	} {
		require.NoError(t, db.Create(&tier).Error)
	}

	found, err := repo.FindProductBySlug(context.Background(), "widget")
	require.NoError(t, err)
	require.Len(t, found.BulkTiers, 2)
	// Tiers come back ascending by min quantity.
	assert.Equal(t, 10, found.BulkTiers[0].MinQuantity)
	assert.Equal(t, 50, found.BulkTiers[1].MinQuantity)
}

func TestRepositoryListProductsPagination(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	price := 500
	createProduct(t, db, "Oldest", "oldest", &price, true, now.Add(-2*time.Hour))
	createProduct(t, db, "Middle", "middle", &price, true, now.Add(-time.Hour))
	createProduct(t, db, "Newest", "newest", &price, true, now)

	first, err := repo.ListProducts(context.Background(), pagination.Params{Limit: 2}, ProductListFilters{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	assert.Equal(t, "newest", first.Products[0].Slug)
	assert.Equal(t, "middle", first.Products[1].Slug)
	assert.NotEmpty(t, first.NextCursor)

	second, err := repo.ListProducts(context.Background(), pagination.Params{Limit: 2, Cursor: first.NextCursor}, ProductListFilters{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, "oldest", second.Products[0].Slug)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListProductsFilters(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	price := 500
	category := &models.Category{ID: uuid.New(), Name: "Fasteners", Slug: "fasteners", IsActive: true}
	require.NoError(t, db.Create(category).Error)

	inCategory := createProduct(t, db, "Hex Bolt", "hex-bolt", &price, true, now)
	inCategory.CategoryID = &category.ID
	require.NoError(t, db.Save(inCategory).Error)
	createProduct(t, db, "Steel Plate", "steel-plate", &price, true, now)
	createProduct(t, db, "Hidden Bolt", "hidden-bolt", &price, false, now)

	byCategory, err := repo.ListProducts(context.Background(), pagination.Params{}, ProductListFilters{CategoryID: &category.ID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, byCategory.Products, 1)
	assert.Equal(t, "hex-bolt", byCategory.Products[0].Slug)

	bySearch, err := repo.ListProducts(context.Background(), pagination.Params{}, ProductListFilters{Query: "bolt", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, bySearch.Products, 1)
	assert.Equal(t, "hex-bolt", bySearch.Products[0].Slug)
}

func TestRepositoryReplaceBulkTiers(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	price := 1000
	product := createProduct(t, db, "Widget", "widget", &price, true, time.Now().UTC())
	require.NoError(t, repo.ReplaceBulkTiers(context.Background(), product.ID, []models.ProductBulkTier{
		{ID: uuid.New(), ProductID: product.ID, MinQuantity: 10, UnitPriceCents: 900},
	}))
	require.NoError(t, repo.ReplaceBulkTiers(context.Background(), product.ID, []models.ProductBulkTier{
		{ID: uuid.New(), ProductID: product.ID, MinQuantity: 25, UnitPriceCents: 800},
		{ID: uuid.New(), ProductID: product.ID, MinQuantity: 100, UnitPriceCents: 600},
	}))

	found, err := repo.FindProductByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, found.BulkTiers, 2)
	assert.Equal(t, 25, found.BulkTiers[0].MinQuantity)
}

func TestRepositoryCountProductsInCategory(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	category := &models.Category{ID: uuid.New(), Name: "Fasteners", Slug: "fasteners", IsActive: true}
	require.NoError(t, db.Create(category).Error)

	price := 500
	product := createProduct(t, db, "Hex Bolt", "hex-bolt", &price, true, time.Now().UTC())
	product.SubCategoryID = &category.ID
	require.NoError(t, db.Save(product).Error)

	count, err := repo.CountProductsInCategory(context.Background(), category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
