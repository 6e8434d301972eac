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
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
)

type passthroughTx struct {
	db *gorm.DB
}

func (p passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(p.db)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db), passthroughTx{db: db})
	require.NoError(t, err)
	return svc, db
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected domain error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestServiceGetProductBySlug(t *testing.T) {
	svc, db := newTestService(t)

	price := 1500
	createProduct(t, db, "Widget", "widget", &price, true, time.Now().UTC())
	createProduct(t, db, "Retired", "retired", &price, false, time.Now().UTC())

	dto, err := svc.GetProductBySlug(context.Background(), "  Widget ")
	require.NoError(t, err)
	assert.Equal(t, "widget", dto.Slug)
	assert.False(t, dto.QuoteRequired)

	_, err = svc.GetProductBySlug(context.Background(), "retired")
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.GetProductBySlug(context.Background(), "missing")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceGetProductByIDOrSlug(t *testing.T) {
	svc, db := newTestService(t)

	price := 1500
	created := createProduct(t, db, "Widget", "widget", &price, true, time.Now().UTC())

	byID, err := svc.GetProduct(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	bySlug, err := svc.GetProduct(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = svc.GetProduct(context.Background(), uuid.NewString())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := 1000
	valid := ProductInput{Name: "Widget", Slug: "widget", Description: "A widget", BasePriceCents: &base, IsActive: true}

	missingName := valid
	missingName.Name = " "
	_, err := svc.CreateProduct(ctx, missingName)
	assertCode(t, err, pkgerrors.CodeValidation)

	badSlug := valid
	badSlug.Slug = "Bad Slug!"
	_, err = svc.CreateProduct(ctx, badSlug)
	assertCode(t, err, pkgerrors.CodeValidation)

	negative := -5
	badPrice := valid
	badPrice.BasePriceCents = &negative
	_, err = svc.CreateProduct(ctx, badPrice)
	assertCode(t, err, pkgerrors.CodeValidation)

	heavy := 31.0
	badWeight := valid
	badWeight.WeightKg = &heavy
	_, err = svc.CreateProduct(ctx, badWeight)
	assertCode(t, err, pkgerrors.CodeValidation)

	dupTiers := valid
	dupTiers.BulkTiers = []BulkTierInput{
		{MinQuantity: 10, UnitPriceCents: 900},
		{MinQuantity: 10, UnitPriceCents: 850},
	}
	_, err = svc.CreateProduct(ctx, dupTiers)
	assertCode(t, err, pkgerrors.CodeValidation)

	missingCategory := valid
	ghost := uuid.New()
	missingCategory.CategoryID = &ghost
	_, err = svc.CreateProduct(ctx, missingCategory)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestServiceCreateProductPersistsTiers(t *testing.T) {
	svc, _ := newTestService(t)

	base := 1000
	dto, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:           "Widget",
		Slug:           "widget",
		Description:    "A widget",
		BasePriceCents: &base,
		IsActive:       true,
		BulkTiers: []BulkTierInput{
			{MinQuantity: 10, UnitPriceCents: 900},
			{MinQuantity: 50, UnitPriceCents: 750},
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dto.ID)
	assert.Len(t, dto.BulkTiers, 2)
	assert.False(t, dto.QuoteRequired)
}

func TestServiceCreateProductDuplicateSlug(t *testing.T) {
	svc, db := newTestService(t)

	price := 500
	createProduct(t, db, "Widget", "widget", &price, true, time.Now().UTC())

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Name: "Widget Two", Slug: "widget", Description: "dup", IsActive: true,
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestServiceUpdateProductReplacesTiers(t *testing.T) {
	svc, db := newTestService(t)

	price := 1000
	product := createProduct(t, db, "Widget", "widget", &price, true, time.Now().UTC())
	require.NoError(t, db.Create(&models.ProductBulkTier{
		ID: uuid.New(), ProductID: product.ID, MinQuantity: 10, UnitPriceCents: 900,
	}).Error)

	dto, err := svc.UpdateProduct(context.Background(), product.ID, ProductInput{
		Name:        "Widget v2",
		Slug:        "widget",
		Description: "updated",
		IsActive:    true,
		BulkTiers:   []BulkTierInput{{MinQuantity: 25, UnitPriceCents: 800}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", dto.Name)
	// Base price cleared: the product becomes quote-only below the tier.
	assert.True(t, dto.QuoteRequired)
	require.Len(t, dto.BulkTiers, 1)
	assert.Equal(t, 25, dto.BulkTiers[0].MinQuantity)
}

func TestServiceUpdateProductNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateProduct(context.Background(), uuid.New(), ProductInput{
		Name: "Ghost", Slug: "ghost", Description: "missing", IsActive: true,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestServiceCategoryTreeAndCycles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.CreateCategory(ctx, CategoryInput{Name: "Metals", Slug: "metals", IsActive: true})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, CategoryInput{Name: "Steel", Slug: "steel", ParentID: &root.ID, IsActive: true})
	require.NoError(t, err)

	tree, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "steel", tree[0].Children[0].Slug)

	// Moving the root under its own child must be rejected.
	_, err = svc.UpdateCategory(ctx, root.ID, CategoryInput{Name: "Metals", Slug: "metals", ParentID: &child.ID, IsActive: true})
	assertCode(t, err, pkgerrors.CodeValidation)

	// Self-parenting must be rejected.
	_, err = svc.UpdateCategory(ctx, root.ID, CategoryInput{Name: "Metals", Slug: "metals", ParentID: &root.ID, IsActive: true})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestServiceDeleteCategoryWithProducts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CategoryInput{Name: "Metals", Slug: "metals", IsActive: true})
	require.NoError(t, err)

	price := 500
	product := createProduct(t, db, "Steel Plate", "steel-plate", &price, true, time.Now().UTC())
	product.CategoryID = &category.ID
	require.NoError(t, db.Save(product).Error)

	err = svc.DeleteCategory(ctx, category.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	require.NoError(t, db.Delete(product).Error)
	require.NoError(t, svc.DeleteCategory(ctx, category.ID))
}
