package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	"github.com/riversidefab/storefront-backend/pkg/enums"
	"github.com/riversidefab/storefront-backend/pkg/pagination"
	"github.com/riversidefab/storefront-backend/pkg/types"
)

func createOrder(t *testing.T, db *gorm.DB, number string, createdAt time.Time, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       number,
		CustomerName:      "Dana Castillo",
		CustomerEmail:     "dana@example.com",
		CustomerAddress:   "12 Bridge St",
		CustomerCity:      "Windsor",
		CustomerRegion:    "ON",
		CustomerPostal:    "N9J1V6",
		SubtotalCents:     5000,
		ShippingCode:      "DOM.RP",
		ShippingName:      "Regular Parcel",
		ShippingCostCents: 995,
		TotalCents:        5995,
		Status:            enums.OrderStatusProcessing,
		PaymentStatus:     enums.PaymentStatusPaid,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
		Items: []models.OrderItem{
			{
				ID:              uuid.New(),
				ProductName:     "Hex Bolt M8",
				Quantity:        5,
				UnitPriceCents:  1000,
				SelectedOptions: types.JSONMap{"finish": "zinc"},
			},
		},
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryFindByNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	created := createOrder(t, db, "ORD-AB12CD34", time.Now().UTC(), nil)

	found, err := repo.FindByNumber(context.Background(), "ORD-AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Hex Bolt M8", found.Items[0].ProductName)
	assert.Equal(t, 5000, found.Items[0].SubtotalCents())

	_, err = repo.FindByNumber(context.Background(), "ORD-MISSING1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		createOrder(t, db, fmt.Sprintf("ORD-0000000%d", i), base.Add(time.Duration(i)*time.Minute), nil)
	}

	page1, err := repo.List(context.Background(), pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, page1.Orders, 2)
	assert.Equal(t, "ORD-00000002", page1.Orders[0].OrderNumber)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: page1.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, page2.Orders, 1)
	assert.Equal(t, "ORD-00000000", page2.Orders[0].OrderNumber)
	assert.Empty(t, page2.NextCursor)
}

func TestRepositoryListFilters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	createOrder(t, db, "ORD-PENDING1", now, func(o *models.Order) {
		o.Status = enums.OrderStatusPending
		o.PaymentStatus = enums.PaymentStatusUnpaid
	})
	createOrder(t, db, "ORD-DONE0001", now.Add(time.Minute), func(o *models.Order) {
		o.Status = enums.OrderStatusCompleted
		o.CustomerEmail = "Other@Example.COM"
	})

	pending := enums.OrderStatusPending
	result, err := repo.List(context.Background(), pagination.Params{}, ListFilters{Status: &pending})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "ORD-PENDING1", result.Orders[0].OrderNumber)

	result, err = repo.List(context.Background(), pagination.Params{}, ListFilters{Email: "other@example.com"})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "ORD-DONE0001", result.Orders[0].OrderNumber)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := createOrder(t, db, "ORD-STATUS01", time.Now().UTC(), nil)

	require.NoError(t, repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusCompleted))

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, found.Status)
}
