package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/riversidefab/storefront-backend/api/responses"
	"github.com/riversidefab/storefront-backend/api/validators"
	"github.com/riversidefab/storefront-backend/internal/catalog"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
)

type bulkTierRequest struct {
	MinQuantity    int `json:"min_quantity" validate:"required,min=2"`
	UnitPriceCents int `json:"unit_price_cents" validate:"required,min=1"`
}

type productRequest struct {
	Name            string            `json:"name" validate:"required,max=200"`
	Slug            string            `json:"slug" validate:"required,max=200"`
	Description     string            `json:"description" validate:"max=2000"`
	LongDescription *string           `json:"long_description"`
	BasePriceCents  *int              `json:"base_price_cents" validate:"omitempty,min=0"`
	WeightKg        *float64          `json:"weight_kg" validate:"omitempty,gt=0"`
	ImageURL        *string           `json:"image_url"`
	CategoryID      *uuid.UUID        `json:"category_id"`
	SubCategoryID   *uuid.UUID        `json:"sub_category_id"`
	IsActive        bool              `json:"is_active"`
	BulkTiers       []bulkTierRequest `json:"bulk_tiers" validate:"dive"`
}

func (req productRequest) toInput() catalog.ProductInput {
	input := catalog.ProductInput{
		Name:            strings.TrimSpace(req.Name),
		Slug:            strings.ToLower(strings.TrimSpace(req.Slug)),
		Description:     strings.TrimSpace(req.Description),
		LongDescription: req.LongDescription,
		BasePriceCents:  req.BasePriceCents,
		WeightKg:        req.WeightKg,
		ImageURL:        req.ImageURL,
		CategoryID:      req.CategoryID,
		SubCategoryID:   req.SubCategoryID,
		IsActive:        req.IsActive,
	}
	for _, tier := range req.BulkTiers {
		input.BulkTiers = append(input.BulkTiers, catalog.BulkTierInput{
			MinQuantity:    tier.MinQuantity,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}
	return input
}

// AdminCreateProduct creates a product with its bulk tiers.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct replaces a product and its bulk tiers.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct soft deletes a product.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
