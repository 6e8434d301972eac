package controllers

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/riversidefab/storefront-backend/api/responses"
	"github.com/riversidefab/storefront-backend/api/validators"
	"github.com/riversidefab/storefront-backend/internal/shipping"
	"github.com/riversidefab/storefront-backend/pkg/db/models"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
)

type shippingQuoteRequest struct {
	DestinationPostalCode string `json:"destination_postal_code" validate:"required"`
	DomesticOnly          *bool  `json:"domestic_only"`
}

// domesticOnly defaults to true when the client omits the field.
func (req shippingQuoteRequest) domesticOnly() bool {
	return req.DomesticOnly == nil || *req.DomesticOnly
}

type cartLoader interface {
	FindBySession(ctx context.Context, sessionID string) (*models.Cart, error)
}

// ShippingQuote prices the session cart against the carrier options.
func ShippingQuote(svc shipping.Service, carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shippingQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := carts.FindBySession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty"))
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(record.Items) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty"))
			return
		}

		quote, err := svc.Quote(r.Context(), payload.DestinationPostalCode, payload.domesticOnly(), record.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}
