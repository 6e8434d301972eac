package controllers

import (
	"net/http"
	"strings"

	"github.com/riversidefab/storefront-backend/api/responses"
	"github.com/riversidefab/storefront-backend/api/validators"
	checkoutsvc "github.com/riversidefab/storefront-backend/internal/checkout"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	CustomerName    string `json:"customer_name" validate:"required,max=200"`
	CustomerEmail   string `json:"customer_email" validate:"required,email"`
	CustomerPhone   string `json:"customer_phone" validate:"max=30"`
	CustomerAddress string `json:"customer_address" validate:"required,max=300"`
	CustomerCity    string `json:"customer_city" validate:"required,max=100"`
	CustomerRegion  string `json:"customer_region" validate:"required,max=100"`
	CustomerPostal  string `json:"customer_postal" validate:"required,max=10"`

	ShippingCode      string `json:"shipping_code" validate:"required"`
	ShippingName      string `json:"shipping_name" validate:"required"`
	ShippingCostCents int    `json:"shipping_cost_cents" validate:"min=0"`

	SourceToken        string `json:"source_token" validate:"required"`
	ExpectedTotalCents int    `json:"expected_total_cents" validate:"required,min=1"`
}

func (req checkoutRequest) toInput(sessionID, idempotencyKey string) checkoutsvc.Input {
	return checkoutsvc.Input{
		SessionID:          sessionID,
		CustomerName:       strings.TrimSpace(req.CustomerName),
		CustomerEmail:      strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:      strings.TrimSpace(req.CustomerPhone),
		CustomerAddress:    strings.TrimSpace(req.CustomerAddress),
		CustomerCity:       strings.TrimSpace(req.CustomerCity),
		CustomerRegion:     strings.TrimSpace(req.CustomerRegion),
		CustomerPostal:     strings.TrimSpace(req.CustomerPostal),
		ShippingCode:       strings.TrimSpace(req.ShippingCode),
		ShippingName:       strings.TrimSpace(req.ShippingName),
		ShippingCostCents:  req.ShippingCostCents,
		SourceToken:        strings.TrimSpace(req.SourceToken),
		ExpectedTotalCents: req.ExpectedTotalCents,
		IdempotencyKey:     idempotencyKey,
	}
}

// Checkout converts the session cart into a paid order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))

		order, err := svc.Checkout(r.Context(), payload.toInput(sessionID, idempotencyKey))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
