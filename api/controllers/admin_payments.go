package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/riversidefab/storefront-backend/api/responses"
	"github.com/riversidefab/storefront-backend/api/validators"
	paymentsvc "github.com/riversidefab/storefront-backend/internal/payments"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
)

// An omitted amount_cents refunds the full captured amount.
type refundRequest struct {
	AmountCents *int64 `json:"amount_cents" validate:"omitempty,min=1"`
	Reason      string `json:"reason" validate:"max=192"`
}

// AdminRefundPayment submits a refund against a captured payment.
func AdminRefundPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		paymentID := strings.TrimSpace(chi.URLParam(r, "paymentId"))
		if paymentID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required"))
			return
		}

		var payload refundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refund(r.Context(), paymentsvc.RefundInput{
			PaymentID:      paymentID,
			AmountCents:    payload.AmountCents,
			Reason:         strings.TrimSpace(payload.Reason),
			IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminGetPayment reads payment state straight from the processor.
func AdminGetPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		paymentID := strings.TrimSpace(chi.URLParam(r, "paymentId"))
		if paymentID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required"))
			return
		}

		result, err := svc.GetPayment(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
