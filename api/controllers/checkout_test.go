package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	checkoutsvc "github.com/riversidefab/storefront-backend/internal/checkout"
	ordersvc "github.com/riversidefab/storefront-backend/internal/orders"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
)

type stubCheckoutService struct {
	checkout func(ctx context.Context, input checkoutsvc.Input) (*ordersvc.OrderDTO, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, input checkoutsvc.Input) (*ordersvc.OrderDTO, error) {
	return s.checkout(ctx, input)
}

const checkoutBody = `{
	"customer_name": "Pat Chen",
	"customer_email": "pat@example.com",
	"customer_phone": "519-555-0100",
	"customer_address": "12 Mill St",
	"customer_city": "Windsor",
	"customer_region": "ON",
	"customer_postal": "N9A 1A1",
	"shipping_code": "DOM.RP",
	"shipping_name": "Regular Parcel",
	"shipping_cost_cents": 995,
	"source_token": "cnon:card-nonce-ok",
	"expected_total_cents": 6995
}`

func TestCheckout(t *testing.T) {
	logg := testLogger()

	t.Run("success", func(t *testing.T) {
		var captured checkoutsvc.Input
		svc := &stubCheckoutService{
			checkout: func(ctx context.Context, input checkoutsvc.Input) (*ordersvc.OrderDTO, error) {
				captured = input
				return &ordersvc.OrderDTO{OrderNumber: "ORD-AB12CD34"}, nil
			},
		}

		req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody)), "sess-1")
		req.Header.Set("Idempotency-Key", "key-123")
		rec := httptest.NewRecorder()
		Checkout(svc, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.SessionID != "sess-1" {
			t.Fatalf("session not forwarded: %q", captured.SessionID)
		}
		if captured.IdempotencyKey != "key-123" {
			t.Fatalf("idempotency key not forwarded: %q", captured.IdempotencyKey)
		}
		if captured.ExpectedTotalCents != 6995 || captured.ShippingCode != "DOM.RP" {
			t.Fatalf("payload not forwarded: %+v", captured)
		}
	})

	t.Run("phone is optional", func(t *testing.T) {
		var captured checkoutsvc.Input
		svc := &stubCheckoutService{
			checkout: func(ctx context.Context, input checkoutsvc.Input) (*ordersvc.OrderDTO, error) {
				captured = input
				return &ordersvc.OrderDTO{OrderNumber: "ORD-AB12CD34"}, nil
			},
		}

		body := strings.Replace(checkoutBody, "\t\"customer_phone\": \"519-555-0100\",\n", "", 1)
		req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), "sess-1")
		rec := httptest.NewRecorder()
		Checkout(svc, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 without a phone, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.CustomerPhone != "" {
			t.Fatalf("expected empty phone, got %q", captured.CustomerPhone)
		}
	})

	t.Run("missing email rejected before service", func(t *testing.T) {
		svc := &stubCheckoutService{
			checkout: func(ctx context.Context, input checkoutsvc.Input) (*ordersvc.OrderDTO, error) {
				t.Fatal("service should not be called")
				return nil, nil
			},
		}
		body := strings.Replace(checkoutBody, `"pat@example.com"`, `""`, 1)
		req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), "sess-1")
		rec := httptest.NewRecorder()
		Checkout(svc, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("declined card surfaces 402", func(t *testing.T) {
		svc := &stubCheckoutService{
			checkout: func(ctx context.Context, input checkoutsvc.Input) (*ordersvc.OrderDTO, error) {
				return nil, pkgerrors.New(pkgerrors.CodePayment, "card declined")
			},
		}
		req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody)), "sess-1")
		rec := httptest.NewRecorder()
		Checkout(svc, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", rec.Code)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		svc := &stubCheckoutService{}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
		rec := httptest.NewRecorder()
		Checkout(svc, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 when session middleware absent, got %d", rec.Code)
		}
	})
}
