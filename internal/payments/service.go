package payments

import (
	"context"
	"fmt"
	"time"

	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
	"github.com/riversidefab/storefront-backend/pkg/square"
)

// Outcome classifies a charge attempt for the caller.
//
// OutcomeClientError means the processor rejected the request and no money
// moved, so the caller may retry with a different payment source.
// OutcomeServerError means the outcome is unknown: the charge may or may not
// have been captured, and callers must treat it as a reconciliation risk.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeClientError Outcome = "client_error"
	OutcomeServerError Outcome = "server_error"
)

// ChargeInput describes a single card charge.
type ChargeInput struct {
	AmountCents    int64
	SourceID       string
	IdempotencyKey string
	ReferenceID    string
	BuyerEmail     string
	Note           string
}

// ChargeResult is the processor's answer for a completed charge.
type ChargeResult struct {
	PaymentID  string `json:"payment_id"`
	Status     string `json:"status"`
	ReceiptURL string `json:"receipt_url,omitempty"`
}

// RefundInput describes a refund against a captured payment. A nil
// AmountCents refunds the full captured amount.
type RefundInput struct {
	PaymentID      string
	AmountCents    *int64
	Reason         string
	IdempotencyKey string
}

// RefundResult is the processor's answer for a submitted refund.
type RefundResult struct {
	RefundID  string `json:"refund_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

type processor interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	RefundPayment(ctx context.Context, params square.RefundCreateParams) (*sq.PaymentRefund, error)
	NewIdempotencyKey(prefix string) string
}

type chargeObserver interface {
	ObserveCharge(outcome string, duration time.Duration)
}

// Service charges and refunds cards through the payment processor.
type Service interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
	GetPayment(ctx context.Context, paymentID string) (*ChargeResult, error)
}

type service struct {
	processor processor
	logger    *logger.Logger
	metrics   chargeObserver
}

func NewService(proc processor, logg *logger.Logger, metrics chargeObserver) (Service, error) {
	if proc == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{processor: proc, logger: logg, metrics: metrics}, nil
}

// Classify maps charge errors onto retry semantics. Errors the processor
// definitively rejected are client errors; anything where the charge state
// is unknown is a server error.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return OutcomeServerError
	}
	switch typed.Code() {
	case pkgerrors.CodePayment,
		pkgerrors.CodeValidation,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodeIdempotency:
		return OutcomeClientError
	default:
		return OutcomeServerError
	}
}

func (s *service) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be greater than zero")
	}
	if input.SourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source is required")
	}

	key := input.IdempotencyKey
	if key == "" {
		key = s.processor.NewIdempotencyKey("charge")
	}

	started := time.Now()
	payment, err := s.processor.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    input.AmountCents,
		SourceID:       input.SourceID,
		IdempotencyKey: key,
		ReferenceID:    input.ReferenceID,
		BuyerEmail:     input.BuyerEmail,
		Note:           input.Note,
	})
	outcome := Classify(err)
	if s.metrics != nil {
		s.metrics.ObserveCharge(string(outcome), time.Since(started))
	}
	if err != nil {
		ctx = s.logger.WithFields(ctx, map[string]any{
			"outcome":      string(outcome),
			"amount_cents": input.AmountCents,
		})
		s.logger.Warn(ctx, "charge failed")
		return nil, err
	}
	return newChargeResult(payment), nil
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	if input.PaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if input.AmountCents != nil && *input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be greater than zero")
	}

	key := input.IdempotencyKey
	if key == "" {
		key = s.processor.NewIdempotencyKey("refund")
	}

	// A zero amount leaves amount_money off the processor request, which
	// Square treats as a full refund.
	var amount int64
	if input.AmountCents != nil {
		amount = *input.AmountCents
	}
	refund, err := s.processor.RefundPayment(ctx, square.RefundCreateParams{
		PaymentID:      input.PaymentID,
		AmountCents:    amount,
		Reason:         input.Reason,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}

	return &RefundResult{
		RefundID:  refund.GetID(),
		PaymentID: stringValue(refund.GetPaymentID()),
		Status:    stringValue(refund.GetStatus()),
	}, nil
}

func (s *service) GetPayment(ctx context.Context, paymentID string) (*ChargeResult, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := s.processor.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return newChargeResult(payment), nil
}

func newChargeResult(payment *sq.Payment) *ChargeResult {
	return &ChargeResult{
		PaymentID:  stringValue(payment.GetID()),
		Status:     stringValue(payment.GetStatus()),
		ReceiptURL: stringValue(payment.GetReceiptURL()),
	}
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
