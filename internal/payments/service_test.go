package payments

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
	"github.com/riversidefab/storefront-backend/pkg/logger"
	"github.com/riversidefab/storefront-backend/pkg/square"
)

type stubProcessor struct {
	payment    *sq.Payment
	refund     *sq.PaymentRefund
	createErr  error
	refundErr  error
	getErr     error
	lastCreate square.PaymentCreateParams
	lastRefund square.RefundCreateParams
	keys       int
}

func (s *stubProcessor) CreatePayment(_ context.Context, params square.PaymentCreateParams) (*sq.Payment, error) {
	s.lastCreate = params
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.payment, nil
}

func (s *stubProcessor) GetPayment(_ context.Context, _ string) (*sq.Payment, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.payment, nil
}

func (s *stubProcessor) RefundPayment(_ context.Context, params square.RefundCreateParams) (*sq.PaymentRefund, error) {
	s.lastRefund = params
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	return s.refund, nil
}

func (s *stubProcessor) NewIdempotencyKey(prefix string) string {
	s.keys++
	return fmt.Sprintf("%s-generated-%d", prefix, s.keys)
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveCharge(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func ptrString(v string) *string { return &v }

func ptrInt64(v int64) *int64 { return &v }

func newTestService(t *testing.T, proc *stubProcessor, obs chargeObserver) Service {
	t.Helper()
	svc, err := NewService(proc, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), obs)
	require.NoError(t, err)
	return svc
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"card declined", pkgerrors.New(pkgerrors.CodePayment, "card declined"), OutcomeClientError},
		{"bad request", pkgerrors.New(pkgerrors.CodeValidation, "missing source"), OutcomeClientError},
		{"idempotency reuse", pkgerrors.New(pkgerrors.CodeIdempotency, "key reused"), OutcomeClientError},
		{"processor down", pkgerrors.New(pkgerrors.CodeDependency, "bad gateway"), OutcomeServerError},
		{"transport", fmt.Errorf("dial tcp: connection refused"), OutcomeServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestChargeSuccess(t *testing.T) {
	proc := &stubProcessor{payment: &sq.Payment{
		ID:         ptrString("pay_123"),
		Status:     ptrString("COMPLETED"),
		ReceiptURL: ptrString("https://squareup.com/receipt/pay_123"),
	}}
	obs := &recordingObserver{}
	svc := newTestService(t, proc, obs)

	result, err := svc.Charge(context.Background(), ChargeInput{
		AmountCents: 12050,
		SourceID:    "cnon:card-nonce",
		ReferenceID: "ORD-AB12CD34",
	})
	require.NoError(t, err)

	assert.Equal(t, "pay_123", result.PaymentID)
	assert.Equal(t, "COMPLETED", result.Status)
	assert.Equal(t, int64(12050), proc.lastCreate.AmountCents)
	assert.Equal(t, "ORD-AB12CD34", proc.lastCreate.ReferenceID)
	assert.NotEmpty(t, proc.lastCreate.IdempotencyKey, "key is generated when absent")
	assert.Equal(t, []string{"success"}, obs.outcomes)
}

func TestChargeKeepsCallerIdempotencyKey(t *testing.T) {
	proc := &stubProcessor{payment: &sq.Payment{ID: ptrString("pay_1")}}
	svc := newTestService(t, proc, nil)

	_, err := svc.Charge(context.Background(), ChargeInput{
		AmountCents:    500,
		SourceID:       "cnon:card-nonce",
		IdempotencyKey: "checkout-7c9e",
	})
	require.NoError(t, err)
	assert.Equal(t, "checkout-7c9e", proc.lastCreate.IdempotencyKey)
	assert.Zero(t, proc.keys)
}

func TestChargeDeclinedIsClientError(t *testing.T) {
	proc := &stubProcessor{createErr: pkgerrors.New(pkgerrors.CodePayment, "card declined")}
	obs := &recordingObserver{}
	svc := newTestService(t, proc, obs)

	_, err := svc.Charge(context.Background(), ChargeInput{AmountCents: 500, SourceID: "cnon:bad-card"})
	require.Error(t, err)
	assert.Equal(t, OutcomeClientError, Classify(err))
	assert.Equal(t, []string{"client_error"}, obs.outcomes)
}

func TestChargeValidation(t *testing.T) {
	proc := &stubProcessor{}
	svc := newTestService(t, proc, nil)

	_, err := svc.Charge(context.Background(), ChargeInput{AmountCents: 0, SourceID: "cnon:card"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Charge(context.Background(), ChargeInput{AmountCents: 500})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRefund(t *testing.T) {
	proc := &stubProcessor{refund: &sq.PaymentRefund{
		ID:        "ref_9",
		PaymentID: ptrString("pay_123"),
		Status:    ptrString("PENDING"),
	}}
	svc := newTestService(t, proc, nil)

	result, err := svc.Refund(context.Background(), RefundInput{
		PaymentID:   "pay_123",
		AmountCents: ptrInt64(12050),
		Reason:      "order cancelled",
	})
	require.NoError(t, err)

	assert.Equal(t, "ref_9", result.RefundID)
	assert.Equal(t, "pay_123", result.PaymentID)
	assert.Equal(t, "PENDING", result.Status)
	assert.Equal(t, int64(12050), proc.lastRefund.AmountCents)
	assert.Equal(t, 1, proc.keys, "refund keys are generated when absent")
}

func TestRefundFullWhenAmountOmitted(t *testing.T) {
	proc := &stubProcessor{refund: &sq.PaymentRefund{
		ID:        "ref_10",
		PaymentID: ptrString("pay_123"),
		Status:    ptrString("PENDING"),
	}}
	svc := newTestService(t, proc, nil)

	_, err := svc.Refund(context.Background(), RefundInput{PaymentID: "pay_123"})
	require.NoError(t, err)
	assert.Zero(t, proc.lastRefund.AmountCents, "full refunds send no amount to the processor")
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	proc := &stubProcessor{}
	svc := newTestService(t, proc, nil)

	_, err := svc.Refund(context.Background(), RefundInput{PaymentID: "pay_123", AmountCents: ptrInt64(0)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetPaymentPassesThroughErrors(t *testing.T) {
	proc := &stubProcessor{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")}
	svc := newTestService(t, proc, nil)

	_, err := svc.GetPayment(context.Background(), "pay_missing")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
