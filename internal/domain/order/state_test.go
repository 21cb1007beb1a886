package order

import (
	"errors"
	"testing"
)

func TestPaymentLifecycle(t *testing.T) {
	o, _ := New(validDraft())

	if err := o.PaymentSettled(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("settle before initiate: %v", err)
	}
	if err := o.PaymentInitiated(); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if o.Status != StatusPaymentPending {
		t.Fatalf("status = %s", o.Status)
	}

	// decline keeps the order retryable
	if err := o.PaymentDeclined(); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if o.Status != StatusPaymentPending {
		t.Fatalf("decline moved order to %s", o.Status)
	}
	if err := o.PaymentInitiated(); err != nil {
		t.Fatalf("retry initiate: %v", err)
	}

	if err := o.PaymentSettled(); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if o.Status != StatusPaymentSettled {
		t.Fatalf("status = %s", o.Status)
	}
	if err := o.PaymentSettled(); err != nil {
		t.Fatalf("second settle should be a no-op: %v", err)
	}
	if err := o.PaymentInitiated(); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("initiate after settle: %v", err)
	}
}

func TestUnknownStatus(t *testing.T) {
	o := &Order{Status: "SHIPPED"}
	if err := o.PaymentInitiated(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}
