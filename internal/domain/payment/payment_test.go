package payment

import (
	"errors"
	"testing"
)

func TestSettleIsIdempotent(t *testing.T) {
	p, err := New("pay1", "o1", "paystack", "ref-1", 11000, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	changed, err := p.Settle("tx-1")
	if err != nil || !changed {
		t.Fatalf("first settle changed=%v err=%v", changed, err)
	}
	changed, err = p.Settle("tx-2")
	if err != nil || changed {
		t.Fatalf("second settle changed=%v err=%v", changed, err)
	}
	if p.TransactionID != "tx-1" {
		t.Fatalf("transaction id overwritten: %s", p.TransactionID)
	}
	if _, err := p.Decline("late failure"); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("decline after settle: %v", err)
	}
}

func TestDeclineThenSettleRejected(t *testing.T) {
	p, _ := New("pay1", "o1", "paystack", "ref-1", 11000, nil)
	if changed, err := p.Decline("insufficient funds"); err != nil || !changed {
		t.Fatalf("decline changed=%v err=%v", changed, err)
	}
	if changed, err := p.Decline("again"); err != nil || changed {
		t.Fatalf("second decline changed=%v err=%v", changed, err)
	}
	if p.FailureMessage != "insufficient funds" {
		t.Fatalf("message = %q", p.FailureMessage)
	}
	if _, err := p.Settle("tx"); !errors.Is(err, ErrAlreadyDeclined) {
		t.Fatalf("settle after decline: %v", err)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New("pay1", "o1", "paystack", "ref", 0, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := New("pay1", "o1", "paystack", "", 10, nil); err == nil {
		t.Fatalf("expected missing reference error")
	}
}
