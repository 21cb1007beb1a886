package order

import (
	"errors"
	"testing"
)

func validDraft() Draft {
	return Draft{
		ID:                "o1",
		Code:              "ORD-1",
		CustomerID:        "c1",
		ShippingAddressID: "a1",
		Lines:             []Line{{ProductID: "p1", Quantity: 2, UnitPrice: 5000}},
		Totals:            Totals{SubTotal: 8621, Shipping: 862, Tax: 1517, Total: 11000},
	}
}

func TestNewDefaults(t *testing.T) {
	o, err := New(validDraft())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if o.Status != StatusCreated {
		t.Fatalf("status = %s", o.Status)
	}
	if o.Currency != DefaultCurrency {
		t.Fatalf("currency = %s", o.Currency)
	}
	if o.BillingAddressID != "a1" {
		t.Fatalf("billing should default to shipping, got %q", o.BillingAddressID)
	}
	if o.Lines[0].LineTotal != 10000 || o.Lines[0].OrderID != "o1" {
		t.Fatalf("line not captured: %+v", o.Lines[0])
	}
}

func TestNewRejectsBadTotals(t *testing.T) {
	d := validDraft()
	d.Totals.Total++
	if _, err := New(d); !errors.Is(err, ErrTotalsMismatch) {
		t.Fatalf("expected totals mismatch, got %v", err)
	}

	d = validDraft()
	d.Lines = nil
	if _, err := New(d); !errors.Is(err, ErrNoLines) {
		t.Fatalf("expected no lines, got %v", err)
	}

	d = validDraft()
	d.Lines[0].Quantity = 0
	if _, err := New(d); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	o, _ := New(validDraft())
	c := o.Clone()
	c.Lines[0].Quantity = 99
	if o.Lines[0].Quantity == 99 {
		t.Fatalf("clone shares lines")
	}
}
