package catalog

import (
	"errors"
	"testing"
)

func TestCheckAvailable(t *testing.T) {
	cases := []struct {
		name    string
		product Product
		qty     int
		want    error
	}{
		{"ok", Product{Enabled: true, StockOnHand: 3}, 3, nil},
		{"disabled", Product{Enabled: false, StockOnHand: 3}, 1, ErrUnavailable},
		{"short", Product{Enabled: true, StockOnHand: 1}, 2, ErrInsufficientStock},
		{"zero qty", Product{Enabled: true, StockOnHand: 1}, 0, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.product.CheckAvailable(tc.qty); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDeductNeverGoesNegative(t *testing.T) {
	p := &Product{ID: "p1", Enabled: true, StockOnHand: 2}
	if err := p.Deduct(2); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if err := p.Deduct(1); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if p.StockOnHand != 0 {
		t.Fatalf("stock = %d", p.StockOnHand)
	}
}

func TestEffectivePrice(t *testing.T) {
	if got := (&Product{Price: 5000, SalePrice: 4500}).EffectivePrice(); got != 4500 {
		t.Fatalf("sale price not applied: %d", got)
	}
	if got := (&Product{Price: 5000, SalePrice: 6000}).EffectivePrice(); got != 5000 {
		t.Fatalf("sale above list must be ignored: %d", got)
	}
	if got := (&Product{Price: 5000}).EffectivePrice(); got != 5000 {
		t.Fatalf("list price: %d", got)
	}
}
