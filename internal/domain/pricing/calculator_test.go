package pricing

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func mustCalc(t *testing.T, rate string, inclusive bool) *Calculator {
	t.Helper()
	c, err := NewCalculator(decimal.RequireFromString(rate), inclusive)
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	return c
}

func TestInclusiveScenario(t *testing.T) {
	c := mustCalc(t, "0.16", true)
	got, err := c.Compute([]LineItem{{UnitPrice: 5000, Quantity: 2}}, 1000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := Totals{ItemTotal: 10000, SubTotal: 8621, Shipping: 862, Tax: 1517, Total: 11000}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExclusive(t *testing.T) {
	c := mustCalc(t, "0.16", false)
	got, err := c.Compute([]LineItem{{UnitPrice: 5000, Quantity: 2}}, 1000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := Totals{ItemTotal: 10000, SubTotal: 10000, Shipping: 1000, Tax: 1760, Total: 12760}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTotalsIdentityHoldsForRandomCarts(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, inclusive := range []bool{true, false} {
		c := mustCalc(t, "0.16", inclusive)
		for i := 0; i < 500; i++ {
			n := 1 + r.Intn(6)
			items := make([]LineItem, n)
			for j := range items {
				items[j] = LineItem{UnitPrice: int64(1 + r.Intn(99999)), Quantity: 1 + r.Intn(9)}
			}
			got, err := c.Compute(items, int64(r.Intn(5000)))
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if got.Total != got.SubTotal+got.Shipping+got.Tax {
				t.Fatalf("identity broken (inclusive=%v): %+v", inclusive, got)
			}
			if got.SubTotal < 0 || got.Tax < 0 {
				t.Fatalf("negative component: %+v", got)
			}
		}
	}
}

func TestRoundingOnlyAtTheEnd(t *testing.T) {
	// Each line carries 0.1379 of tax. Rounding per line would yield 0.
	c := mustCalc(t, "0.16", true)
	items := make([]LineItem, 10)
	for i := range items {
		items[i] = LineItem{UnitPrice: 1, Quantity: 1}
	}
	got, _ := c.Compute(items, 0)
	if got.Tax != 1 {
		t.Fatalf("tax = %d, want 1", got.Tax)
	}
}

func TestInvalidInput(t *testing.T) {
	if _, err := NewCalculator(decimal.RequireFromString("1.2"), true); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected invalid rate, got %v", err)
	}
	c := mustCalc(t, "0.16", true)
	if _, err := c.Compute([]LineItem{{UnitPrice: 10, Quantity: 0}}, 0); !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("expected invalid line, got %v", err)
	}
	if _, err := c.Compute(nil, -1); !errors.Is(err, ErrInvalidShipping) {
		t.Fatalf("expected invalid shipping, got %v", err)
	}
}
