// Package pricing turns captured line prices and a shipping cost into order
// totals. A single tax rate applies to every line and to shipping; there is
// no per-product or per-jurisdiction rate.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRate     = errors.New("pricing: tax rate must be in [0, 1)")
	ErrInvalidLine     = errors.New("pricing: line price and quantity must be positive")
	ErrInvalidShipping = errors.New("pricing: shipping must be zero or greater")
)

type LineItem struct {
	UnitPrice int64
	Quantity  int
}

// Totals are rounded to whole minor units. Total always equals
// SubTotal + Shipping + Tax; SubTotal absorbs the rounding remainder.
type Totals struct {
	ItemTotal int64
	SubTotal  int64
	Shipping  int64
	Tax       int64
	Total     int64
}

type Calculator struct {
	rate      decimal.Decimal
	inclusive bool
}

func NewCalculator(rate decimal.Decimal, pricesIncludeTax bool) (*Calculator, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, ErrInvalidRate
	}
	return &Calculator{rate: rate, inclusive: pricesIncludeTax}, nil
}

func (c *Calculator) Rate() decimal.Decimal { return c.rate }

func (c *Calculator) PricesIncludeTax() bool { return c.inclusive }

func (c *Calculator) Compute(items []LineItem, shipping int64) (Totals, error) {
	if shipping < 0 {
		return Totals{}, ErrInvalidShipping
	}
	itemTotal := decimal.Zero
	for _, it := range items {
		if it.UnitPrice < 0 || it.Quantity <= 0 {
			return Totals{}, ErrInvalidLine
		}
		itemTotal = itemTotal.Add(decimal.NewFromInt(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	ship := decimal.NewFromInt(shipping)

	if c.inclusive {
		return c.splitInclusive(itemTotal, ship), nil
	}
	return c.addExclusive(itemTotal, ship), nil
}

// splitInclusive extracts the tax already contained in items and shipping.
// Nothing is rounded until the final figures are produced.
func (c *Calculator) splitInclusive(items, ship decimal.Decimal) Totals {
	divisor := decimal.NewFromInt(1).Add(c.rate)

	itemsExclusive := items.Div(divisor)
	shipExclusive := ship.Div(divisor)
	itemTax := items.Sub(itemsExclusive)
	shipTax := ship.Sub(shipExclusive)

	total := items.Add(ship).IntPart()
	tax := itemTax.Add(shipTax).Round(0).IntPart()
	shipping := shipExclusive.Round(0).IntPart()

	return Totals{
		ItemTotal: items.IntPart(),
		SubTotal:  total - shipping - tax,
		Shipping:  shipping,
		Tax:       tax,
		Total:     total,
	}
}

func (c *Calculator) addExclusive(items, ship decimal.Decimal) Totals {
	tax := items.Mul(c.rate).Add(ship.Mul(c.rate)).Round(0).IntPart()
	sub := items.IntPart()
	shipping := ship.IntPart()
	return Totals{
		ItemTotal: sub,
		SubTotal:  sub,
		Shipping:  shipping,
		Tax:       tax,
		Total:     sub + shipping + tax,
	}
}
