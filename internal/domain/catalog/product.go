package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrUnavailable       = errors.New("catalog: product unavailable")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// Product is the catalog view the checkout flow depends on. Prices are in
// minor currency units.
type Product struct {
	ID          string
	Name        string
	Enabled     bool
	StockOnHand int
	Price       int64
	SalePrice   int64
	UpdatedAt   time.Time
}

// EffectivePrice is the sale price when one is set below the list price.
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice > 0 && p.SalePrice < p.Price {
		return p.SalePrice
	}
	return p.Price
}

// CheckAvailable reports whether quantity units can be sold right now.
func (p *Product) CheckAvailable(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !p.Enabled {
		return ErrUnavailable
	}
	if quantity > p.StockOnHand {
		return ErrInsufficientStock
	}
	return nil
}

// Deduct decrements stock on hand, re-checking availability first.
func (p *Product) Deduct(quantity int) error {
	if err := p.CheckAvailable(quantity); err != nil {
		return err
	}
	p.StockOnHand -= quantity
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
