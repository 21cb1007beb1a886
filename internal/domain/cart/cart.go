package cart

import (
	"context"
	"errors"
	"sort"
)

var ErrInvalidQuantity = errors.New("cart: quantity must be zero or greater")

type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart belongs to an owner: a customer id or a guest session id.
type Cart struct {
	Owner string `json:"owner"`
	Lines []Line `json:"lines"`
}

// SetQuantity replaces the quantity of a product; zero removes it.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	out := c.Lines[:0]
	found := false
	for _, l := range c.Lines {
		if l.ProductID == productID {
			found = true
			if quantity == 0 {
				continue
			}
			l.Quantity = quantity
		}
		out = append(out, l)
	}
	if !found && quantity > 0 {
		out = append(out, Line{ProductID: productID, Quantity: quantity})
	}
	c.Lines = out
	sort.Slice(c.Lines, func(i, j int) bool { return c.Lines[i].ProductID < c.Lines[j].ProductID })
	return nil
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

type Repository interface {
	// Get returns an empty cart when the owner has none.
	Get(ctx context.Context, owner string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, owner string) error
}
