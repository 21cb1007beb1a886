package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"
)

type stockLine struct {
	product  *catalog.Product
	quantity int
}

// aggregate merges duplicate products and orders lines by product id, which
// is also the order rows are locked in.
func aggregate(lines []cart.Line) ([]string, map[string]int, error) {
	qty := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, nil, apperr.Validation("product id is required")
		}
		if l.Quantity <= 0 {
			return nil, nil, apperr.Validation("quantity for %s must be greater than zero", l.ProductID)
		}
		qty[l.ProductID] += l.Quantity
	}
	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, qty, nil
}

// validateStock locks each product row and checks it can be sold. It must
// run in the same unit of work as decrementStock.
func validateStock(ctx context.Context, repo catalog.Repository, rejections observability.Counter, lines []cart.Line) ([]stockLine, error) {
	ids, qty, err := aggregate(lines)
	if err != nil {
		return nil, err
	}
	out := make([]stockLine, 0, len(ids))
	for _, id := range ids {
		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				rejections.Add(1, observability.L("reason", "missing"))
				return nil, apperr.Wrap(apperr.CodeProductUnavailable, fmt.Sprintf("product %s is unavailable", id), err)
			}
			return nil, fmt.Errorf("checkout: load product %s: %w", id, err)
		}
		if err := p.CheckAvailable(qty[id]); err != nil {
			return nil, stockError(rejections, p, err)
		}
		out = append(out, stockLine{product: p, quantity: qty[id]})
	}
	return out, nil
}

// decrementStock relies on the repository's conditional update, so a
// concurrent writer that slipped past validation still cannot oversell.
func decrementStock(ctx context.Context, repo catalog.Repository, rejections observability.Counter, lines []stockLine) error {
	for _, l := range lines {
		if err := repo.DecrementStock(ctx, l.product.ID, l.quantity); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) || errors.Is(err, catalog.ErrUnavailable) {
				return stockError(rejections, l.product, err)
			}
			return fmt.Errorf("checkout: decrement %s: %w", l.product.ID, err)
		}
	}
	return nil
}

func stockError(rejections observability.Counter, p *catalog.Product, err error) error {
	switch {
	case errors.Is(err, catalog.ErrUnavailable):
		rejections.Add(1, observability.L("reason", "disabled"))
		return apperr.Wrap(apperr.CodeProductUnavailable, fmt.Sprintf("product %s is unavailable", p.ID), err)
	case errors.Is(err, catalog.ErrInsufficientStock):
		rejections.Add(1, observability.L("reason", "out_of_stock"))
		return apperr.Wrap(apperr.CodeOutOfStock, fmt.Sprintf("product %s is out of stock", p.ID), err)
	case errors.Is(err, catalog.ErrInvalidQuantity):
		return apperr.Wrap(apperr.CodeValidation, err.Error(), err)
	}
	return err
}
