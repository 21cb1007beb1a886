package memory

import (
	"context"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
)

// Seed stores products and shipping methods in one unit of work.
func Seed(ctx context.Context, u uow.UnitOfWork, products []catalog.Product, methods []shipping.Method) error {
	return u.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		for i := range products {
			if err := tx.Products().Save(ctx, &products[i]); err != nil {
				return err
			}
		}
		for i := range methods {
			if err := tx.ShippingMethods().Save(ctx, &methods[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DemoProducts is the catalog the memory driver starts with.
func DemoProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "sku-tee", Name: "Cotton tee", Enabled: true, StockOnHand: 100, Price: 5000},
		{ID: "sku-mug", Name: "Enamel mug", Enabled: true, StockOnHand: 40, Price: 1800, SalePrice: 1500},
		{ID: "sku-cap", Name: "Canvas cap", Enabled: true, StockOnHand: 1, Price: 2500},
		{ID: "sku-poster", Name: "Tour poster", Enabled: false, StockOnHand: 10, Price: 1200},
	}
}

func DemoShippingMethods() []shipping.Method {
	return []shipping.Method{
		{ID: "ship-standard", Code: "standard", Name: "Standard delivery", Price: 1000, Enabled: true},
		{ID: "ship-express", Code: "express", Name: "Express delivery", Price: 2500, Enabled: true},
		{ID: "ship-pickup", Code: "pickup", Name: "Store pickup", Price: 0, Enabled: false},
	}
}
