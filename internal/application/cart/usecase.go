package cart

import (
	"context"
	"errors"
	"fmt"

	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService    = "cart-service"
	useCaseGet     = "cart.get"
	useCaseSetItem = "cart.set_item"
	useCaseClear   = "cart.clear"
)

type GetCartUseCase struct {
	repo domcart.Repository
	tel  observability.Observability
	log  observability.Logger
}

func NewGetCartUseCase(repo domcart.Repository, tel observability.Observability) *GetCartUseCase {
	tel = observability.OrNop(tel)
	return &GetCartUseCase{repo: repo, tel: tel, log: tel.Logger().With(observability.F("service", cartService))}
}

func (uc *GetCartUseCase) Execute(ctx context.Context, owner string) (_ *domcart.Cart, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseGet, "GetCart")
	defer func() { run.End(ctx, err) }()

	if owner == "" {
		run.Fail("OWNER_REQUIRED")
		return nil, apperr.Validation("session or customer id is required")
	}
	c, err := uc.repo.Get(ctx, owner)
	if err != nil {
		run.Fail("CART_LOAD_FAILED")
		return nil, apperr.Internal(err)
	}
	return c, nil
}

type SetItemInput struct {
	Owner     string
	ProductID string
	// Quantity replaces the current quantity; zero removes the line.
	Quantity int
}

// SetItemUseCase edits one cart line. Products must exist and be enabled to be
// added; stock is only enforced at checkout.
type SetItemUseCase struct {
	uow  uow.UnitOfWork
	repo domcart.Repository
	tel  observability.Observability
	log  observability.Logger
}

func NewSetItemUseCase(unit uow.UnitOfWork, repo domcart.Repository, tel observability.Observability) *SetItemUseCase {
	tel = observability.OrNop(tel)
	return &SetItemUseCase{uow: unit, repo: repo, tel: tel, log: tel.Logger().With(observability.F("service", cartService))}
}

func (uc *SetItemUseCase) Execute(ctx context.Context, in SetItemInput) (_ *domcart.Cart, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseSetItem, "SetCartItem",
		attribute.String("cart.product_id", in.ProductID),
		attribute.Int("cart.quantity", in.Quantity),
	)
	defer func() { run.End(ctx, err) }()

	switch {
	case in.Owner == "":
		run.Fail("OWNER_REQUIRED")
		return nil, apperr.Validation("session or customer id is required")
	case in.ProductID == "":
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, apperr.Validation("product_id is required")
	case in.Quantity < 0:
		run.Fail("QUANTITY_INVALID")
		return nil, apperr.Validation("quantity must be zero or greater")
	}

	if in.Quantity > 0 {
		err = uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
			p, err := tx.Products().Get(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if !p.Enabled {
				return catalog.ErrUnavailable
			}
			return nil
		})
		switch {
		case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrUnavailable):
			run.Fail("PRODUCT_UNAVAILABLE")
			return nil, apperr.Wrap(apperr.CodeProductUnavailable, fmt.Sprintf("product %s is unavailable", in.ProductID), err)
		case err != nil:
			run.Fail("PRODUCT_LOAD_FAILED")
			return nil, apperr.Internal(err)
		}
	}

	c, err := uc.repo.Get(ctx, in.Owner)
	if err != nil {
		run.Fail("CART_LOAD_FAILED")
		return nil, apperr.Internal(err)
	}
	if err := c.SetQuantity(in.ProductID, in.Quantity); err != nil {
		run.Fail("QUANTITY_INVALID")
		return nil, apperr.Wrap(apperr.CodeValidation, err.Error(), err)
	}
	if err := uc.repo.Save(ctx, c); err != nil {
		run.Fail("CART_SAVE_FAILED")
		return nil, apperr.Internal(err)
	}
	run.With(observability.F("lines", len(c.Lines)))
	return c, nil
}

type ClearCartUseCase struct {
	repo domcart.Repository
	tel  observability.Observability
	log  observability.Logger
}

func NewClearCartUseCase(repo domcart.Repository, tel observability.Observability) *ClearCartUseCase {
	tel = observability.OrNop(tel)
	return &ClearCartUseCase{repo: repo, tel: tel, log: tel.Logger().With(observability.F("service", cartService))}
}

func (uc *ClearCartUseCase) Execute(ctx context.Context, owner string) (_ struct{}, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseClear, "ClearCart")
	defer func() { run.End(ctx, err) }()

	if owner == "" {
		run.Status("NO_OWNER")
		return struct{}{}, nil
	}
	if err := uc.repo.Clear(ctx, owner); err != nil {
		run.Fail("CART_CLEAR_FAILED")
		return struct{}{}, fmt.Errorf("cart: clear %s: %w", owner, err)
	}
	return struct{}{}, nil
}
