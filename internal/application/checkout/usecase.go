package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/pricing"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService = "checkout-service"
	useCaseCheckout = "checkout.create"
	publishTimeout  = 300 * time.Millisecond
)

// errReplay aborts the unit of work when the idempotency key already has an order.
type errReplay struct{ order *order.Order }

func (e *errReplay) Error() string { return "checkout: idempotent replay of " + e.order.ID }

// CheckoutUseCase turns a cart into a CREATED order: stock is validated and
// decremented, totals priced, addresses resolved and the order inserted in
// one unit of work.
type CheckoutUseCase struct {
	uow       uow.UnitOfWork
	carts     cart.Repository
	calc      *pricing.Calculator
	ids       IDGenerator
	publisher domoutbox.Publisher
	currency  string

	tel        observability.Observability
	log        observability.Logger
	rejections observability.Counter
}

func NewCheckoutUseCase(
	unit uow.UnitOfWork,
	carts cart.Repository,
	calc *pricing.Calculator,
	ids IDGenerator,
	publisher domoutbox.Publisher,
	currency string,
	tel observability.Observability,
) *CheckoutUseCase {
	tel = observability.OrNop(tel)
	if currency == "" {
		currency = order.DefaultCurrency
	}
	return &CheckoutUseCase{
		uow:        unit,
		carts:      carts,
		calc:       calc,
		ids:        ids,
		publisher:  publisher,
		currency:   currency,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", checkoutService)),
		rejections: tel.Metrics().Counter(observability.MStockRejections),
	}
}

func (uc *CheckoutUseCase) Execute(ctx context.Context, in Input) (_ *Result, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseCheckout, "Checkout",
		attribute.String("checkout.cart_owner", in.CartOwner),
		attribute.Bool("checkout.idempotent", in.IdempotencyKey != ""),
	)
	defer func() { run.End(ctx, err) }()
	ctx = logctx.With(ctx, run.Logger())

	if err := validate(in); err != nil {
		run.Fail("INVALID_INPUT")
		return nil, err
	}

	c, err := uc.carts.Get(ctx, in.CartOwner)
	if err != nil {
		run.Fail("CART_LOAD_FAILED")
		return nil, apperr.Internal(fmt.Errorf("checkout: load cart: %w", err))
	}
	if c.Empty() {
		run.Fail("CART_EMPTY")
		return nil, apperr.Validation("cart is empty")
	}

	var created *order.Order
	err = uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		o, err := uc.assemble(ctx, tx, in, c)
		created = o
		return err
	})

	var replay *errReplay
	switch {
	case errors.As(err, &replay):
		return uc.replayed(run, replay.order), nil
	case errors.Is(err, order.ErrConflict) && in.IdempotencyKey != "":
		// A concurrent request with the same key committed first.
		if existing, lookupErr := uc.findExisting(ctx, in); lookupErr == nil {
			return uc.replayed(run, existing), nil
		}
		run.Fail("IDEMPOTENCY_CONFLICT")
		return nil, apperr.Conflict("checkout already in progress for this idempotency key", err)
	case errors.Is(err, uow.ErrLockTimeout):
		run.Fail("LOCK_TIMEOUT")
		return nil, apperr.Conflict("resource is busy, please retry", err)
	case err != nil:
		run.Fail(statusFor(err))
		var coded *apperr.Error
		if !errors.As(err, &coded) {
			err = apperr.Internal(err)
		}
		return nil, err
	}

	run.Span().SetAttributes(attribute.String("order.id", created.ID))
	run.Span().AddEvent("order.created", trace.WithAttributes(attribute.String("order.code", created.Code)))
	run.With(
		observability.F("order_id", created.ID),
		observability.F("order_code", created.Code),
		observability.F("total", created.Totals.Total),
	)

	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		start := time.Now()
		pubErr := uc.publisher.Publish(pubCtx, order.NewCreatedEvent(created, in.CartOwner))
		cancel()
		observability.ObserveExternal(uc.tel, "outbox", "order.created", start, pubErr)
		if pubErr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
			run.Span().RecordError(pubErr)
			run.With(observability.F("event_publish_error", pubErr.Error()))
		}
	}

	return resultOf(created, false), nil
}

func (uc *CheckoutUseCase) assemble(ctx context.Context, tx uow.Tx, in Input, c *cart.Cart) (*order.Order, error) {
	cust, err := uc.resolveCustomer(ctx, tx.Customers(), in)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		existing, err := tx.Orders().FindByIdempotency(ctx, cust.ID, in.IdempotencyKey)
		switch {
		case err == nil:
			return nil, &errReplay{order: existing}
		case !errors.Is(err, order.ErrNotFound):
			return nil, fmt.Errorf("checkout: idempotency lookup: %w", err)
		}
	}

	stock, err := validateStock(ctx, tx.Products(), uc.rejections, c.Lines)
	if err != nil {
		return nil, err
	}

	method, err := resolveShippingMethod(ctx, tx.ShippingMethods(), in.ShippingMethod)
	if err != nil {
		return nil, err
	}

	items := make([]pricing.LineItem, len(stock))
	lines := make([]order.Line, len(stock))
	for i, s := range stock {
		price := s.product.EffectivePrice()
		items[i] = pricing.LineItem{UnitPrice: price, Quantity: s.quantity}
		lines[i] = order.Line{
			ID:          uc.ids.NewID(),
			ProductID:   s.product.ID,
			ProductName: s.product.Name,
			Quantity:    s.quantity,
			UnitPrice:   price,
		}
	}
	var shippingCost int64
	var methodID string
	if method != nil {
		shippingCost, methodID = method.Price, method.ID
	}
	totals, err := uc.calc.Compute(items, shippingCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "cart cannot be priced", err)
	}

	shipID, err := resolveAddress(ctx, tx.Addresses(), uc.ids, cust.ID, "shipping", in.ShippingAddress)
	if err != nil {
		return nil, err
	}
	billID := shipID
	if in.BillingAddress != nil {
		if billID, err = resolveAddress(ctx, tx.Addresses(), uc.ids, cust.ID, "billing", *in.BillingAddress); err != nil {
			return nil, err
		}
	}

	o, err := order.New(order.Draft{
		ID:                uc.ids.NewID(),
		Code:              uc.ids.NewOrderCode(),
		CustomerID:        cust.ID,
		Currency:          uc.currency,
		ShippingAddressID: shipID,
		BillingAddressID:  billID,
		ShippingMethodID:  methodID,
		IdempotencyKey:    in.IdempotencyKey,
		Lines:             lines,
		Totals: order.Totals{
			SubTotal: totals.SubTotal,
			Shipping: totals.Shipping,
			Tax:      totals.Tax,
			Total:    totals.Total,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: construct order: %w", err)
	}
	if err := tx.Orders().Insert(ctx, o); err != nil {
		return nil, err
	}
	if err := decrementStock(ctx, tx.Products(), uc.rejections, stock); err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *CheckoutUseCase) resolveCustomer(ctx context.Context, repo customer.Repository, in Input) (*customer.Customer, error) {
	if in.CustomerID != "" {
		c, err := repo.Get(ctx, in.CustomerID)
		if err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return nil, apperr.NotFound("customer", err)
			}
			return nil, fmt.Errorf("checkout: load customer: %w", err)
		}
		return c, nil
	}
	guest, err := customer.New(uc.ids.NewID(), in.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "email is invalid", err)
	}
	c, err := repo.EnsureByEmail(ctx, guest)
	if err != nil {
		return nil, fmt.Errorf("checkout: ensure customer: %w", err)
	}
	return c, nil
}

// resolveShippingMethod returns nil when no method was requested.
func resolveShippingMethod(ctx context.Context, repo shipping.Repository, key string) (*shipping.Method, error) {
	if key == "" {
		return nil, nil
	}
	m, err := repo.FindByIDOrCode(ctx, key)
	if err != nil {
		if errors.Is(err, shipping.ErrNotFound) {
			return nil, apperr.Wrap(apperr.CodeValidation, fmt.Sprintf("shipping method %s is not available", key), err)
		}
		return nil, fmt.Errorf("checkout: load shipping method: %w", err)
	}
	if !m.Enabled {
		return nil, apperr.Validation("shipping method %s is not available", key)
	}
	return m, nil
}

func (uc *CheckoutUseCase) findExisting(ctx context.Context, in Input) (*order.Order, error) {
	var found *order.Order
	err := uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		cust, err := uc.resolveCustomer(ctx, tx.Customers(), in)
		if err != nil {
			return err
		}
		found, err = tx.Orders().FindByIdempotency(ctx, cust.ID, in.IdempotencyKey)
		return err
	})
	return found, err
}

func (uc *CheckoutUseCase) replayed(run *observability.Run, o *order.Order) *Result {
	run.Status("IDEMPOTENT_REPLAY")
	run.Span().AddEvent("order.idempotent_replay", trace.WithAttributes(attribute.String("order.id", o.ID)))
	run.With(observability.F("order_id", o.ID))
	return resultOf(o, true)
}

func validate(in Input) error {
	if in.CartOwner == "" {
		return apperr.Validation("session or customer id is required")
	}
	if in.CustomerID == "" && customer.NormalizeEmail(in.Email) == "" {
		return apperr.Validation("email is required")
	}
	if err := validateAddressInput("shipping", in.ShippingAddress); err != nil {
		return err
	}
	if in.BillingAddress != nil {
		if err := validateAddressInput("billing", *in.BillingAddress); err != nil {
			return err
		}
	}
	return nil
}

func statusFor(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeOutOfStock:
		return "OUT_OF_STOCK"
	case apperr.CodeProductUnavailable:
		return "PRODUCT_UNAVAILABLE"
	case apperr.CodeValidation:
		return "INVALID_INPUT"
	case apperr.CodeNotFound:
		return "NOT_FOUND"
	}
	return "ASSEMBLY_FAILED"
}
