package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/shipping"
)

type productRepo struct{ st *state }

func (r productRepo) Get(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p.Clone(), nil
}

// GetForUpdate needs no extra locking: the store lock is already held.
func (r productRepo) GetForUpdate(ctx context.Context, id string) (*catalog.Product, error) {
	return r.Get(ctx, id)
}

func (r productRepo) DecrementStock(_ context.Context, id string, quantity int) error {
	p, ok := r.st.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if quantity <= 0 {
		return catalog.ErrInvalidQuantity
	}
	if p.StockOnHand < quantity {
		return catalog.ErrInsufficientStock
	}
	next := p.Clone()
	next.StockOnHand -= quantity
	r.st.products[id] = next
	return nil
}

func (r productRepo) Save(_ context.Context, p *catalog.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	r.st.products[p.ID] = p.Clone()
	return nil
}

type orderRepo struct{ st *state }

func idemKey(customerID, key string) string { return customerID + "\x00" + key }

func (r orderRepo) Insert(_ context.Context, o *order.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, exists := r.st.orders[o.ID]; exists {
		return order.ErrConflict
	}
	if o.IdempotencyKey != "" {
		if _, exists := r.st.orderIdem[idemKey(o.CustomerID, o.IdempotencyKey)]; exists {
			return order.ErrConflict
		}
		r.st.orderIdem[idemKey(o.CustomerID, o.IdempotencyKey)] = o.ID
	}
	r.st.orders[o.ID] = o.Clone()
	return nil
}

func (r orderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

// GetForUpdate is Get; the store lock already serializes units of work.
func (r orderRepo) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r orderRepo) Update(_ context.Context, o *order.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, exists := r.st.orders[o.ID]; !exists {
		return order.ErrNotFound
	}
	r.st.orders[o.ID] = o.Clone()
	return nil
}

func (r orderRepo) FindByIdempotency(ctx context.Context, customerID, key string) (*order.Order, error) {
	if key == "" {
		return nil, order.ErrNotFound
	}
	id, ok := r.st.orderIdem[idemKey(customerID, key)]
	if !ok {
		return nil, order.ErrNotFound
	}
	return r.Get(ctx, id)
}

type paymentRepo struct{ st *state }

func (r paymentRepo) Insert(_ context.Context, p *payment.Payment) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}
	if _, exists := r.st.paymentRefs[p.Reference]; exists {
		return payment.ErrDuplicateReference
	}
	r.st.payments[p.ID] = p.Clone()
	r.st.paymentRefs[p.Reference] = p.ID
	return nil
}

func (r paymentRepo) GetByReference(_ context.Context, reference string) (*payment.Payment, error) {
	id, ok := r.st.paymentRefs[reference]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return r.st.payments[id].Clone(), nil
}

func (r paymentRepo) Update(_ context.Context, p *payment.Payment) error {
	if p == nil {
		return fmt.Errorf("payment repository: payment is required")
	}
	if _, exists := r.st.payments[p.ID]; !exists {
		return payment.ErrNotFound
	}
	r.st.payments[p.ID] = p.Clone()
	return nil
}

// ListByOrder returns the order's payments oldest first.
func (r paymentRepo) ListByOrder(_ context.Context, orderID string) ([]*payment.Payment, error) {
	var out []*payment.Payment
	for _, p := range r.st.payments {
		if p.OrderID == orderID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type customerRepo struct{ st *state }

func (r customerRepo) Get(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := r.st.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r customerRepo) EnsureByEmail(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	if id, ok := r.st.customerEmails[c.Email]; ok {
		return r.Get(ctx, id)
	}
	cp := *c
	r.st.customers[c.ID] = &cp
	r.st.customerEmails[c.Email] = c.ID
	out := cp
	return &out, nil
}

type addressRepo struct{ st *state }

func (r addressRepo) Insert(_ context.Context, a *customer.Address) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("address repository: id is required")
	}
	if _, exists := r.st.addresses[a.ID]; exists {
		return fmt.Errorf("address repository: %s already exists", a.ID)
	}
	cp := *a
	r.st.addresses[a.ID] = &cp
	return nil
}

func (r addressRepo) Get(_ context.Context, id string) (*customer.Address, error) {
	a, ok := r.st.addresses[id]
	if !ok {
		return nil, customer.ErrAddressNotFound
	}
	cp := *a
	return &cp, nil
}

type shippingRepo struct{ st *state }

func (r shippingRepo) FindByIDOrCode(_ context.Context, key string) (*shipping.Method, error) {
	if m, ok := r.st.methods[key]; ok {
		cp := *m
		return &cp, nil
	}
	for _, m := range r.st.methods {
		if m.Code == key {
			cp := *m
			return &cp, nil
		}
	}
	return nil, shipping.ErrNotFound
}

func (r shippingRepo) Save(_ context.Context, m *shipping.Method) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("shipping repository: id is required")
	}
	cp := *m
	r.st.methods[m.ID] = &cp
	return nil
}
