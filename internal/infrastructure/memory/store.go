// Package memory is the in-process storage driver. Every unit of work runs
// under one store-wide lock against a copy of the data that replaces the
// committed copy only when the work succeeds.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
)

// Stored values are never mutated in place; writes swap in a fresh clone, so
// copying the maps is enough to isolate a transaction.
type state struct {
	products       map[string]*catalog.Product
	orders         map[string]*order.Order
	orderIdem      map[string]string
	payments       map[string]*payment.Payment
	paymentRefs    map[string]string
	customers      map[string]*customer.Customer
	customerEmails map[string]string
	addresses      map[string]*customer.Address
	methods        map[string]*shipping.Method
}

func newState() *state {
	return &state{
		products:       make(map[string]*catalog.Product),
		orders:         make(map[string]*order.Order),
		orderIdem:      make(map[string]string),
		payments:       make(map[string]*payment.Payment),
		paymentRefs:    make(map[string]string),
		customers:      make(map[string]*customer.Customer),
		customerEmails: make(map[string]string),
		addresses:      make(map[string]*customer.Address),
		methods:        make(map[string]*shipping.Method),
	}
}

func (s *state) clone() *state {
	return &state{
		products:       maps.Clone(s.products),
		orders:         maps.Clone(s.orders),
		orderIdem:      maps.Clone(s.orderIdem),
		payments:       maps.Clone(s.payments),
		paymentRefs:    maps.Clone(s.paymentRefs),
		customers:      maps.Clone(s.customers),
		customerEmails: maps.Clone(s.customerEmails),
		addresses:      maps.Clone(s.addresses),
		methods:        maps.Clone(s.methods),
	}
}

type Store struct {
	mu    sync.Mutex
	state *state
}

var _ uow.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{state: newState()}
}

// Do runs fn with exclusive access to the store. fn must not call Do again.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &txn{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type txn struct{ st *state }

func (t *txn) Products() catalog.Repository          { return productRepo{t.st} }
func (t *txn) Orders() order.Repository              { return orderRepo{t.st} }
func (t *txn) Payments() payment.Repository          { return paymentRepo{t.st} }
func (t *txn) Customers() customer.Repository        { return customerRepo{t.st} }
func (t *txn) Addresses() customer.AddressRepository { return addressRepo{t.st} }
func (t *txn) ShippingMethods() shipping.Repository  { return shippingRepo{t.st} }
