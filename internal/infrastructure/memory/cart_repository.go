package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
)

// CartRepository keeps carts in process memory. Used when no Redis address is configured.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string][]cart.Line
}

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string][]cart.Line)}
}

func (r *CartRepository) Get(_ context.Context, owner string) (*cart.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &cart.Cart{Owner: owner, Lines: append([]cart.Line(nil), r.carts[owner]...)}, nil
}

func (r *CartRepository) Save(_ context.Context, c *cart.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Empty() {
		delete(r.carts, c.Owner)
		return nil
	}
	r.carts[c.Owner] = append([]cart.Line(nil), c.Lines...)
	return nil
}

func (r *CartRepository) Clear(_ context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, owner)
	return nil
}
