package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	goredis "github.com/redis/go-redis/v9"
)

// CartRepository stores each cart as one JSON value. Every write refreshes
// the TTL so abandoned guest carts expire on their own.
type CartRepository struct {
	client      goredis.UniversalClient
	serviceName string
	ttl         time.Duration
}

var _ cart.Repository = (*CartRepository)(nil)

func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr})
}

func NewCartRepository(client goredis.UniversalClient, serviceName string, ttl time.Duration) *CartRepository {
	return &CartRepository{client: client, serviceName: serviceName, ttl: ttl}
}

func (r *CartRepository) key(owner string) string {
	return fmt.Sprintf("%s:cart:%s", r.serviceName, owner)
}

func (r *CartRepository) Get(ctx context.Context, owner string) (*cart.Cart, error) {
	raw, err := r.client.Get(ctx, r.key(owner)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return &cart.Cart{Owner: owner}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get cart: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("redis: decode cart: %w", err)
	}
	c.Owner = owner
	return &c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	if c.Empty() {
		return r.Clear(ctx, c.Owner)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("redis: encode cart: %w", err)
	}
	if err := r.client.Set(ctx, r.key(c.Owner), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save cart: %w", err)
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, r.key(owner)).Err(); err != nil {
		return fmt.Errorf("redis: clear cart: %w", err)
	}
	return nil
}
