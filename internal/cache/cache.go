package cache

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

var ErrCacheMiss = errors.New("cart not found in cache")

// CartCache is a read-through cache for carts. A failing cache is never
// fatal to callers; they fall back to the repository.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
