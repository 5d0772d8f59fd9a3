package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"storefront/internal/domain"
)

// BreakerCache wraps a CartCache in a circuit breaker. When the backing
// cache keeps failing the breaker opens and calls return immediately
// with an error, letting the service fall back to the repository
// without waiting on a dead cache. A cache miss is not a failure.
type BreakerCache struct {
	inner CartCache
	get   *gobreaker.CircuitBreaker[*domain.Cart]
	write *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerCache(inner CartCache) *BreakerCache {
	settings := gobreaker.Settings{
		Name:    "cart-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
	}

	return &BreakerCache{
		inner: inner,
		get:   gobreaker.NewCircuitBreaker[*domain.Cart](settings),
		write: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *BreakerCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return b.get.Execute(func() (*domain.Cart, error) {
		return b.inner.Get(ctx, userID)
	})
}

func (b *BreakerCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	_, err := b.write.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Set(ctx, userID, cart)
	})
	return err
}

func (b *BreakerCache) Delete(ctx context.Context, userID string) error {
	_, err := b.write.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Delete(ctx, userID)
	})
	return err
}
