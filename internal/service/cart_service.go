package service

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cartCache cache.CartCache) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cartCache,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) {
			// a user without a cart just has an empty one
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// GetCartLines resolves each cart item against the catalog. Lines whose
// product has vanished are dropped from the view, not from the cart.
func (s *CartService) GetCartLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		lines = append(lines, domain.CartLine{Product: *product, Quantity: item.Quantity})
	}

	return lines, nil
}

// AddItem puts qty units of a product into the user's cart. The product
// must exist and be active; quantities accumulate across calls.
func (s *CartService) AddItem(ctx context.Context, userID string, productID string, qty int64) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if qty <= 0 {
		return validationError("quantity must be positive")
	}

	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return ErrNotFound
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !product.IsActive {
		return ErrNotFound
	}

	if errAdd := s.repo.AddItem(ctx, userID, domain.CartItem{ProductID: id, Quantity: qty}); errAdd != nil {
		log.Printf("repo add item error: %v", errAdd)
		return errAdd
	}

	s.invalidateCache(userID)
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
// A missing cart or line is treated as success, matching the mutable,
// best-effort nature of pre-checkout state.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID string, qty int64) error {
	if userID == "" {
		return ErrNotAuthenticated
	}

	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return validationError("invalid product id")
	}

	if qty <= 0 {
		errRemove := s.repo.RemoveItem(ctx, userID, id)
		if errRemove != nil && !errors.Is(errRemove, repository.ErrCartNotFound) {
			log.Printf("repo remove item error: %v", errRemove)
			return errRemove
		}
	} else {
		errUpdate := s.repo.UpdateItemQuantity(ctx, userID, id, qty)
		if errUpdate != nil && !errors.Is(errUpdate, repository.ErrItemNotFound) {
			log.Printf("repo update item quantity error: %v", errUpdate)
			return errUpdate
		}
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
