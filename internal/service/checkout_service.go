package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// EventTypeOrderCreated is written to the outbox in the checkout
// transaction and published to the order events topic by the poller.
const EventTypeOrderCreated = "order.created"

// CheckoutService converts a mutable cart into an immutable priced
// order. All of its side effects (order insert, stock decrements, cart
// clear, outbox append) happen inside one transaction.
type CheckoutService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	outbox   repository.OutboxRepository
	txn      repository.TxnRunner
	cache    cache.CartCache
}

func NewCheckoutService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	outbox repository.OutboxRepository,
	txn repository.TxnRunner,
	cartCache cache.CartCache,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		orders:   orders,
		outbox:   outbox,
		txn:      txn,
		cache:    cartCache,
	}
}

// PlaceOrder creates exactly one order from the user's current cart, or
// fails without side effects. On success the cart is empty and stock
// has been decremented (floored at zero) for every resolved line.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID string, address domain.ShippingAddress) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}

	address = address.Normalized()
	if !address.Complete() {
		return "", validationError("incomplete address")
	}

	var orderID string
	err := s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		order, err := s.buildOrder(txCtx, userID, address)
		if err != nil {
			return err
		}

		if err := s.orders.Create(txCtx, order); err != nil {
			return err
		}

		if err := s.carts.ClearItems(txCtx, userID); err != nil {
			return err
		}

		if err := s.appendCreatedEvent(txCtx, order); err != nil {
			return err
		}

		orderID = order.ID.Hex()
		return nil
	})
	if err != nil {
		return "", err
	}

	s.invalidateCartCache(userID)
	return orderID, nil
}

// buildOrder resolves the cart against the product ledger, snapshotting
// each line and decrementing stock as it goes. Lines whose product no
// longer exists are skipped rather than failing the whole checkout.
func (s *CheckoutService) buildOrder(ctx context.Context, userID string, address domain.ShippingAddress) (*domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, validationError("empty cart")
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, validationError("empty cart")
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	var subtotal int64

	for _, line := range cart.Items {
		product, err := s.products.DecrementStockClamped(ctx, line.ProductID, line.Quantity)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				log.Printf("checkout: skipping vanished product %s for user %s", line.ProductID.Hex(), userID)
				continue
			}
			return nil, err
		}

		subtotal += product.Price * line.Quantity
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			ImageURL:  product.ImageURL,
			Quantity:  line.Quantity,
		})
	}

	if len(items) == 0 {
		return nil, validationError("no valid items")
	}

	return &domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		Subtotal:        subtotal,
		ShippingCost:    domain.ShippingFlatFee,
		Total:           subtotal + domain.ShippingFlatFee,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   domain.PaymentMethodManual,
	}, nil
}

func (s *CheckoutService) appendCreatedEvent(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":   order.ID.Hex(),
		"user_id":    order.UserID,
		"items":      order.Items,
		"subtotal":   order.Subtotal,
		"total":      order.Total,
		"status":     order.Status,
		"created_at": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order payload: %w", err)
	}

	return s.outbox.Append(ctx, &repository.OutboxEvent{
		EventID:     uuid.NewString(),
		EventType:   EventTypeOrderCreated,
		AggregateID: order.ID.Hex(),
		Payload:     payload,
	})
}

func (s *CheckoutService) invalidateCartCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
