package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// OrderService is the order lifecycle manager and query surface. Status
// is the only mutable order field; items, totals and the shipping
// address are frozen at checkout.
type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// Pay is the one self-service transition: pending -> paid, performed by
// the order's owner. Ownership is part of the lookup filter, so paying
// a foreign order by guessing its id yields ErrNotFound. Already paid
// or completed orders short-circuit with their current status, which
// makes the action safe to retry.
func (s *OrderService) Pay(ctx context.Context, userID, orderID string) (domain.OrderStatus, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return "", ErrNotFound
	}

	order, err := s.orders.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if order.Status == domain.OrderStatusPaid || order.Status == domain.OrderStatusCompleted {
		return order.Status, nil
	}

	if err := s.orders.UpdateStatusForUser(ctx, id, userID, domain.OrderStatusPaid); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	return domain.OrderStatusPaid, nil
}

// SetStatus is the administrator's blunt transition: any recognized
// status may be written over any current one.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return ErrNotFound
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// ListOrders returns the user's own orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.orders.ListByUser(ctx, userID)
}

// ListAllOrders returns every order, newest first. Admin callers only;
// the HTTP layer gates on role.
func (s *OrderService) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// SalesStats summarizes units sold and revenue over paid and completed
// orders, per product and in total.
func (s *OrderService) SalesStats(ctx context.Context) (*domain.SalesReport, error) {
	rows, err := s.orders.SalesByProduct(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.SalesReport{Products: rows}
	for _, row := range rows {
		report.TotalUnits += row.UnitsSold
		report.TotalRevenue += row.Revenue
	}

	return report, nil
}
