package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/domain"
)

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

func (o orderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	result, err := o.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (o orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	return o.findOne(ctx, bson.M{"_id": id})
}

func (o orderRepository) GetByIDForUser(ctx context.Context, id primitive.ObjectID, userID string) (*domain.Order, error) {
	return o.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

func (o orderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var order domain.Order

	err := o.collection.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (o orderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error {
	return o.updateStatus(ctx, bson.M{"_id": id}, status)
}

func (o orderRepository) UpdateStatusForUser(ctx context.Context, id primitive.ObjectID, userID string, status domain.OrderStatus) error {
	return o.updateStatus(ctx, bson.M{"_id": id, "user_id": userID}, status)
}

// updateStatus touches only the status field; everything else on an
// order is immutable after creation.
func (o orderRepository) updateStatus(ctx context.Context, filter bson.M, status domain.OrderStatus) error {
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}}

	result, err := o.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (o orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return o.list(ctx, bson.M{"user_id": userID})
}

func (o orderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return o.list(ctx, bson.M{})
}

func (o orderRepository) list(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := o.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var order domain.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("order cursor error: %w", err)
	}

	return orders, nil
}

// SalesByProduct aggregates units and revenue per product over paid and
// completed orders. Revenue uses the item price snapshots, so later
// catalog price edits do not distort history.
func (o orderRepository) SalesByProduct(ctx context.Context) ([]domain.ProductSales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$in": bson.A{
			domain.OrderStatusPaid, domain.OrderStatusCompleted,
		}}}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$items.product_id",
			"name":       bson.M{"$first": "$items.name"},
			"units_sold": bson.M{"$sum": "$items.quantity"},
			"revenue": bson.M{"$sum": bson.M{
				"$multiply": bson.A{"$items.quantity", "$items.price"},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "units_sold", Value: -1}}}},
	}

	cursor, err := o.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []domain.ProductSales
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode sales rows: %w", err)
	}

	return rows, nil
}
