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

type cartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{
		collection: db.Collection("carts"),
	}
}

func (c cartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := c.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// AddItem accumulates quantity onto an existing line or appends a new
// one, creating the cart lazily on first use.
func (c cartRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	now := time.Now()
	item.AddedAt = now

	filter := bson.M{"user_id": userID}

	var existingCart domain.Cart
	err := c.collection.FindOne(ctx, filter).Decode(&existingCart)

	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("failed to check existing cart: %w", err)
		}

		cart := &domain.Cart{
			UserID:    userID,
			Items:     []domain.CartItem{item},
			CreatedAt: now,
			UpdatedAt: now,
		}

		_, errInsert := c.collection.InsertOne(ctx, cart)
		if errInsert == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(errInsert) {
			return fmt.Errorf("failed to create cart with item: %w", errInsert)
		}

		// two first adds raced on the unique user_id index; the loser
		// joins the winner's cart through the update path
		if errFind := c.collection.FindOne(ctx, filter).Decode(&existingCart); errFind != nil {
			return fmt.Errorf("failed to reload cart after insert conflict: %w", errFind)
		}
	}

	return c.addLine(ctx, filter, existingCart, item, now)
}

func (c cartRepository) addLine(ctx context.Context, filter bson.M, cart domain.Cart, item domain.CartItem, now time.Time) error {
	for _, existingItem := range cart.Items {
		if existingItem.ProductID == item.ProductID {
			update := bson.M{
				"$inc": bson.M{"items.$[elem].quantity": item.Quantity},
				"$set": bson.M{
					"items.$[elem].added_at": now,
					"updated_at":             now,
				},
			}
			arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
				Filters: []interface{}{
					bson.M{"elem.product_id": item.ProductID},
				},
			})

			if _, err := c.collection.UpdateOne(ctx, filter, update, arrayFilters); err != nil {
				return fmt.Errorf("failed to update existing item: %w", err)
			}
			return nil
		}
	}

	update := bson.M{
		"$push": bson.M{"items": item},
		"$set":  bson.M{"updated_at": now},
	}

	if _, err := c.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to add new item: %w", err)
	}
	return nil
}

func (c cartRepository) UpdateItemQuantity(ctx context.Context, userID string, productID primitive.ObjectID, quantity int64) error {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := c.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (c cartRepository) RemoveItem(ctx context.Context, userID string, productID primitive.ObjectID) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := c.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (c cartRepository) ClearItems(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"items":      []domain.CartItem{},
			"updated_at": time.Now(),
		},
	}

	_, err := c.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
