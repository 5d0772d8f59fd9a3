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

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection("products"),
	}
}

func (p productRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product

	err := p.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

func (p productRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var product domain.Product

	err := p.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by slug: %w", err)
	}

	return &product, nil
}

func (p productRepository) ListActive(ctx context.Context, limit int64) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := p.collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}

	return decodeProducts(ctx, cursor)
}

func (p productRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := p.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return decodeProducts(ctx, cursor)
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Product, error) {
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var product domain.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, &product)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("product cursor error: %w", err)
	}

	return products, nil
}

func (p productRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	result, err := p.collection.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}

func (p productRepository) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now()

	filter := bson.M{"_id": product.ID}
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"category":    product.Category,
		"price":       product.Price,
		"stock":       product.Stock,
		"image_url":   product.ImageURL,
		"is_active":   product.IsActive,
		"updated_at":  product.UpdatedAt,
	}}

	result, err := p.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DecrementStockClamped uses a pipeline update so the subtract-and-floor
// happens server side in one document write. Concurrent decrements on
// the same product cannot interleave a stale read.
func (p productRepository) DecrementStockClamped(ctx context.Context, id primitive.ObjectID, qty int64) (*domain.Product, error) {
	filter := bson.M{"_id": id}
	update := bson.A{
		bson.M{"$set": bson.M{
			"stock": bson.M{"$max": bson.A{
				0,
				bson.M{"$subtract": bson.A{"$stock", qty}},
			}},
			"updated_at": time.Now(),
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before domain.Product
	err := p.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return &before, nil
}
