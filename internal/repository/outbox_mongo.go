package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type outboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) OutboxRepository {
	return &outboxRepository{
		collection: db.Collection("outbox"),
	}
}

func (r outboxRepository) Append(ctx context.Context, event *OutboxEvent) error {
	event.CreatedAt = time.Now()
	event.SentAt = nil

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = id
	}
	return nil
}

func (r outboxRepository) FetchPending(ctx context.Context, limit int64) ([]*OutboxEvent, error) {
	filter := bson.M{"sent_at": nil}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*OutboxEvent
	for cursor.Next(ctx) {
		var event OutboxEvent
		if err := cursor.Decode(&event); err != nil {
			return nil, fmt.Errorf("failed to decode outbox event: %w", err)
		}
		events = append(events, &event)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("outbox cursor error: %w", err)
	}

	return events, nil
}

func (r outboxRepository) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{"sent_at": now}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox event %s not found", id.Hex())
	}

	return nil
}
