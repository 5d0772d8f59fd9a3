package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart is the per-user, pre-purchase collection of desired products.
// One cart per user, created lazily on the first add.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Items     []CartItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
	AddedAt   time.Time          `bson:"added_at" json:"added_at"`
}

// CartLine is a cart item with its product resolved, for presentation.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}
