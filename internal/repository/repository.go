package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSlug   = errors.New("product slug already exists")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrOrderNotFound   = errors.New("order not found")
)

// ProductRepository owns all access to the product ledger. Stock is
// only ever mutated through DecrementStockClamped or Update; there is
// no raw read-modify-write path.
type ProductRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListActive(ctx context.Context, limit int64) ([]*domain.Product, error)
	ListAll(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error

	// DecrementStockClamped atomically lowers stock by qty, flooring at
	// zero, and returns the product as it was before the decrement so
	// callers can snapshot name and price. Returns ErrProductNotFound
	// if the product does not exist.
	DecrementStockClamped(ctx context.Context, id primitive.ObjectID, qty int64) (*domain.Product, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID primitive.ObjectID, quantity int64) error
	RemoveItem(ctx context.Context, userID string, productID primitive.ObjectID) error

	// ClearItems replaces the cart's item list with an empty one,
	// keeping the cart document itself. Missing cart is not an error.
	ClearItems(ctx context.Context, userID string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)

	// GetByIDForUser resolves an order only when it belongs to userID.
	// Ownership is part of the lookup filter so a foreign order is
	// indistinguishable from a missing one.
	GetByIDForUser(ctx context.Context, id primitive.ObjectID, userID string) (*domain.Order, error)

	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error
	UpdateStatusForUser(ctx context.Context, id primitive.ObjectID, userID string, status domain.OrderStatus) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	SalesByProduct(ctx context.Context) ([]domain.ProductSales, error)
}

// OutboxEvent is a pending domain event written in the same transaction
// as the state change it describes.
type OutboxEvent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	EventID     string             `bson:"event_id"`
	EventType   string             `bson:"event_type"`
	AggregateID string             `bson:"aggregate_id"`
	Payload     []byte             `bson:"payload"`
	CreatedAt   time.Time          `bson:"created_at"`
	SentAt      *time.Time         `bson:"sent_at,omitempty"`
}

type OutboxRepository interface {
	Append(ctx context.Context, event *OutboxEvent) error
	FetchPending(ctx context.Context, limit int64) ([]*OutboxEvent, error)
	MarkSent(ctx context.Context, id primitive.ObjectID) error
}

// TxnRunner executes fn inside one atomic multi-document write. Every
// repository call made with the context passed to fn joins the same
// transaction; an error from fn aborts all of them.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
