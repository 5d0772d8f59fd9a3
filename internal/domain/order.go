package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the six recognized statuses.
// Every write boundary checks this before persisting.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

const (
	// ShippingFlatFee is the system-wide flat shipping cost in the
	// smallest currency unit. There is no weight or distance model.
	ShippingFlatFee int64 = 20000

	PaymentMethodManual = "manual"
)

// OrderItem is an immutable snapshot of a product taken at checkout time.
// It references the product by id for traceability only; later price or
// name edits on the catalog must not change historical orders.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name      string             `bson:"name" json:"name"`
	Price     int64              `bson:"price" json:"price"`
	ImageURL  string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
}

type ShippingAddress struct {
	FullName string `bson:"fullname" json:"fullname"`
	Phone    string `bson:"phone" json:"phone"`
	Line1    string `bson:"line1" json:"line1"`
	City     string `bson:"city" json:"city"`
	Province string `bson:"province" json:"province"`
	Postal   string `bson:"postal" json:"postal"`
}

// Normalized returns a copy with all fields trimmed.
func (a ShippingAddress) Normalized() ShippingAddress {
	return ShippingAddress{
		FullName: strings.TrimSpace(a.FullName),
		Phone:    strings.TrimSpace(a.Phone),
		Line1:    strings.TrimSpace(a.Line1),
		City:     strings.TrimSpace(a.City),
		Province: strings.TrimSpace(a.Province),
		Postal:   strings.TrimSpace(a.Postal),
	}
}

// Complete reports whether every field is non-empty. Callers should
// normalize first.
func (a ShippingAddress) Complete() bool {
	return a.FullName != "" && a.Phone != "" && a.Line1 != "" &&
		a.City != "" && a.Province != "" && a.Postal != ""
}

// Order is created once from a cart at checkout. Everything except
// Status is immutable after creation; Total == Subtotal + ShippingCost
// holds at creation and forever after.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"user_id" json:"user_id"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shipping_address"`
	Subtotal        int64              `bson:"subtotal" json:"subtotal"`
	ShippingCost    int64              `bson:"shipping_cost" json:"shipping_cost"`
	Total           int64              `bson:"total" json:"total"`
	Status          OrderStatus        `bson:"status" json:"status"`
	PaymentMethod   string             `bson:"payment_method" json:"payment_method"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}
