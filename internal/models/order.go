package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodCard
}

// Order guarda una copia de precios y dirección tomada en el checkout;
// ediciones posteriores del catálogo no la modifican.
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id"`
	Items           []OrderItem        `json:"items" bson:"items"`
	ShippingAddress Address            `json:"shipping_address" bson:"shipping_address"`
	PaymentMethod   PaymentMethod      `json:"payment_method" bson:"payment_method"`
	PaymentStatus   PaymentStatus      `json:"payment_status" bson:"payment_status"`
	Status          OrderStatus        `json:"order_status" bson:"order_status"`
	TotalCents      int64              `json:"total_cents" bson:"total_cents"`
	Currency        string             `json:"currency" bson:"currency"`
	IdempotencyKey  string             `json:"-" bson:"idempotency_key,omitempty"`
	History         []StatusChange     `json:"history" bson:"history"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	ProductID      primitive.ObjectID `json:"product_id" bson:"product_id"`
	SKU            string             `json:"sku" bson:"sku"`
	Name           string             `json:"name" bson:"name"`
	Image          string             `json:"image,omitempty" bson:"image,omitempty"`
	UnitPriceCents int64              `json:"unit_price_cents" bson:"unit_price_cents"`
	Quantity       int64              `json:"quantity" bson:"quantity"`
	SubtotalCents  int64              `json:"subtotal_cents" bson:"subtotal_cents"`
}

// StatusChange alimenta el seguimiento del pedido
type StatusChange struct {
	Status OrderStatus        `json:"status" bson:"status"`
	At     time.Time          `json:"at" bson:"at"`
	By     primitive.ObjectID `json:"by" bson:"by"`
}

// OrderFilter para el listado de administración
type OrderFilter struct {
	Status   OrderStatus
	UserID   string
	Page     int
	PageSize int
}
