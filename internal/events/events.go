// Package events publica los cambios del ciclo de vida de un pedido.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

const (
	OrderCreated        = "order.created"
	OrderStatusChanged  = "order.status_changed"
	OrderCancelled      = "order.cancelled"
	OrderPaymentUpdated = "order.payment_updated"
)

type OrderEvent struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	OrderID       string               `json:"order_id"`
	UserID        string               `json:"user_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalCents    int64                `json:"total_cents"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// NewOrderEvent toma la foto del pedido ya persistido
func NewOrderEvent(eventType string, o *models.Order) OrderEvent {
	return OrderEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		OrderID:       o.ID.Hex(),
		UserID:        o.UserID.Hex(),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close()
}

// Noop se usa cuando no hay brokers configurados
type Noop struct{}

func (Noop) Publish(context.Context, OrderEvent) error { return nil }

func (Noop) Close() {}
