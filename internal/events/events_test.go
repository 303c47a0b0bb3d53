package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestNewOrderEvent(t *testing.T) {
	order := &models.Order{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		TotalCents:    4200,
	}

	ev := NewOrderEvent(OrderCreated, order)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, OrderCreated, ev.Type)
	assert.Equal(t, order.ID.Hex(), ev.OrderID)
	assert.Equal(t, order.UserID.Hex(), ev.UserID)
	assert.Equal(t, int64(4200), ev.TotalCents)
	assert.False(t, ev.OccurredAt.IsZero())

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"order.created"`)
	assert.Contains(t, string(raw), `"status":"pending"`)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), OrderEvent{Type: OrderCreated}))
	assert.NotPanics(t, p.Close)
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "orders")
	assert.Error(t, err)

	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
