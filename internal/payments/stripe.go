// Package payments traduce eventos firmados de Stripe a estados de pago.
package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"storefront/internal/models"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"

	MaxPayloadBytes = int64(65536)
)

var (
	ErrInvalidSignature = errors.New("invalid stripe signature")
	ErrMissingOrderID   = errors.New("payment intent has no order_id metadata")
)

// PaymentUpdate es lo que el webhook le pide al motor de pedidos
type PaymentUpdate struct {
	EventID         string
	PaymentIntentID string
	OrderID         string
	Status          models.PaymentStatus
}

type StripeWebhook struct {
	secret string
}

func NewStripeWebhook(secret string) *StripeWebhook {
	return &StripeWebhook{secret: secret}
}

func (w *StripeWebhook) Enabled() bool {
	return w != nil && w.secret != ""
}

// Parse verifica la firma y devuelve nil, nil para eventos que no interesan
func (w *StripeWebhook) Parse(payload []byte, signature string) (*PaymentUpdate, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, w.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var status models.PaymentStatus
	switch string(event.Type) {
	case EventPaymentSucceeded:
		status = models.PaymentStatusPaid
	case EventPaymentFailed:
		status = models.PaymentStatusFailed
	default:
		return nil, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}

	orderID := intent.Metadata["order_id"]
	if orderID == "" {
		return nil, ErrMissingOrderID
	}

	return &PaymentUpdate{
		EventID:         event.ID,
		PaymentIntentID: intent.ID,
		OrderID:         orderID,
		Status:          status,
	}, nil
}
