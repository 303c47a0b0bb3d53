package payments

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"

	"storefront/internal/models"
)

const testSecret = "whsec_test_secret"

func signedEvent(t *testing.T, eventType, metadata string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_123",
		"object": "event",
		"type": %q,
		"data": {"object": {"id": "pi_123", "object": "payment_intent", "metadata": %s}}
	}`, eventType, metadata))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestStripeWebhook_Parse(t *testing.T) {
	w := NewStripeWebhook(testSecret)
	require.True(t, w.Enabled())

	tests := []struct {
		name      string
		eventType string
		want      models.PaymentStatus
	}{
		{name: "succeeded", eventType: EventPaymentSucceeded, want: models.PaymentStatusPaid},
		{name: "failed", eventType: EventPaymentFailed, want: models.PaymentStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, header := signedEvent(t, tt.eventType, `{"order_id": "65f000000000000000000001"}`)

			update, err := w.Parse(payload, header)
			require.NoError(t, err)
			require.NotNil(t, update)
			assert.Equal(t, "65f000000000000000000001", update.OrderID)
			assert.Equal(t, "pi_123", update.PaymentIntentID)
			assert.Equal(t, "evt_123", update.EventID)
			assert.Equal(t, tt.want, update.Status)
		})
	}
}

func TestStripeWebhook_IgnoredEvent(t *testing.T) {
	w := NewStripeWebhook(testSecret)
	payload, header := signedEvent(t, "customer.created", `{}`)

	update, err := w.Parse(payload, header)
	assert.NoError(t, err)
	assert.Nil(t, update)
}

func TestStripeWebhook_Rejects(t *testing.T) {
	w := NewStripeWebhook(testSecret)

	payload, header := signedEvent(t, EventPaymentSucceeded, `{"order_id": "x"}`)
	_, err := w.Parse(append(payload, ' '), header)
	assert.ErrorIs(t, err, ErrInvalidSignature, "tampered payload")

	_, err = NewStripeWebhook("whsec_other").Parse(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature, "wrong secret")

	payload, header = signedEvent(t, EventPaymentSucceeded, `{}`)
	_, err = w.Parse(payload, header)
	assert.ErrorIs(t, err, ErrMissingOrderID)

	assert.False(t, NewStripeWebhook("").Enabled())
}
