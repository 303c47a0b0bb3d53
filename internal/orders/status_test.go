package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestCanTransition(t *testing.T) {
	all := []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	}
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderStatusPending, models.OrderStatusProcessing}:   true,
		{models.OrderStatusPending, models.OrderStatusCancelled}:    true,
		{models.OrderStatusProcessing, models.OrderStatusShipped}:   true,
		{models.OrderStatusProcessing, models.OrderStatusCancelled}: true,
		{models.OrderStatusShipped, models.OrderStatusDelivered}:    true,
		{models.OrderStatusShipped, models.OrderStatusCancelled}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]models.OrderStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
		if IsTerminal(from) {
			assert.Empty(t, transitions[from])
		}
	}
}

func TestOwnerCancelAndPaymentRules(t *testing.T) {
	assert.True(t, canOwnerCancel(models.OrderStatusPending))
	assert.True(t, canOwnerCancel(models.OrderStatusProcessing))
	assert.False(t, canOwnerCancel(models.OrderStatusShipped))
	assert.False(t, canOwnerCancel(models.OrderStatusDelivered))

	assert.True(t, canSetPayment(models.PaymentStatusUnpaid, models.PaymentStatusPaid))
	assert.True(t, canSetPayment(models.PaymentStatusFailed, models.PaymentStatusPaid))
	assert.True(t, canSetPayment(models.PaymentStatusUnpaid, models.PaymentStatusFailed))
	assert.False(t, canSetPayment(models.PaymentStatusPaid, models.PaymentStatusFailed))
	assert.False(t, canSetPayment(models.PaymentStatusFailed, models.PaymentStatusUnpaid))
}
