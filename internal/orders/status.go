package orders

import "storefront/internal/models"

// delivered y cancelled son terminales; nada vuelve a pending
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

// estados desde los que el dueño puede cancelar
var ownerCancellable = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusProcessing,
}

// pagos que todavía pueden cambiar; paid es final
var openPayments = []models.PaymentStatus{
	models.PaymentStatusUnpaid,
	models.PaymentStatusFailed,
}

func KnownStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return true
	}
	return false
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s models.OrderStatus) bool {
	return s == models.OrderStatusDelivered || s == models.OrderStatusCancelled
}

func canOwnerCancel(s models.OrderStatus) bool {
	for _, st := range ownerCancellable {
		if st == s {
			return true
		}
	}
	return false
}

func canSetPayment(from, to models.PaymentStatus) bool {
	if to != models.PaymentStatusPaid && to != models.PaymentStatusFailed {
		return false
	}
	return from != models.PaymentStatusPaid
}
