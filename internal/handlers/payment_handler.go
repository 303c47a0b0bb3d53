package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/respond"
)

// PaymentSetter es la parte del motor de pedidos que usa el webhook
type PaymentSetter interface {
	SetPaymentStatus(ctx context.Context, orderID string, to models.PaymentStatus) (*models.Order, error)
}

type PaymentHandler struct {
	webhook *payments.StripeWebhook
	orders  PaymentSetter
}

func NewPaymentHandler(webhook *payments.StripeWebhook, orders PaymentSetter) *PaymentHandler {
	return &PaymentHandler{webhook: webhook, orders: orders}
}

// POST /api/payments/stripe/webhook. Solo los errores inesperados devuelven
// 5xx; Stripe reintenta esos y nada más.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	if !h.webhook.Enabled() {
		respond.Error(c, apperr.NotFound("route"))
		return
	}

	log := logger.FromContext(c.Request.Context())

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, payments.MaxPayloadBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Error(c, apperr.Validation("payload too large or unreadable"))
		return
	}

	update, err := h.webhook.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrMissingOrderID) {
			log.WithError(err).Warn("stripe event ignored")
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		log.WithError(err).Warn("stripe webhook rejected")
		respond.Error(c, apperr.Validation("invalid webhook payload"))
		return
	}
	if update == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	log = log.WithField(logger.OrderID, update.OrderID).
		WithField("stripe_event", update.EventID).
		WithField("payment_intent", update.PaymentIntentID)

	if _, err := h.orders.SetPaymentStatus(c.Request.Context(), update.OrderID, update.Status); err != nil {
		if apperr.KindOf(err) == apperr.KindUnexpected {
			respond.Error(c, err)
			return
		}
		// pedido inexistente o ya pagado: reintentar no cambia nada
		log.WithError(err).Warn("stripe payment update not applied")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	log.WithField("payment_status", update.Status).Info("stripe payment applied")
	c.JSON(http.StatusOK, gin.H{"received": true})
}
