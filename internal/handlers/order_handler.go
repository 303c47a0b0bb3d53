package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/respond"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type OrderHandler struct {
	service *orders.Service
}

func NewOrderHandler(service *orders.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

type CheckoutRequest struct {
	ShippingAddress *models.Address      `json:"shipping_address"`
	AddressID       string               `json:"address_id" binding:"omitempty,len=24,hexadecimal"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" binding:"required,oneof=cod card"`
}

type StatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type PaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required,oneof=paid failed"`
}

// POST /api/user/orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	order, err := h.service.Checkout(c.Request.Context(), id.AccountID, orders.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		AddressID:       req.AddressID,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GET /api/user/orders
func (h *OrderHandler) MyOrders(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.service.GetUserOrders(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// GET /api/user/orders/:id y GET /api/admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	order, err := h.service.GetOrderByID(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// POST /api/user/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	order, err := h.service.CancelOrder(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GET /api/admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	page, pageSize := getPaginationParams(c)
	filter := models.OrderFilter{
		Status:   models.OrderStatus(c.Query("status")),
		UserID:   c.Query("user_id"),
		Page:     page,
		PageSize: pageSize,
	}

	list, total, err := h.service.ListOrders(c.Request.Context(), id, filter)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(list, total, page, pageSize))
}

// PATCH /api/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Request.Context(), id, c.Param("id"), req.Status)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PATCH /api/admin/orders/:id/payment
func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	order, err := h.service.SetPaymentStatus(c.Request.Context(), c.Param("id"), req.PaymentStatus)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
