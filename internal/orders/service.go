// Package orders es el motor de pedidos: checkout con reserva de stock,
// máquina de estados, cancelación con reposición y estado de pago.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/events"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/models"
)

const defaultCurrency = "USD"

// Deps agrupa los colaboradores; Guard, Events, Metrics y Cache son opcionales
type Deps struct {
	Products ProductStore
	Orders   OrderStore
	Accounts AccountStore
	Guard    IdempotencyGuard
	Events   EventPublisher
	Metrics  *metrics.Metrics
	Cache    *cache.Cache
}

type Service struct {
	products ProductStore
	orders   OrderStore
	accounts AccountStore
	guard    IdempotencyGuard
	events   EventPublisher
	metrics  *metrics.Metrics
	cache    *cache.Cache
	now      func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		products: d.Products,
		orders:   d.Orders,
		accounts: d.Accounts,
		guard:    d.Guard,
		events:   d.Events,
		metrics:  d.Metrics,
		cache:    d.Cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckoutRequest: AddressID elige una dirección guardada; si no viene se usa
// ShippingAddress y, en último caso, la dirección por defecto de la cuenta.
type CheckoutRequest struct {
	ShippingAddress *models.Address
	AddressID       string
	PaymentMethod   models.PaymentMethod
	IdempotencyKey  string
}

// Checkout convierte el carrito en un pedido pending. Todo o nada: si una
// línea falla se devuelve el stock de las líneas ya reservadas.
func (s *Service) Checkout(ctx context.Context, accountID string, req CheckoutRequest) (*models.Order, error) {
	log := logger.FromContext(ctx).WithField(logger.AccountID, accountID)

	order, err := s.checkout(ctx, log, accountID, req)
	s.metrics.CheckoutOutcome(checkoutOutcome(err))
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		logger.OrderID: order.ID.Hex(),
		"total_cents":  order.TotalCents,
		"lines":        len(order.Items),
	}).Info("order placed")
	s.publish(ctx, events.OrderCreated, order)
	return order, nil
}

func (s *Service) checkout(ctx context.Context, log *logrus.Entry, accountID string, req CheckoutRequest) (*models.Order, error) {
	if !req.PaymentMethod.Valid() {
		return nil, apperr.Validation("payment_method must be one of cod, card")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	address, err := resolveAddress(account, req)
	if err != nil {
		return nil, err
	}

	lines, err := mergeCart(account.Cart)
	if err != nil {
		return nil, err
	}

	guardKey := ""
	if req.IdempotencyKey != "" && s.guard != nil {
		guardKey = accountID + ":" + req.IdempotencyKey
		ok, err := s.guard.Reserve(ctx, guardKey)
		if err != nil {
			return nil, apperr.Unexpected("reserve idempotency key", err)
		}
		if !ok {
			return nil, apperr.Conflict("this checkout was already submitted").
				WithDetails("idempotency_key", req.IdempotencyKey)
		}
	}

	// a partir de aquí cualquier falla devuelve stock y libera la clave
	items := make([]models.OrderItem, 0, len(lines))
	fail := func(cause error) (*models.Order, error) {
		s.releaseItems(ctx, items)
		s.releaseKey(ctx, guardKey)
		return nil, cause
	}

	currency := ""
	var total int64
	for _, line := range lines {
		product, err := s.products.ReserveStock(ctx, line.ProductID.Hex(), line.Quantity)
		if err != nil {
			log.WithError(err).WithField(logger.ProductID, line.ProductID.Hex()).Info("checkout line rejected")
			return fail(err)
		}

		item := snapshotItem(product, line.Quantity)
		items = append(items, item)
		total += item.SubtotalCents

		productCurrency := product.Currency
		if productCurrency == "" {
			productCurrency = defaultCurrency
		}
		if currency == "" {
			currency = productCurrency
		} else if currency != productCurrency {
			return fail(apperr.Validation("cart mixes currencies").
				WithDetails("currencies", []string{currency, productCurrency}))
		}
	}

	now := s.now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          account.ID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentStatusUnpaid,
		Status:          models.OrderStatusPending,
		TotalCents:      total,
		Currency:        currency,
		IdempotencyKey:  req.IdempotencyKey,
		History: []models.StatusChange{
			{Status: models.OrderStatusPending, At: now, By: account.ID},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		log.WithError(err).Error("persist order failed, releasing stock")
		return fail(apperr.Unexpected("create order", err))
	}

	if err := s.accounts.RemoveCartLines(ctx, accountID, lines); err != nil {
		// el pedido ya existe; un carrito sin vaciar no lo invalida
		log.WithError(err).Warn("remove ordered cart lines failed")
	}
	s.cache.InvalidateProducts(itemProductIDs(items)...)

	return order, nil
}

// UpdateOrderStatus es la operación del administrador sobre la máquina de estados
func (s *Service) UpdateOrderStatus(ctx context.Context, actor auth.Identity, orderID string, to models.OrderStatus) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("administrator role required")
	}
	if !KnownStatus(to) {
		return nil, apperr.Validation("unknown order status").WithDetails("status", string(to))
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, to) {
		return nil, apperr.InvalidTransition(string(order.Status), string(to))
	}

	return s.transition(ctx, actor, order, []models.OrderStatus{order.Status}, to)
}

// CancelOrder la pide el dueño; para cualquier otro el pedido no existe
func (s *Service) CancelOrder(ctx context.Context, actor auth.Identity, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(order.UserID.Hex()) {
		return nil, apperr.NotFound("order")
	}
	if !canOwnerCancel(order.Status) {
		return nil, apperr.InvalidTransition(string(order.Status), string(models.OrderStatusCancelled))
	}

	return s.transition(ctx, actor, order, ownerCancellable, models.OrderStatusCancelled)
}

func (s *Service) transition(ctx context.Context, actor auth.Identity, order *models.Order, from []models.OrderStatus, to models.OrderStatus) (*models.Order, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		logger.OrderID:   order.ID.Hex(),
		logger.AccountID: actor.AccountID,
	})

	by, _ := primitive.ObjectIDFromHex(actor.AccountID)
	change := models.StatusChange{Status: to, At: s.now(), By: by}

	updated, err := s.orders.TransitionStatus(ctx, order.ID.Hex(), from, change)
	if err != nil {
		if errors.Is(err, apperr.ErrPreconditionFailed) {
			// otra petición cambió el estado primero
			current, ferr := s.orders.FindByID(ctx, order.ID.Hex())
			if ferr != nil {
				return nil, ferr
			}
			return nil, apperr.InvalidTransition(string(current.Status), string(to))
		}
		return nil, err
	}

	// solo quien ganó la actualización condicional repone stock
	eventType := events.OrderStatusChanged
	if to == models.OrderStatusCancelled {
		s.releaseItems(ctx, updated.Items)
		s.cache.InvalidateProducts(itemProductIDs(updated.Items)...)
		eventType = events.OrderCancelled
	}

	s.metrics.Transition(string(order.Status), string(to))
	log.WithFields(logrus.Fields{"from": order.Status, "to": to}).Info("order status changed")
	s.publish(ctx, eventType, updated)
	return updated, nil
}

// SetPaymentStatus la usan el administrador y el webhook de pagos.
// Repetir el estado actual no es error, los webhooks se reintentan.
func (s *Service) SetPaymentStatus(ctx context.Context, orderID string, to models.PaymentStatus) (*models.Order, error) {
	if !to.Valid() || to == models.PaymentStatusUnpaid {
		return nil, apperr.Validation("payment_status must be one of paid, failed").
			WithDetails("payment_status", string(to))
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == to {
		return order, nil
	}
	if !canSetPayment(order.PaymentStatus, to) {
		return nil, apperr.InvalidTransition(string(order.PaymentStatus), string(to))
	}

	updated, err := s.orders.UpdatePaymentStatus(ctx, orderID, openPayments, to)
	if err != nil {
		if errors.Is(err, apperr.ErrPreconditionFailed) {
			return nil, apperr.InvalidTransition(string(models.PaymentStatusPaid), string(to))
		}
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		logger.OrderID:   orderID,
		"payment_status": to,
	}).Info("payment status changed")
	s.publish(ctx, events.OrderPaymentUpdated, updated)
	return updated, nil
}

// GetOrderByID oculta los pedidos ajenos con NotFound, salvo al administrador
func (s *Service) GetOrderByID(ctx context.Context, actor auth.Identity, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(order.UserID.Hex()) {
		return nil, apperr.NotFound("order")
	}
	return order, nil
}

// GetUserOrders devuelve los pedidos propios, más nuevos primero
func (s *Service) GetUserOrders(ctx context.Context, actor auth.Identity) ([]*models.Order, error) {
	return s.orders.ListByUser(ctx, actor.AccountID)
}

func (s *Service) ListOrders(ctx context.Context, actor auth.Identity, filter models.OrderFilter) ([]*models.Order, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperr.Forbidden("administrator role required")
	}
	if filter.Status != "" && !KnownStatus(filter.Status) {
		return nil, 0, apperr.Validation("unknown order status").WithDetails("status", string(filter.Status))
	}
	return s.orders.List(ctx, filter)
}

// releaseItems no aborta en el primer error: se intenta devolver cada línea
func (s *Service) releaseItems(ctx context.Context, items []models.OrderItem) {
	if len(items) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)

	var released int64
	for _, item := range items {
		if err := s.products.ReleaseStock(ctx, item.ProductID.Hex(), item.Quantity); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				logger.ProductID: item.ProductID.Hex(),
				"quantity":       item.Quantity,
			}).Error("release stock failed")
			continue
		}
		released += item.Quantity
	}
	s.metrics.StockReleased(released)
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key == "" || s.guard == nil {
		return
	}
	if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("release idempotency key failed")
	}
}

// publish es de mejor esfuerzo; el pedido ya quedó persistido
func (s *Service) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.NewOrderEvent(eventType, order))
	s.metrics.EventPublished(eventType, err)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.OrderID, order.ID.Hex()).
			Warn("publish order event failed")
	}
}

func resolveAddress(account *models.Account, req CheckoutRequest) (models.Address, error) {
	if req.AddressID != "" {
		for _, a := range account.Addresses {
			if a.ID.Hex() == req.AddressID {
				return a, nil
			}
		}
		return models.Address{}, apperr.NotFound("address")
	}
	if req.ShippingAddress != nil {
		a := *req.ShippingAddress
		if a.FullName == "" || a.Line1 == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
			return models.Address{}, apperr.Validation("shipping address is incomplete")
		}
		return a, nil
	}
	for _, a := range account.Addresses {
		if a.IsDefault {
			return a, nil
		}
	}
	return models.Address{}, apperr.Validation("shipping address is required")
}

// mergeCart junta líneas repetidas del mismo producto conservando el orden
func mergeCart(cart []models.CartItem) ([]models.CartItem, error) {
	if len(cart) == 0 {
		return nil, apperr.Validation("cart is empty")
	}

	index := make(map[primitive.ObjectID]int, len(cart))
	merged := make([]models.CartItem, 0, len(cart))
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, apperr.Validation("cart quantities must be positive").
				WithDetails("product_id", line.ProductID.Hex())
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func snapshotItem(p *models.Product, qty int64) models.OrderItem {
	item := models.OrderItem{
		ProductID:      p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		UnitPriceCents: p.PriceCents,
		Quantity:       qty,
		SubtotalCents:  p.PriceCents * qty,
	}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	return item
}

func itemProductIDs(items []models.OrderItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID.Hex())
	}
	return ids
}

func checkoutOutcome(err error) string {
	if err == nil {
		return "success"
	}
	switch apperr.KindOf(err) {
	case apperr.KindInsufficientStock:
		return "insufficient_stock"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindConflict:
		return "duplicate"
	case apperr.KindValidation:
		return "invalid"
	default:
		return "error"
	}
}
