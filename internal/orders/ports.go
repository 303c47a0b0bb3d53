package orders

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

import (
	"context"

	"storefront/internal/events"
	"storefront/internal/models"
)

// ProductStore cambia stock con una sola actualización condicional por
// producto. ReserveStock devuelve el documento ya descontado, o
// apperr NotFound / InsufficientStock.
type ProductStore interface {
	ReserveStock(ctx context.Context, productID string, qty int64) (*models.Product, error)
	ReleaseStock(ctx context.Context, productID string, qty int64) error
}

// OrderStore persiste pedidos. TransitionStatus y UpdatePaymentStatus solo
// escriben si el estado actual está en from; si no, devuelven
// apperr.ErrPreconditionFailed.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, int64, error)
	TransitionStatus(ctx context.Context, id string, from []models.OrderStatus, change models.StatusChange) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus) (*models.Order, error)
}

// AccountStore: RemoveCartLines descuenta de cada línea la cantidad pedida y
// quita las que quedan en cero; lo agregado mientras tanto se conserva.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	RemoveCartLines(ctx context.Context, id string, lines []models.CartItem) error
}

type IdempotencyGuard interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}
