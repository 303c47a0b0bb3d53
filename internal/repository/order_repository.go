package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(collection *mongo.Collection) *OrderRepository {
	return &OrderRepository{collection: collection}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return apperr.Unexpected("insert order", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	objID, err := parseObjectID(id, "order")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&order); err != nil {
		return nil, notFoundOr(err, "order", "find order")
	}
	return &order, nil
}

// ListByUser devuelve los pedidos de un usuario, más nuevos primero
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	objID, err := parseObjectID(userID, "account")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": objID}, options.Find().SetSort(newestFirst()))
	if err != nil {
		return nil, apperr.Unexpected("list orders", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, apperr.Unexpected("decode orders", err)
	}
	return orders, nil
}

func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]*models.Order, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["order_status"] = f.Status
	}
	if f.UserID != "" {
		objID, err := parseObjectID(f.UserID, "account")
		if err != nil {
			return nil, 0, err
		}
		filter["user_id"] = objID
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Unexpected("count orders", err)
	}

	cursor, err := r.collection.Find(ctx, filter, pagedFind(f.Page, f.PageSize, newestFirst()))
	if err != nil {
		return nil, 0, apperr.Unexpected("list orders", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, apperr.Unexpected("decode orders", err)
	}
	return orders, total, nil
}

// TransitionStatus escribe solo si order_status sigue en from; así dos
// transiciones concurrentes no pueden ganar ambas.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from []models.OrderStatus, change models.StatusChange) (*models.Order, error) {
	objID, err := parseObjectID(id, "order")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	filter := bson.M{
		"_id":          objID,
		"order_status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set":  bson.M{"order_status": change.Status, "updated_at": change.At},
		"$push": bson.M{"history": change},
	}
	return r.conditionalUpdate(ctx, filter, update, "transition order")
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus) (*models.Order, error) {
	objID, err := parseObjectID(id, "order")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	filter := bson.M{
		"_id":            objID,
		"payment_status": bson.M{"$in": from},
	}
	update := bson.M{
		"$set": bson.M{"payment_status": to, "updated_at": time.Now().UTC()},
	}
	return r.conditionalUpdate(ctx, filter, update, "update payment status")
}

func (r *OrderRepository) conditionalUpdate(ctx context.Context, filter, update bson.M, op string) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrPreconditionFailed
		}
		return nil, apperr.Unexpected(op, err)
	}
	return &order, nil
}
