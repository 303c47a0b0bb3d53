// Package repository guarda las entidades de la tienda en MongoDB. Cada
// repositorio envuelve una colección y aplica su propio timeout por llamada.
package repository

import (
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
)

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 5 * time.Second
	listTimeout  = 10 * time.Second

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Nombres de colecciones
const (
	ProductsCollection   = "products"
	AccountsCollection   = "accounts"
	CategoriesCollection = "categories"
	CommentsCollection   = "comments"
	BlogsCollection      = "blogs"
	OrdersCollection     = "orders"
)

func parseObjectID(id, resource string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid " + resource + " id")
	}
	return oid, nil
}

// notFoundOr traduce ErrNoDocuments y envuelve el resto como inesperado
func notFoundOr(err error, resource, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(resource)
	}
	return apperr.Unexpected(op, err)
}

// Page normaliza página y tamaño como hacía el listado original del catálogo
func Page(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

func pagedFind(page, pageSize int, sort bson.D) *options.FindOptions {
	page, pageSize = Page(page, pageSize)
	return options.Find().
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize)).
		SetSort(sort)
}

func newestFirst() bson.D {
	return bson.D{{Key: "created_at", Value: -1}}
}

// quoteRegex escapa la búsqueda del usuario antes de usarla en $regex
func quoteRegex(q string) string {
	return regexp.QuoteMeta(q)
}
