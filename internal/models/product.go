package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product representa un producto en el catálogo
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SKU         string             `json:"sku" bson:"sku" binding:"required"`
	Name        string             `json:"name" bson:"name" binding:"required"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CategoryID  primitive.ObjectID `json:"category_id" bson:"category_id"`
	PriceCents  int64              `json:"price_cents" bson:"price_cents" binding:"gte=0"`
	Currency    string             `json:"currency" bson:"currency"`
	Stock       int64              `json:"stock" bson:"stock" binding:"gte=0"`
	Images      []string           `json:"images,omitempty" bson:"images,omitempty"`
	Attributes  map[string]string  `json:"attributes,omitempty" bson:"attributes,omitempty"`
	IsPublished bool               `json:"is_published" bson:"is_published"`
	IsDeleted   bool               `json:"-" bson:"is_deleted"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProductUpdate representa los campos actualizables de un producto
type ProductUpdate struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	CategoryID  *string           `json:"category_id,omitempty"`
	PriceCents  *int64            `json:"price_cents,omitempty" binding:"omitempty,gte=0"`
	Currency    *string           `json:"currency,omitempty"`
	Stock       *int64            `json:"stock,omitempty" binding:"omitempty,gte=0"`
	Images      []string          `json:"images,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	IsPublished *bool             `json:"is_published,omitempty"`
}

// ProductFilter agrupa los filtros del listado del catálogo
type ProductFilter struct {
	Query         string
	CategoryID    string
	MinPriceCents int64
	MaxPriceCents int64
	IncludeHidden bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
