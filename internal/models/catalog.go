package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" binding:"required,max=80"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Comment solo lo modifica su autor o un administrador
type Comment struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID  primitive.ObjectID `json:"product_id" bson:"product_id"`
	AuthorID   primitive.ObjectID `json:"author_id" bson:"author_id"`
	AuthorName string             `json:"author_name" bson:"author_name"`
	Body       string             `json:"body" bson:"body"`
	Rating     int                `json:"rating,omitempty" bson:"rating,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

type CommentInput struct {
	Body   string `json:"body" binding:"required,min=1,max=2000"`
	Rating int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
}

type Blog struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title" binding:"required,max=200"`
	Content     string             `json:"content" bson:"content" binding:"required"`
	Image       string             `json:"image,omitempty" bson:"image,omitempty"`
	Tags        []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	AuthorID    primitive.ObjectID `json:"author_id" bson:"author_id"`
	IsPublished bool               `json:"is_published" bson:"is_published"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}
