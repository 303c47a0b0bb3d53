package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account es el registro de usuario; el carrito y la lista de deseos viven
// dentro del mismo documento.
type Account struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name         string               `json:"name" bson:"name"`
	Email        string               `json:"email" bson:"email"`
	PasswordHash string               `json:"-" bson:"password_hash"`
	Role         Role                 `json:"role" bson:"role"`
	Blocked      bool                 `json:"blocked" bson:"blocked"`
	Phone        string               `json:"phone,omitempty" bson:"phone,omitempty"`
	Addresses    []Address            `json:"addresses" bson:"addresses"`
	Cart         []CartItem           `json:"-" bson:"cart"`
	Wishlist     []primitive.ObjectID `json:"-" bson:"wishlist"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Address se guarda en la cuenta y se copia al pedido en el checkout
type Address struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Label      string             `json:"label,omitempty" bson:"label,omitempty"`
	FullName   string             `json:"full_name" bson:"full_name" binding:"required"`
	Line1      string             `json:"line1" bson:"line1" binding:"required"`
	Line2      string             `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string             `json:"city" bson:"city" binding:"required"`
	State      string             `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string             `json:"postal_code" bson:"postal_code" binding:"required"`
	Country    string             `json:"country" bson:"country" binding:"required"`
	Phone      string             `json:"phone,omitempty" bson:"phone,omitempty"`
	IsDefault  bool               `json:"is_default" bson:"is_default"`
}

type CartItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	Quantity  int64              `json:"quantity" bson:"quantity"`
}

// ProfileUpdate son los campos que el propio usuario puede cambiar
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,min=2,max=80"`
	Phone *string `json:"phone,omitempty" binding:"omitempty,max=32"`
}
