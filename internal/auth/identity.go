package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Identity es la cuenta autenticada del request, leída de la base en vivo
type Identity struct {
	AccountID string
	Name      string
	Role      models.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Owns compara el dueño de un recurso con la cuenta autenticada
func (i Identity) Owns(ownerID string) bool {
	return ownerID != "" && ownerID == i.AccountID
}

// ObjectID devuelve NilObjectID si el id no es válido
func (i Identity) ObjectID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(i.AccountID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.AccountID != ""
}

func IdentityOf(a *models.Account) Identity {
	return Identity{
		AccountID: a.ID.Hex(),
		Name:      a.Name,
		Role:      a.Role,
	}
}
