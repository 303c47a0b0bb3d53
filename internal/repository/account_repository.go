package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// AccountRepository también guarda carrito y lista de deseos, que viven en
// el documento de la cuenta.
type AccountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(collection *mongo.Collection) *AccountRepository {
	return &AccountRepository{collection: collection}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	account.ID = primitive.NewObjectID()
	account.Email = NormalizeEmail(account.Email)
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.Role == "" {
		account.Role = models.RoleUser
	}
	if account.Addresses == nil {
		account.Addresses = []models.Address{}
	}
	if account.Cart == nil {
		account.Cart = []models.CartItem{}
	}
	if account.Wishlist == nil {
		account.Wishlist = []primitive.ObjectID{}
	}

	if _, err := r.collection.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("email already registered")
		}
		return apperr.Unexpected("insert account", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	objID, err := parseObjectID(id, "account")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var account models.Account
	if err := r.collection.FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, notFoundOr(err, "account", "find account")
	}
	return &account, nil
}

// List es el listado de administración, más nuevos primero
func (r *AccountRepository) List(ctx context.Context, page, pageSize int, query string) ([]*models.Account, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{}
	if query != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": quoteRegex(query), "$options": "i"}},
			{"email": bson.M{"$regex": quoteRegex(query), "$options": "i"}},
		}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Unexpected("count accounts", err)
	}

	opts := pagedFind(page, pageSize, newestFirst()).
		SetProjection(bson.M{"password_hash": 0, "cart": 0, "wishlist": 0})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperr.Unexpected("list accounts", err)
	}
	defer cursor.Close(ctx)

	accounts := make([]*models.Account, 0)
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, 0, apperr.Unexpected("decode accounts", err)
	}
	return accounts, total, nil
}

// set aplica $set sobre la cuenta y devuelve el documento nuevo
func (r *AccountRepository) set(ctx context.Context, id string, fields bson.M) (*models.Account, error) {
	return r.modify(ctx, id, bson.M{}, bson.M{"$set": fields})
}

func (r *AccountRepository) modify(ctx context.Context, id string, extraFilter bson.M, update bson.M) (*models.Account, error) {
	objID, err := parseObjectID(id, "account")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	filter := bson.M{"_id": objID}
	for k, v := range extraFilter {
		filter[k] = v
	}

	setFields, _ := update["$set"].(bson.M)
	if setFields == nil {
		setFields = bson.M{}
		update["$set"] = setFields
	}
	setFields["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var account models.Account
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account); err != nil {
		return nil, notFoundOr(err, "account", "update account")
	}
	return &account, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, in models.ProfileUpdate) (*models.Account, error) {
	fields := bson.M{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("no valid fields to update")
	}
	return r.set(ctx, id, fields)
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.set(ctx, id, bson.M{"password_hash": hash})
	return err
}

func (r *AccountRepository) SetRole(ctx context.Context, id string, role models.Role) (*models.Account, error) {
	if !role.Valid() {
		return nil, apperr.Validation("role must be one of user, admin")
	}
	return r.set(ctx, id, bson.M{"role": role})
}

func (r *AccountRepository) SetBlocked(ctx context.Context, id string, blocked bool) (*models.Account, error) {
	return r.set(ctx, id, bson.M{"blocked": blocked})
}

// AddAddress agrega una dirección; si es la default desmarca las demás
func (r *AccountRepository) AddAddress(ctx context.Context, id string, address models.Address) (*models.Account, error) {
	address.ID = primitive.NewObjectID()

	account, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(account.Addresses) == 0 {
		address.IsDefault = true
	}

	if address.IsDefault && len(account.Addresses) > 0 {
		if _, err := r.set(ctx, id, bson.M{"addresses.$[].is_default": false}); err != nil {
			return nil, err
		}
	}
	return r.modify(ctx, id, bson.M{}, bson.M{"$push": bson.M{"addresses": address}})
}

func (r *AccountRepository) RemoveAddress(ctx context.Context, id, addressID string) (*models.Account, error) {
	addrID, err := parseObjectID(addressID, "address")
	if err != nil {
		return nil, err
	}
	account, err := r.modify(ctx, id,
		bson.M{"addresses._id": addrID},
		bson.M{"$pull": bson.M{"addresses": bson.M{"_id": addrID}}},
	)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("address")
	}
	return account, err
}

// SetCartItem fija la cantidad de un producto; reemplaza la línea si existe
func (r *AccountRepository) SetCartItem(ctx context.Context, id string, productID primitive.ObjectID, qty int64) (*models.Account, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	account, err := r.modify(ctx, id,
		bson.M{"cart.product_id": productID},
		bson.M{"$set": bson.M{"cart.$.quantity": qty}},
	)
	if err == nil || !apperr.Is(err, apperr.KindNotFound) {
		return account, err
	}
	// no había línea: se agrega solo si sigue sin existir
	return r.modify(ctx, id,
		bson.M{"cart.product_id": bson.M{"$ne": productID}},
		bson.M{"$push": bson.M{"cart": models.CartItem{ProductID: productID, Quantity: qty}}},
	)
}

// AddCartItem suma qty a la línea existente o la crea
func (r *AccountRepository) AddCartItem(ctx context.Context, id string, productID primitive.ObjectID, qty int64) (*models.Account, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	account, err := r.modify(ctx, id,
		bson.M{"cart.product_id": productID},
		bson.M{"$inc": bson.M{"cart.$.quantity": qty}},
	)
	if err == nil || !apperr.Is(err, apperr.KindNotFound) {
		return account, err
	}
	return r.modify(ctx, id,
		bson.M{"cart.product_id": bson.M{"$ne": productID}},
		bson.M{"$push": bson.M{"cart": models.CartItem{ProductID: productID, Quantity: qty}}},
	)
}

func (r *AccountRepository) RemoveCartItem(ctx context.Context, id string, productID primitive.ObjectID) (*models.Account, error) {
	return r.modify(ctx, id, bson.M{}, bson.M{"$pull": bson.M{"cart": bson.M{"product_id": productID}}})
}

func (r *AccountRepository) ClearCart(ctx context.Context, id string) error {
	_, err := r.set(ctx, id, bson.M{"cart": []models.CartItem{}})
	return err
}

// RemoveCartLines resta la cantidad pedida de cada línea y quita las que
// quedan en cero. Las líneas agregadas después de leer el carrito no se tocan.
func (r *AccountRepository) RemoveCartLines(ctx context.Context, id string, lines []models.CartItem) error {
	objID, err := parseObjectID(id, "account")
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(lines)+1)
	for _, line := range lines {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": objID, "cart.product_id": line.ProductID}).
			SetUpdate(bson.M{
				"$inc": bson.M{"cart.$.quantity": -line.Quantity},
				"$set": bson.M{"updated_at": now},
			}))
	}
	writes = append(writes, mongo.NewUpdateOneModel().
		SetFilter(bson.M{"_id": objID}).
		SetUpdate(bson.M{"$pull": bson.M{"cart": bson.M{"quantity": bson.M{"$lte": 0}}}}))

	if _, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return apperr.Unexpected("remove cart lines", err)
	}
	return nil
}

func (r *AccountRepository) AddToWishlist(ctx context.Context, id string, productID primitive.ObjectID) (*models.Account, error) {
	return r.modify(ctx, id, bson.M{}, bson.M{"$addToSet": bson.M{"wishlist": productID}})
}

func (r *AccountRepository) RemoveFromWishlist(ctx context.Context, id string, productID primitive.ObjectID) (*models.Account, error) {
	return r.modify(ctx, id, bson.M{}, bson.M{"$pull": bson.M{"wishlist": productID}})
}
