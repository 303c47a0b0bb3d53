package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// campos por los que se puede ordenar el listado
var productSortFields = map[string]string{
	"created_at":  "created_at",
	"name":        "name",
	"price":       "price_cents",
	"price_cents": "price_cents",
	"stock":       "stock",
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(collection *mongo.Collection) *ProductRepository {
	return &ProductRepository{
		collection: collection,
	}
}

// Create crea un nuevo producto
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.IsDeleted = false

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("sku already exists").WithDetails("sku", product.SKU)
		}
		return apperr.Unexpected("insert product", err)
	}
	return nil
}

// FindByID obtiene un producto por ID; includeHidden deja ver los no publicados
func (r *ProductRepository) FindByID(ctx context.Context, id string, includeHidden bool) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	objID, err := parseObjectID(id, "product")
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":        objID,
		"is_deleted": false,
	}
	if !includeHidden {
		filter["is_published"] = true
	}

	var product models.Product
	if err := r.collection.FindOne(ctx, filter).Decode(&product); err != nil {
		return nil, notFoundOr(err, "product", "find product")
	}
	return &product, nil
}

// FindAll lista productos con paginación y filtros
func (r *ProductRepository) FindAll(ctx context.Context, f models.ProductFilter) ([]*models.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter, err := buildProductFilter(f)
	if err != nil {
		return nil, 0, err
	}

	// Contar total en paralelo
	totalCh := make(chan int64, 1)
	errCh := make(chan error, 1)

	go func() {
		total, err := r.collection.CountDocuments(ctx, filter)
		if err != nil {
			errCh <- err
			return
		}
		totalCh <- total
	}()

	// Ordenamiento
	sortField := "created_at"
	if field, ok := productSortFields[f.SortBy]; ok {
		sortField = field
	}
	sortOrder := -1
	if f.SortOrder == "asc" {
		sortOrder = 1
	}

	cursor, err := r.collection.Find(ctx, filter, pagedFind(f.Page, f.PageSize, bson.D{
		{Key: sortField, Value: sortOrder},
		{Key: "_id", Value: sortOrder},
	}))
	if err != nil {
		return nil, 0, apperr.Unexpected("list products", err)
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, 0, apperr.Unexpected("decode products", err)
	}

	// Esperar el conteo
	select {
	case total := <-totalCh:
		return products, total, nil
	case err := <-errCh:
		return nil, 0, apperr.Unexpected("count products", err)
	case <-ctx.Done():
		return nil, 0, apperr.Unexpected("count products", ctx.Err())
	}
}

func buildProductFilter(f models.ProductFilter) (bson.M, error) {
	filter := bson.M{"is_deleted": false}
	if !f.IncludeHidden {
		filter["is_published"] = true
	}

	// Búsqueda de texto
	if f.Query != "" {
		q := quoteRegex(f.Query)
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": q, "$options": "i"}},
			{"description": bson.M{"$regex": q, "$options": "i"}},
			{"sku": bson.M{"$regex": q, "$options": "i"}},
		}
	}

	if f.CategoryID != "" {
		catID, err := parseObjectID(f.CategoryID, "category")
		if err != nil {
			return nil, err
		}
		filter["category_id"] = catID
	}

	// Filtros de precio
	price := bson.M{}
	if f.MinPriceCents > 0 {
		price["$gte"] = f.MinPriceCents
	}
	if f.MaxPriceCents > 0 {
		price["$lte"] = f.MaxPriceCents
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	return filter, nil
}

// Update actualiza un producto
func (r *ProductRepository) Update(ctx context.Context, id string, update bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	objID, err := parseObjectID(id, "product")
	if err != nil {
		return nil, err
	}

	// Agregar updated_at automáticamente
	update["updated_at"] = time.Now().UTC()

	filter := bson.M{
		"_id":        objID,
		"is_deleted": false,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": update}, opts).Decode(&product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("sku already exists")
		}
		return nil, notFoundOr(err, "product", "update product")
	}
	return &product, nil
}

// SoftDelete marca un producto como eliminado
func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	objID, err := parseObjectID(id, "product")
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":        objID,
		"is_deleted": false,
	}

	update := bson.M{
		"$set": bson.M{
			"is_deleted": true,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Unexpected("delete product", err)
	}

	if result.MatchedCount == 0 {
		return apperr.NotFound("product")
	}

	return nil
}

// ReserveStock descuenta stock en una sola actualización condicional y
// devuelve el documento resultante, que es la foto usada en el pedido.
func (r *ProductRepository) ReserveStock(ctx context.Context, productID string, qty int64) (*models.Product, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	objID, err := parseObjectID(productID, "product")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	filter := bson.M{
		"_id":          objID,
		"is_deleted":   false,
		"is_published": true,
		"stock":        bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Unexpected("reserve stock", err)
	}

	// no hubo match: distinguir producto inexistente de stock insuficiente
	current, ferr := r.FindByID(ctx, productID, false)
	if ferr != nil {
		if apperr.Is(ferr, apperr.KindNotFound) {
			return nil, apperr.NotFound("product").WithDetails("product_id", productID)
		}
		return nil, ferr
	}
	return nil, apperr.InsufficientStock(productID, current.Name, qty, current.Stock)
}

// ReleaseStock devuelve unidades aunque el producto ya esté oculto o borrado
func (r *ProductRepository) ReleaseStock(ctx context.Context, productID string, qty int64) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	objID, err := parseObjectID(productID, "product")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{
			"$inc": bson.M{"stock": qty},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return apperr.Unexpected("release stock", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("product")
	}
	return nil
}

// CountByCategory cuenta productos vivos de una categoría
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"category_id": categoryID, "is_deleted": false})
	if err != nil {
		return 0, apperr.Unexpected("count products by category", err)
	}
	return n, nil
}

// FindManyByIDs se usa para mostrar carrito y lista de deseos
func (r *ProductRepository) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "is_deleted": false})
	if err != nil {
		return nil, apperr.Unexpected("find products", err)
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperr.Unexpected("decode products", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
