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

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(collection *mongo.Collection) *CategoryRepository {
	return &CategoryRepository{collection: collection}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	category.ID = primitive.NewObjectID()
	category.Name = strings.TrimSpace(category.Name)
	category.CreatedAt = now
	category.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("category name already exists")
		}
		return apperr.Unexpected("insert category", err)
	}
	return nil
}

// FindAll devuelve todas las categorías por nombre; son pocas
func (r *CategoryRepository) FindAll(ctx context.Context) ([]*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperr.Unexpected("list categories", err)
	}
	defer cursor.Close(ctx)

	categories := make([]*models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, apperr.Unexpected("decode categories", err)
	}
	return categories, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	objID, err := parseObjectID(id, "category")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var category models.Category
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&category); err != nil {
		return nil, notFoundOr(err, "category", "find category")
	}
	return &category, nil
}

func (r *CategoryRepository) Update(ctx context.Context, id string, in models.Category) (*models.Category, error) {
	objID, err := parseObjectID(id, "category")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":        strings.TrimSpace(in.Name),
		"description": in.Description,
		"updated_at":  time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var category models.Category
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("category name already exists")
		}
		return nil, notFoundOr(err, "category", "update category")
	}
	return &category, nil
}

// Delete borra la categoría; quien llama debe verificar antes que no tenga productos
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	objID, err := parseObjectID(id, "category")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return apperr.Unexpected("delete category", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("category")
	}
	return nil
}
