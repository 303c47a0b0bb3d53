package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

type BlogRepository struct {
	collection *mongo.Collection
}

func NewBlogRepository(collection *mongo.Collection) *BlogRepository {
	return &BlogRepository{collection: collection}
}

func (r *BlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	blog.ID = primitive.NewObjectID()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, blog); err != nil {
		return apperr.Unexpected("insert blog", err)
	}
	return nil
}

// List: el público solo ve entradas publicadas
func (r *BlogRepository) List(ctx context.Context, page, pageSize int, includeDrafts bool, tag string) ([]*models.Blog, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{}
	if !includeDrafts {
		filter["is_published"] = true
	}
	if tag != "" {
		filter["tags"] = tag
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Unexpected("count blogs", err)
	}

	cursor, err := r.collection.Find(ctx, filter, pagedFind(page, pageSize, newestFirst()))
	if err != nil {
		return nil, 0, apperr.Unexpected("list blogs", err)
	}
	defer cursor.Close(ctx)

	blogs := make([]*models.Blog, 0)
	if err := cursor.All(ctx, &blogs); err != nil {
		return nil, 0, apperr.Unexpected("decode blogs", err)
	}
	return blogs, total, nil
}

func (r *BlogRepository) FindByID(ctx context.Context, id string, includeDrafts bool) (*models.Blog, error) {
	objID, err := parseObjectID(id, "blog")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	filter := bson.M{"_id": objID}
	if !includeDrafts {
		filter["is_published"] = true
	}

	var blog models.Blog
	if err := r.collection.FindOne(ctx, filter).Decode(&blog); err != nil {
		return nil, notFoundOr(err, "blog", "find blog")
	}
	return &blog, nil
}

func (r *BlogRepository) Update(ctx context.Context, id string, in models.Blog) (*models.Blog, error) {
	objID, err := parseObjectID(id, "blog")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":        in.Title,
		"content":      in.Content,
		"image":        in.Image,
		"tags":         in.Tags,
		"is_published": in.IsPublished,
		"updated_at":   time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var blog models.Blog
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&blog); err != nil {
		return nil, notFoundOr(err, "blog", "update blog")
	}
	return &blog, nil
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	objID, err := parseObjectID(id, "blog")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return apperr.Unexpected("delete blog", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("blog")
	}
	return nil
}
