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

type CommentRepository struct {
	collection *mongo.Collection
}

func NewCommentRepository(collection *mongo.Collection) *CommentRepository {
	return &CommentRepository{collection: collection}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, comment); err != nil {
		return apperr.Unexpected("insert comment", err)
	}
	return nil
}

func (r *CommentRepository) ListByProduct(ctx context.Context, productID string, page, pageSize int) ([]*models.Comment, int64, error) {
	objID, err := parseObjectID(productID, "product")
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{"product_id": objID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Unexpected("count comments", err)
	}

	cursor, err := r.collection.Find(ctx, filter, pagedFind(page, pageSize, newestFirst()))
	if err != nil {
		return nil, 0, apperr.Unexpected("list comments", err)
	}
	defer cursor.Close(ctx)

	comments := make([]*models.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, apperr.Unexpected("decode comments", err)
	}
	return comments, total, nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	objID, err := parseObjectID(id, "comment")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var comment models.Comment
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&comment); err != nil {
		return nil, notFoundOr(err, "comment", "find comment")
	}
	return &comment, nil
}

func (r *CommentRepository) Update(ctx context.Context, id string, in models.CommentInput) (*models.Comment, error) {
	objID, err := parseObjectID(id, "comment")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"body":       in.Body,
		"rating":     in.Rating,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var comment models.Comment
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&comment); err != nil {
		return nil, notFoundOr(err, "comment", "update comment")
	}
	return &comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	objID, err := parseObjectID(id, "comment")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return apperr.Unexpected("delete comment", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("comment")
	}
	return nil
}
