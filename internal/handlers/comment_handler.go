package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/respond"
)

// CommentHandler: los comentarios son de un producto y solo el autor o un
// admin los edita o borra.
type CommentHandler struct {
	repo     CommentStore
	products ProductFinder
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByProduct(ctx context.Context, productID string, page, pageSize int) ([]*models.Comment, int64, error)
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	Update(ctx context.Context, id string, in models.CommentInput) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
}

type ProductFinder interface {
	FindByID(ctx context.Context, id string, includeHidden bool) (*models.Product, error)
}

func NewCommentHandler(repo CommentStore, products ProductFinder) *CommentHandler {
	return &CommentHandler{repo: repo, products: products}
}

// GET /api/products/:id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	page, pageSize := getPaginationParams(c)
	comments, total, err := h.repo.ListByProduct(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(comments, total, page, pageSize))
}

// POST /api/user/products/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	in, ok := bindComment(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	product, err := h.products.FindByID(ctx, c.Param("id"), false)
	if err != nil {
		respond.Error(c, err)
		return
	}

	comment := &models.Comment{
		ProductID:  product.ID,
		AuthorID:   id.ObjectID(),
		AuthorName: id.Name,
		Body:       in.Body,
		Rating:     in.Rating,
	}
	if err := h.repo.Create(ctx, comment); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// PUT /api/user/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	in, ok := bindComment(c)
	if !ok {
		return
	}

	if _, err := h.authorized(c, id); err != nil {
		respond.Error(c, err)
		return
	}

	comment, err := h.repo.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DELETE /api/user/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if _, err := h.authorized(c, id); err != nil {
		respond.Error(c, err)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	writeMessage(c, "comment deleted")
}

// bindComment valida el cuerpo ya recortado; solo espacios cuenta como vacío
func bindComment(c *gin.Context) (models.CommentInput, bool) {
	var in models.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return in, false
	}
	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" {
		respond.Error(c, apperr.Validation("body must not be blank").WithDetails("body", "required"))
		return in, false
	}
	return in, true
}

// authorized carga el comentario y verifica que sea del actor o que sea admin
func (h *CommentHandler) authorized(c *gin.Context, id auth.Identity) (*models.Comment, error) {
	comment, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() && !id.Owns(comment.AuthorID.Hex()) {
		return nil, apperr.Forbidden("only the author can modify this comment")
	}
	return comment, nil
}
