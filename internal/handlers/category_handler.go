package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/respond"
)

const categoryTTL = 10 * time.Minute

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	FindAll(ctx context.Context) ([]*models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Update(ctx context.Context, id string, in models.Category) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

// ProductCounter dice cuántos productos vivos quedan en una categoría
type ProductCounter interface {
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type CategoryHandler struct {
	repo     CategoryStore
	products ProductCounter
	cache    *cache.Cache
}

func NewCategoryHandler(repo CategoryStore, products ProductCounter, c *cache.Cache) *CategoryHandler {
	return &CategoryHandler{repo: repo, products: products, cache: c}
}

// GET /api/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	cacheKey := cache.CategoryPrefix + "all"
	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	categories, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}

	response := gin.H{"data": categories}
	h.cache.Set(cacheKey, response, categoryTTL)
	c.JSON(http.StatusOK, response)
}

// GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	categoryID := c.Param("id")
	cacheKey := cache.CategoryPrefix + categoryID
	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	category, err := h.repo.FindByID(c.Request.Context(), categoryID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.cache.Set(cacheKey, category, categoryTTL)
	c.JSON(http.StatusOK, category)
}

// POST /api/admin/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		respond.BindError(c, err)
		return
	}

	if err := h.repo.Create(c.Request.Context(), &category); err != nil {
		respond.Error(c, err)
		return
	}

	h.cache.DeleteByPrefix(cache.CategoryPrefix)
	c.JSON(http.StatusCreated, category)
}

// PUT /api/admin/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var in models.Category
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}

	category, err := h.repo.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}

	h.cache.DeleteByPrefix(cache.CategoryPrefix)
	c.JSON(http.StatusOK, category)
}

// DELETE /api/admin/categories/:id: no se borra una categoría con productos
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := parseObjectIDParam(c, "id", "category")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	count, err := h.products.CountByCategory(ctx, categoryID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if count > 0 {
		respond.Error(c, apperr.Conflict("category still has products").WithDetails("products", count))
		return
	}

	if err := h.repo.Delete(ctx, categoryID.Hex()); err != nil {
		respond.Error(c, err)
		return
	}

	h.cache.DeleteByPrefix(cache.CategoryPrefix)
	writeMessage(c, "category deleted")
}
