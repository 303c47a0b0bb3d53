package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/respond"
)

const (
	productTTL     = 5 * time.Minute
	productListTTL = 2 * time.Minute
)

type ProductHandler struct {
	repo       *repository.ProductRepository
	categories *repository.CategoryRepository
	cache      *cache.Cache
}

func NewProductHandler(repo *repository.ProductRepository, categories *repository.CategoryRepository, c *cache.Cache) *ProductHandler {
	return &ProductHandler{
		repo:       repo,
		categories: categories,
		cache:      c,
	}
}

// CreateProduct crea un nuevo producto
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		respond.BindError(c, err)
		return
	}

	if err := validateProduct(&product); err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.ensureCategory(c, product.CategoryID); err != nil {
		respond.Error(c, err)
		return
	}

	if err := h.repo.Create(c.Request.Context(), &product); err != nil {
		respond.Error(c, err)
		return
	}

	// Invalidar caché de listados
	h.cache.DeleteByPrefix(cache.ProductsPrefix)

	c.JSON(http.StatusCreated, product)
}

// GetProduct obtiene un producto publicado por ID (con caché)
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("id")
	cacheKey := cache.ProductPrefix + productID

	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	product, err := h.repo.FindByID(c.Request.Context(), productID, false)
	if err != nil {
		respond.Error(c, err)
		return
	}

	h.cache.Set(cacheKey, product, productTTL)
	c.JSON(http.StatusOK, product)
}

// AdminGetProduct incluye productos no publicados
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	product, err := h.repo.FindByID(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListProducts lista productos publicados con paginación y filtros (con caché)
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := buildFilter(c)

	cacheKey := fmt.Sprintf(
		"%sp%d_s%d_q:%s_cat:%s_min:%d_max:%d_sort:%s_%s",
		cache.ProductsPrefix, filter.Page, filter.PageSize, filter.Query, filter.CategoryID,
		filter.MinPriceCents, filter.MaxPriceCents, filter.SortBy, filter.SortOrder,
	)

	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	products, total, err := h.repo.FindAll(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, err)
		return
	}

	response := newListResponse(products, total, filter.Page, filter.PageSize)
	h.cache.Set(cacheKey, response, productListTTL)
	c.JSON(http.StatusOK, response)
}

// AdminListProducts no usa caché y muestra también los borradores
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	filter := buildFilter(c)
	filter.IncludeHidden = true

	products, total, err := h.repo.FindAll(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(products, total, filter.Page, filter.PageSize))
}

// UpdateProduct actualiza parcialmente un producto
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")
	var update models.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respond.BindError(c, err)
		return
	}

	updateMap := bson.M{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			respond.Error(c, apperr.Validation("name cannot be empty"))
			return
		}
		updateMap["name"] = name
	}
	if update.Description != nil {
		updateMap["description"] = *update.Description
	}
	if update.CategoryID != nil {
		catID, err := primitive.ObjectIDFromHex(*update.CategoryID)
		if err != nil {
			respond.Error(c, apperr.Validation("invalid category id"))
			return
		}
		if err := h.ensureCategory(c, catID); err != nil {
			respond.Error(c, err)
			return
		}
		updateMap["category_id"] = catID
	}
	if update.PriceCents != nil {
		updateMap["price_cents"] = *update.PriceCents
	}
	if update.Currency != nil {
		updateMap["currency"] = strings.ToUpper(*update.Currency)
	}
	if update.Stock != nil {
		updateMap["stock"] = *update.Stock
	}
	if update.Images != nil {
		updateMap["images"] = update.Images
	}
	if update.Attributes != nil {
		updateMap["attributes"] = update.Attributes
	}
	if update.IsPublished != nil {
		updateMap["is_published"] = *update.IsPublished
	}

	if len(updateMap) == 0 {
		respond.Error(c, apperr.Validation("no valid fields to update"))
		return
	}

	product, err := h.repo.Update(c.Request.Context(), productID, updateMap)
	if err != nil {
		respond.Error(c, err)
		return
	}

	// Invalidar caché relacionado
	h.cache.InvalidateProducts(productID)

	c.JSON(http.StatusOK, product)
}

// DeleteProduct realiza un borrado lógico
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	if err := h.repo.SoftDelete(c.Request.Context(), productID); err != nil {
		respond.Error(c, err)
		return
	}

	h.cache.InvalidateProducts(productID)

	writeMessage(c, "product deleted")
}

// --- Métodos auxiliares ---

func (h *ProductHandler) ensureCategory(c *gin.Context, categoryID primitive.ObjectID) error {
	if categoryID.IsZero() {
		return nil
	}
	if _, err := h.categories.FindByID(c.Request.Context(), categoryID.Hex()); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validation("category does not exist").WithDetails("category_id", categoryID.Hex())
		}
		return err
	}
	return nil
}

// buildFilter construye el filtro del catálogo basado en query params
func buildFilter(c *gin.Context) models.ProductFilter {
	page, pageSize := getPaginationParams(c)
	f := models.ProductFilter{
		Query:      strings.TrimSpace(c.Query("q")),
		CategoryID: c.Query("category"),
		Page:       page,
		PageSize:   pageSize,
		SortBy:     c.DefaultQuery("sort_by", "created_at"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
	}

	// Filtros de precio
	if minPrice, err := strconv.ParseInt(c.Query("min_price"), 10, 64); err == nil && minPrice > 0 {
		f.MinPriceCents = minPrice
	}
	if maxPrice, err := strconv.ParseInt(c.Query("max_price"), 10, 64); err == nil && maxPrice > 0 {
		f.MaxPriceCents = maxPrice
	}
	return f
}

// validateProduct valida los campos requeridos del producto
func validateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	if p.Name == "" {
		return apperr.Validation("name is required").WithDetails("field", "name")
	}
	if p.SKU == "" {
		return apperr.Validation("SKU is required").WithDetails("field", "sku")
	}
	if p.PriceCents < 0 {
		return apperr.Validation("price cannot be negative").WithDetails("field", "price_cents")
	}
	if p.Stock < 0 {
		return apperr.Validation("stock cannot be negative").WithDetails("field", "stock")
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	p.Currency = strings.ToUpper(p.Currency)
	return nil
}
