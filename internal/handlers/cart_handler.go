package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/respond"
)

// CartHandler maneja carrito y lista de deseos de la cuenta autenticada
type CartHandler struct {
	accounts *repository.AccountRepository
	products *repository.ProductRepository
}

func NewCartHandler(accounts *repository.AccountRepository, products *repository.ProductRepository) *CartHandler {
	return &CartHandler{accounts: accounts, products: products}
}

type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,len=24,hexadecimal"`
	Quantity  int64  `json:"quantity" binding:"required,min=1,max=1000"`
}

type QuantityRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1,max=1000"`
}

// CartLine es una línea del carrito con el precio vigente del catálogo
type CartLine struct {
	Product       *models.Product `json:"product,omitempty"`
	ProductID     string          `json:"product_id"`
	Quantity      int64           `json:"quantity"`
	SubtotalCents int64           `json:"subtotal_cents"`
	Available     bool            `json:"available"`
}

type CartResponse struct {
	Items      []CartLine `json:"items"`
	TotalCents int64      `json:"total_cents"`
}

// GET /api/user/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	account, err := h.accounts.FindByID(c.Request.Context(), id.AccountID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.renderCart(c, http.StatusOK, account)
}

// POST /api/user/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	product, err := h.products.FindByID(ctx, req.ProductID, false)
	if err != nil {
		respond.Error(c, err)
		return
	}

	account, err := h.accounts.AddCartItem(ctx, id.AccountID, product.ID, req.Quantity)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.renderCart(c, http.StatusOK, account)
}

// PUT /api/user/cart/items/:productId
func (h *CartHandler) SetItem(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := parseObjectIDParam(c, "productId", "product")
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.products.FindByID(ctx, productID.Hex(), false); err != nil {
		respond.Error(c, err)
		return
	}

	account, err := h.accounts.SetCartItem(ctx, id.AccountID, productID, req.Quantity)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.renderCart(c, http.StatusOK, account)
}

// DELETE /api/user/cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := parseObjectIDParam(c, "productId", "product")
	if !ok {
		return
	}

	account, err := h.accounts.RemoveCartItem(c.Request.Context(), id.AccountID, productID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.renderCart(c, http.StatusOK, account)
}

// DELETE /api/user/cart
func (h *CartHandler) Clear(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.accounts.ClearCart(c.Request.Context(), id.AccountID); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, CartResponse{Items: []CartLine{}})
}

// GET /api/user/wishlist
func (h *CartHandler) GetWishlist(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	account, err := h.accounts.FindByID(c.Request.Context(), id.AccountID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.renderWishlist(c, account)
}

// POST /api/user/wishlist/:productId
func (h *CartHandler) AddToWishlist(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := parseObjectIDParam(c, "productId", "product")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.products.FindByID(ctx, productID.Hex(), false); err != nil {
		respond.Error(c, err)
		return
	}
	account, err := h.accounts.AddToWishlist(ctx, id.AccountID, productID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.renderWishlist(c, account)
}

// DELETE /api/user/wishlist/:productId
func (h *CartHandler) RemoveFromWishlist(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := parseObjectIDParam(c, "productId", "product")
	if !ok {
		return
	}

	account, err := h.accounts.RemoveFromWishlist(c.Request.Context(), id.AccountID, productID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.renderWishlist(c, account)
}

func (h *CartHandler) renderCart(c *gin.Context, status int, account *models.Account) {
	ids := make([]primitive.ObjectID, 0, len(account.Cart))
	for _, item := range account.Cart {
		ids = append(ids, item.ProductID)
	}
	products, err := h.products.FindManyByIDs(c.Request.Context(), ids)
	if err != nil {
		respond.Error(c, err)
		return
	}

	resp := CartResponse{Items: make([]CartLine, 0, len(account.Cart))}
	for _, item := range account.Cart {
		line := CartLine{ProductID: item.ProductID.Hex(), Quantity: item.Quantity}
		if p, found := products[item.ProductID]; found {
			line.Product = p
			line.Available = p.IsPublished && p.Stock >= item.Quantity
			line.SubtotalCents = p.PriceCents * item.Quantity
			resp.TotalCents += line.SubtotalCents
		}
		resp.Items = append(resp.Items, line)
	}
	c.JSON(status, resp)
}

func (h *CartHandler) renderWishlist(c *gin.Context, account *models.Account) {
	products, err := h.products.FindManyByIDs(c.Request.Context(), account.Wishlist)
	if err != nil {
		respond.Error(c, err)
		return
	}

	out := make([]*models.Product, 0, len(products))
	for _, pid := range account.Wishlist {
		if p, found := products[pid]; found && p.IsPublished {
			out = append(out, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
