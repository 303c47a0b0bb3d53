package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/respond"
)

// AccountHandler cubre perfil, direcciones y la administración de usuarios
type AccountHandler struct {
	repo *repository.AccountRepository
}

func NewAccountHandler(repo *repository.AccountRepository) *AccountHandler {
	return &AccountHandler{repo: repo}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

type RoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=user admin"`
}

type BlockRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// GET /api/user/profile
func (h *AccountHandler) GetProfile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	account, err := h.repo.FindByID(c.Request.Context(), id.AccountID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// PUT /api/user/profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	account, err := h.repo.UpdateProfile(c.Request.Context(), id.AccountID, req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// PUT /api/user/profile/password
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	account, err := h.repo.FindByID(ctx, id.AccountID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if !auth.CheckPassword(account.PasswordHash, req.CurrentPassword) {
		respond.Error(c, apperr.Validation("current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respond.Error(c, apperr.Validation(err.Error()))
		return
	}
	if err := h.repo.UpdatePasswordHash(ctx, id.AccountID, hash); err != nil {
		respond.Error(c, err)
		return
	}

	logger.FromContext(ctx).Info("password changed")
	writeMessage(c, "password updated")
}

// POST /api/user/addresses
func (h *AccountHandler) AddAddress(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var address models.Address
	if err := c.ShouldBindJSON(&address); err != nil {
		respond.BindError(c, err)
		return
	}
	address.Country = strings.ToUpper(strings.TrimSpace(address.Country))

	account, err := h.repo.AddAddress(c.Request.Context(), id.AccountID, address)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, account.Addresses)
}

// DELETE /api/user/addresses/:addressId
func (h *AccountHandler) RemoveAddress(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	account, err := h.repo.RemoveAddress(c.Request.Context(), id.AccountID, c.Param("addressId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, account.Addresses)
}

// GET /api/admin/users
func (h *AccountHandler) ListUsers(c *gin.Context) {
	page, pageSize := getPaginationParams(c)
	accounts, total, err := h.repo.List(c.Request.Context(), page, pageSize, strings.TrimSpace(c.Query("q")))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(accounts, total, page, pageSize))
}

// PATCH /api/admin/users/:id/role
func (h *AccountHandler) SetRole(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	target := c.Param("id")
	// un admin no puede quitarse el rol a sí mismo
	if target == actor.AccountID && req.Role != models.RoleAdmin {
		respond.Error(c, apperr.Conflict("administrators cannot demote themselves"))
		return
	}

	account, err := h.repo.SetRole(c.Request.Context(), target, req.Role)
	if err != nil {
		respond.Error(c, err)
		return
	}
	logger.FromContext(c.Request.Context()).
		WithField("target_account", target).
		WithField("role", req.Role).
		Info("account role changed")
	c.JSON(http.StatusOK, account)
}

// PATCH /api/admin/users/:id/block
func (h *AccountHandler) SetBlocked(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	target := c.Param("id")
	if target == actor.AccountID && *req.Blocked {
		respond.Error(c, apperr.Conflict("administrators cannot block themselves"))
		return
	}

	account, err := h.repo.SetBlocked(c.Request.Context(), target, *req.Blocked)
	if err != nil {
		respond.Error(c, err)
		return
	}
	logger.FromContext(c.Request.Context()).
		WithField("target_account", target).
		WithField("blocked", *req.Blocked).
		Info("account block changed")
	c.JSON(http.StatusOK, account)
}
