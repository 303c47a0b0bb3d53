package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/respond"
)

// AccountCreator es lo que registro y login necesitan de las cuentas
type AccountCreator interface {
	Create(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type AuthHandler struct {
	accounts AccountCreator
	tokens   *auth.Tokens
}

func NewAuthHandler(accounts AccountCreator, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=80"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *models.Account `json:"account"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respond.Error(c, apperr.Validation(err.Error()))
			return
		}
		respond.Error(c, apperr.Unexpected("hash password", err))
		return
	}

	account := &models.Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := h.accounts.Create(c.Request.Context(), account); err != nil {
		respond.Error(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).
		WithField(logger.AccountID, account.ID.Hex()).
		Info("account registered")

	h.issue(c, http.StatusCreated, account)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	invalid := apperr.Unauthenticated("invalid email or password")

	account, err := h.accounts.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			respond.Error(c, invalid)
			return
		}
		respond.Error(c, err)
		return
	}
	if !auth.CheckPassword(account.PasswordHash, req.Password) {
		respond.Error(c, invalid)
		return
	}
	if account.Blocked {
		respond.Error(c, apperr.Forbidden("account is blocked"))
		return
	}

	h.issue(c, http.StatusOK, account)
}

// POST /api/user/logout: el token no se revoca, el cliente lo descarta
func (h *AuthHandler) Logout(c *gin.Context) {
	writeMessage(c, "logged out")
}

func (h *AuthHandler) issue(c *gin.Context, status int, account *models.Account) {
	token, expiresAt, err := h.tokens.Issue(account.ID.Hex())
	if err != nil {
		respond.Error(c, apperr.Unexpected("issue token", err))
		return
	}
	c.JSON(status, TokenResponse{Token: token, ExpiresAt: expiresAt, Account: account})
}
