package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/respond"
)

// AccountFinder es la lectura en vivo de la cuenta en cada request
type AccountFinder interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

type Auth struct {
	tokens   *auth.Tokens
	accounts AccountFinder
}

func NewAuth(tokens *auth.Tokens, accounts AccountFinder) *Auth {
	return &Auth{tokens: tokens, accounts: accounts}
}

// RequireAuthenticated valida el bearer token y vuelve a leer la cuenta:
// un rol o bloqueo cambiado surte efecto sin esperar a que expire el token.
func (a *Auth) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respond.Error(c, apperr.Unauthenticated("missing or malformed Authorization header"))
			return
		}

		accountID, err := a.tokens.Validate(token)
		if err != nil {
			respond.Error(c, err)
			return
		}

		ctx := c.Request.Context()
		account, err := a.accounts.FindByID(ctx, accountID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindValidation) {
				respond.Error(c, apperr.Unauthenticated("account no longer exists"))
				return
			}
			respond.Error(c, err)
			return
		}
		if account.Blocked {
			respond.Error(c, apperr.Forbidden("account is blocked"))
			return
		}

		id := auth.IdentityOf(account)
		entry := logger.FromContext(ctx).WithField(logger.AccountID, id.AccountID)
		ctx = logger.WithEntry(auth.WithIdentity(ctx, id), entry)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin va siempre después de RequireAuthenticated
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c.Request.Context())
		if !ok {
			respond.Error(c, apperr.Unauthenticated("authentication required"))
			return
		}
		if !id.IsAdmin() {
			respond.Error(c, apperr.Forbidden("administrator role required"))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
