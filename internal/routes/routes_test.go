package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repository/memory"
	"storefront/internal/routes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTablePoliciesFollowPrefixes(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range routes.Table(routes.Handlers{}) {
		key := r.Method + " " + r.Path
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true

		switch {
		case strings.HasPrefix(r.Path, "/api/admin/"):
			assert.Equal(t, middleware.Admin, r.Policy, key)
		case strings.HasPrefix(r.Path, "/api/user/"):
			assert.Equal(t, middleware.Authenticated, r.Policy, key)
		default:
			assert.Equal(t, middleware.Public, r.Policy, key)
		}
	}

	assert.True(t, seen["POST /api/user/orders/checkout"])
	assert.True(t, seen["PATCH /api/admin/orders/:id/status"])
	assert.True(t, seen["POST /api/payments/stripe/webhook"])
}

func TestRouterEnforcesPolicies(t *testing.T) {
	store := memory.New()
	tokens := auth.NewTokens("routes-test-secret-0123456789", time.Hour)
	user := store.AddAccount(models.Account{Name: "Ana", Email: "ana@example.com"})
	userToken, _, err := tokens.Issue(user.ID.Hex())
	require.NoError(t, err)

	router := routes.NewRouter(
		middleware.NewAuth(tokens, store.Accounts()),
		routes.Handlers{Health: handlers.NewHealthHandler(nil)},
		routes.Options{
			Log:          logger.Discard(),
			Metrics:      metrics.New(),
			Origins:      []string{"*"},
			LoginLimiter: middleware.NewRateLimiter(60, 5),
		},
	)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"user route without token", http.MethodGet, "/api/user/orders", "", http.StatusUnauthorized},
		{"admin route without token", http.MethodGet, "/api/admin/orders", "", http.StatusUnauthorized},
		{"admin route as user", http.MethodGet, "/api/admin/users", userToken, http.StatusForbidden},
		{"admin write as user", http.MethodPatch, "/api/admin/orders/abc/status", userToken, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}
