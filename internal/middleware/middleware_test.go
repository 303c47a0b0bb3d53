package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/auth"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repository/memory"
	"storefront/internal/respond"
)

const testSecret = "middleware-test-secret-0123456789"

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	store  *memory.Store
	tokens *auth.Tokens
	router *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokens(testSecret, time.Hour)
	a := middleware.NewAuth(tokens, store.Accounts())

	whoami := func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"account_id": id.AccountID, "role": id.Role})
	}

	router := gin.New()
	router.GET("/public", a.Chain(middleware.Public, func(c *gin.Context) { c.Status(http.StatusOK) })...)
	router.GET("/me", a.Chain(middleware.Authenticated, whoami)...)
	router.GET("/admin", a.Chain(middleware.Admin, whoami)...)

	return &authFixture{store: store, tokens: tokens, router: router}
}

func (f *authFixture) token(t *testing.T, id primitive.ObjectID) string {
	t.Helper()
	token, _, err := f.tokens.Issue(id.Hex())
	require.NoError(t, err)
	return token
}

func (f *authFixture) do(path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body respond.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestRequireAuthenticated(t *testing.T) {
	f := newAuthFixture(t)
	user := f.store.AddAccount(models.Account{Name: "Ana", Email: "ana@example.com"})
	blocked := f.store.AddAccount(models.Account{Name: "Bob", Email: "bob@example.com", Blocked: true})

	expired := auth.NewTokens(testSecret, -time.Minute)
	expiredToken, _, err := expired.Issue(user.ID.Hex())
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		wantStatus    int
		wantCode      string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"wrong scheme", "Basic " + f.token(t, user.ID), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"account vanished", "Bearer " + f.token(t, primitive.NewObjectID()), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"blocked account", "Bearer " + f.token(t, blocked.ID), http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do("/me", tt.authorization)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}

	t.Run("valid token", func(t *testing.T) {
		w := f.do("/me", "bearer "+f.token(t, user.ID))
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, user.ID.Hex(), body["account_id"])
		assert.Equal(t, "user", body["role"])
	})
}

func TestRequireAdmin(t *testing.T) {
	f := newAuthFixture(t)
	user := f.store.AddAccount(models.Account{Name: "Ana", Email: "ana@example.com"})
	admin := f.store.AddAccount(models.Account{Name: "Root", Email: "root@example.com", Role: models.RoleAdmin})

	w := f.do("/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do("/admin", "Bearer "+f.token(t, user.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	w = f.do("/admin", "Bearer "+f.token(t, admin.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	// public no pide token
	w = f.do("/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminReadsRoleLive(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.store.AddAccount(models.Account{Name: "Root", Email: "root@example.com", Role: models.RoleAdmin})
	token := f.token(t, admin.ID)

	require.Equal(t, http.StatusOK, f.do("/admin", "Bearer "+token).Code)

	// el mismo token deja de servir en cuanto cambia el rol
	admin.Role = models.RoleUser
	f.store.AddAccount(admin)
	assert.Equal(t, http.StatusForbidden, f.do("/admin", "Bearer "+token).Code)
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "public", middleware.Public.String())
	assert.Equal(t, "authenticated", middleware.Authenticated.String())
	assert.Equal(t, "admin", middleware.Admin.String())
}

func TestRequestLoggerTraceID(t *testing.T) {
	router := gin.New()
	router.Use(middleware.RequestLogger(logger.Discard(), metrics.New()))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetTraceID(c.Request.Context()))
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		traceID := w.Header().Get(middleware.RequestIDHeader)
		assert.NotEmpty(t, traceID)
		assert.Equal(t, traceID, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "abc-123", w.Body.String())
	})
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(middleware.CORS([]string{"https://shop.example.com"}))
	router.GET("/api/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})
}

func TestCORSAllowAll(t *testing.T) {
	router := gin.New()
	router.Use(middleware.CORS([]string{"*"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 2)
	router := gin.New()
	router.POST("/login", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	// otra IP tiene su propio cupo
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))

	// Cleanup con idle cero borra a todos y el cupo se reinicia
	limiter.Cleanup(0)
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
}
