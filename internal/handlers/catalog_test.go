package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/respond"
)

func TestCommentOwnership(t *testing.T) {
	s := newServer(t, "")
	mug := s.product("mug", 1000, 5)
	_, authorToken := s.customer(t)
	_, strangerToken := s.customer(t)
	adminToken := s.admin(t)

	w := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/user/products/" + mug.ID.Hex() + "/comments",
		token:  authorToken,
		body:   map[string]interface{}{"body": "  buena taza  ", "rating": 5},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[models.Comment](t, w)
	assert.Equal(t, "buena taza", comment.Body)
	commentPath := "/api/user/comments/" + comment.ID.Hex()

	t.Run("stranger cannot edit", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodPut, path: commentPath, token: strangerToken, body: map[string]string{"body": "spam"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", decode[respond.ErrorResponse](t, w).Code)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodDelete, path: commentPath, token: strangerToken})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("author edits", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodPut, path: commentPath, token: authorToken, body: map[string]interface{}{"body": "muy buena", "rating": 4}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "muy buena", decode[models.Comment](t, w).Body)
	})

	t.Run("admin edits", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodPut, path: commentPath, token: adminToken, body: map[string]string{"body": "moderado"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "moderado", decode[models.Comment](t, w).Body)
	})

	t.Run("admin deletes", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodDelete, path: commentPath, token: adminToken})
		require.Equal(t, http.StatusOK, w.Code)

		w = s.do(t, call{method: http.MethodDelete, path: commentPath, token: authorToken})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w = s.do(t, call{method: http.MethodGet, path: "/api/products/" + mug.ID.Hex() + "/comments"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), decode[struct {
		Total int64 `json:"total"`
	}](t, w).Total)
}

func TestCommentBlankBodyRejected(t *testing.T) {
	s := newServer(t, "")
	mug := s.product("mug", 1000, 5)
	_, token := s.customer(t)

	w := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/user/products/" + mug.ID.Hex() + "/comments",
		token:  token,
		body:   map[string]string{"body": "   "},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode[respond.ErrorResponse](t, w).Code)

	w = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/user/products/" + mug.ID.Hex() + "/comments",
		token:  token,
		body:   map[string]string{"body": "ok"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode[models.Comment](t, w)

	w = s.do(t, call{
		method: http.MethodPut,
		path:   "/api/user/comments/" + comment.ID.Hex(),
		token:  token,
		body:   map[string]string{"body": "\n\t "},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := s.store.Comments().FindByID(t.Context(), comment.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "ok", stored.Body)
}

func TestCommentOnHiddenProduct(t *testing.T) {
	s := newServer(t, "")
	hidden := s.store.AddProduct(models.Product{Name: "draft", PriceCents: 100, Stock: 1})
	_, token := s.customer(t)

	w := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/user/products/" + hidden.ID.Hex() + "/comments",
		token:  token,
		body:   map[string]string{"body": "hola"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCategory(t *testing.T) {
	s := newServer(t, "")
	adminToken := s.admin(t)
	_, userToken := s.customer(t)

	create := func(name string) models.Category {
		w := s.do(t, call{method: http.MethodPost, path: "/api/admin/categories", token: adminToken, body: map[string]string{"name": name}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[models.Category](t, w)
	}
	kitchen := create("Cocina")
	empty := create("Vacía")

	w := s.do(t, call{method: http.MethodPost, path: "/api/admin/categories", token: adminToken, body: map[string]string{"name": "Cocina"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	s.store.AddProduct(models.Product{Name: "mug", CategoryID: kitchen.ID, IsPublished: true})
	s.store.AddProduct(models.Product{Name: "pot", CategoryID: kitchen.ID})
	s.store.AddProduct(models.Product{Name: "old", CategoryID: empty.ID, IsDeleted: true})

	t.Run("in use", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodDelete, path: "/api/admin/categories/" + kitchen.ID.Hex(), token: adminToken})
		assert.Equal(t, http.StatusConflict, w.Code)
		body := decode[respond.ErrorResponse](t, w)
		assert.Equal(t, "CONFLICT", body.Code)
		assert.EqualValues(t, 2, body.Details["products"])
	})

	t.Run("not admin", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodDelete, path: "/api/admin/categories/" + empty.ID.Hex(), token: userToken})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("only deleted products", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodDelete, path: "/api/admin/categories/" + empty.ID.Hex(), token: adminToken})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("unknown", func(t *testing.T) {
		w := s.do(t, call{method: http.MethodDelete, path: "/api/admin/categories/" + primitive.NewObjectID().Hex(), token: adminToken})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w = s.do(t, call{method: http.MethodGet, path: "/api/categories"})
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Data []models.Category `json:"data"`
	}](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Cocina", list.Data[0].Name)
}
