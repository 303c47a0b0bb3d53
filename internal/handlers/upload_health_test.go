package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/handlers"
	"storefront/internal/respond"
)

func multipartRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadRouter(dir string, maxMB int64) *gin.Engine {
	router := gin.New()
	router.POST("/upload", handlers.NewUploadHandler(dir, maxMB).UploadImages)
	return router
}

func TestUploadImages(t *testing.T) {
	dir := t.TempDir()
	router := uploadRouter(dir, 1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, map[string][]byte{"Foto.PNG": []byte("png-bytes")}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[handlers.UploadResponse](t, w)
	require.Len(t, resp.URLs, 1)
	assert.True(t, strings.HasPrefix(resp.URLs[0], handlers.UploadsRoute+"/"))
	assert.True(t, strings.HasSuffix(resp.URLs[0], ".png"))

	saved, err := os.ReadFile(filepath.Join(dir, filepath.Base(resp.URLs[0])))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(saved))
}

func TestUploadImagesRejectsBeforeWriting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	router := uploadRouter(dir, 1)

	tests := []struct {
		name  string
		files map[string][]byte
	}{
		{"no files", map[string][]byte{}},
		{"bad extension", map[string][]byte{"ok.jpg": []byte("a"), "script.exe": []byte("b")}},
		{"too large", map[string][]byte{"big.jpg": bytes.Repeat([]byte("x"), (1<<20)+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, multipartRequest(t, tt.files))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_FAILED", decode[respond.ErrorResponse](t, w).Code)

			// ni siquiera se crea el directorio
			_, err := os.Stat(dir)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestHealth(t *testing.T) {
	run := func(checks map[string]handlers.HealthCheck) *httptest.ResponseRecorder {
		router := gin.New()
		router.GET("/healthz", handlers.NewHealthHandler(checks).Health)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return w
	}

	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	w := run(map[string]handlers.HealthCheck{"mongo": up, "redis": up})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, w)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"mongo": "up", "redis": "up"}, body.Checks)

	w = run(map[string]handlers.HealthCheck{"mongo": up, "redis": down})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body = decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, w)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "down", body.Checks["redis"])
}
