package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/logger"
	"storefront/internal/respond"
)

const (
	uploadField  = "images"
	maxFiles     = 10
	UploadsRoute = "/uploads"
)

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

type UploadHandler struct {
	dir      string
	maxBytes int64
}

func NewUploadHandler(dir string, maxMB int64) *UploadHandler {
	return &UploadHandler{dir: dir, maxBytes: maxMB << 20}
}

type UploadResponse struct {
	URLs []string `json:"urls"`
}

// POST /api/admin/uploads: campo multipart "images", uno o varios archivos
func (h *UploadHandler) UploadImages(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes*maxFiles+(1<<20))

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, apperr.Validation("invalid multipart form"))
		return
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		respond.Error(c, apperr.Validation("no files in field "+uploadField))
		return
	}
	if len(files) > maxFiles {
		respond.Error(c, apperr.Validation("too many files").WithDetails("max", maxFiles))
		return
	}

	// validar todo antes de escribir nada
	names := make([]string, len(files))
	for i, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if _, ok := allowedImageTypes[ext]; !ok {
			respond.Error(c, apperr.Validation("unsupported file type").WithDetails("file", file.Filename))
			return
		}
		if file.Size > h.maxBytes {
			respond.Error(c, apperr.Validation("file too large").
				WithDetails("file", file.Filename).
				WithDetails("max_bytes", h.maxBytes))
			return
		}
		names[i] = uuid.NewString() + ext
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		respond.Error(c, apperr.Unexpected("create upload dir", err))
		return
	}

	urls := make([]string, 0, len(files))
	for i, file := range files {
		if err := c.SaveUploadedFile(file, filepath.Join(h.dir, names[i])); err != nil {
			respond.Error(c, apperr.Unexpected("save upload", err))
			return
		}
		urls = append(urls, path.Join(UploadsRoute, names[i]))
	}

	logger.FromContext(c.Request.Context()).WithField("files", len(urls)).Info("images uploaded")
	c.JSON(http.StatusCreated, UploadResponse{URLs: urls})
}
