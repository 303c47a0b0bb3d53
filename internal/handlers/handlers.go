// Package handlers expone la tienda por HTTP con gin. Los errores se
// renderizan siempre con respond para mantener un solo formato.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/repository"
	"storefront/internal/respond"
)

// ListResponse es la forma común de los listados paginados
type ListResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int64       `json:"total_pages"`
}

func newListResponse(data interface{}, total int64, page, pageSize int) ListResponse {
	page, pageSize = repository.Page(page, pageSize)
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return ListResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// getPaginationParams obtiene y valida los parámetros de paginación
func getPaginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(repository.DefaultPageSize)))
	return repository.Page(page, pageSize)
}

// identity devuelve la cuenta autenticada; si falta responde 401
func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		respond.Error(c, apperr.Unauthenticated("authentication required"))
		return auth.Identity{}, false
	}
	return id, true
}

func parseObjectIDParam(c *gin.Context, name, resource string) (primitive.ObjectID, bool) {
	objID, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		respond.Error(c, apperr.Validation("invalid "+resource+" id"))
		return primitive.NilObjectID, false
	}
	return objID, true
}

func writeMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, respond.SuccessResponse{Message: message})
}
