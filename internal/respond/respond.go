// Package respond escribe las respuestas de error con el mismo formato en
// handlers y middleware.
package respond

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront/internal/apperr"
	"storefront/internal/logger"
)

type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// Error corta la cadena de handlers; los errores inesperados se loguean con
// el trace id y el cliente solo ve un mensaje genérico.
func Error(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Unexpected("unexpected error", err)
	}

	resp := ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Kind.Code(),
		Details: appErr.Details,
	}

	if appErr.Kind == apperr.KindUnexpected {
		logger.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		resp.Error = "internal server error"
		resp.Details = nil
		if traceID := logger.GetTraceID(c.Request.Context()); traceID != "" {
			resp.Details = map[string]interface{}{"trace_id": traceID}
		}
	}

	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), resp)
}

// BindError traduce errores de binding/validator a un error de validación
// con el detalle por campo.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]interface{}, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			fields[toSnake(fe.Field())] = rule
		}
		Error(c, apperr.Validation("request validation failed").WithDetails("fields", fields))
		return
	}
	Error(c, apperr.Validation("invalid request body"))
}

func toSnake(s string) string {
	isUpper := func(b byte) bool { return b >= 'A' && b <= 'Z' }

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUpper(ch) {
			prevLower := i > 0 && !isUpper(s[i-1])
			nextLower := i > 0 && i+1 < len(s) && !isUpper(s[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			ch += 'a' - 'A'
		}
		b.WriteByte(ch)
	}
	return b.String()
}
