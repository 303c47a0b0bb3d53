package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/internal/logger"
	"storefront/internal/metrics"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger asigna el trace id, deja la entrada de log en el context y
// registra duración y status de cada request.
func RequestLogger(log *logrus.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(RequestIDHeader)
		if traceID == "" || len(traceID) > 64 {
			traceID = uuid.NewString()
		}
		c.Header(RequestIDHeader, traceID)

		entry := log.WithField(logger.TraceID, traceID)
		c.Request = c.Request.WithContext(logger.WithEntry(c.Request.Context(), entry))

		m.InFlight(1)
		defer m.InFlight(-1)

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		route := c.FullPath()
		m.ObserveRequest(c.Request.Method, route, status, elapsed)

		// el handler pudo enriquecer la entrada (account_id)
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      route,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		reqLog := logger.FromContext(c.Request.Context()).WithFields(fields)
		switch {
		case status >= 500:
			reqLog.Error("request completed")
		case status >= 400:
			reqLog.Warn("request completed")
		default:
			reqLog.Info("request completed")
		}
	}
}
