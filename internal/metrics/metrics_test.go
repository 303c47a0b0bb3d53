package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CheckoutOutcome("success")
	m.CheckoutOutcome("success")
	m.CheckoutOutcome("insufficient_stock")
	m.Transition("pending", "cancelled")
	m.StockReleased(3)
	m.StockReleased(0)
	m.EventPublished("order.created", nil)
	m.EventPublished("order.created", errors.New("broker down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "cancelled")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stockReleased))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("order.created", "error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/products", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "storefront_http_requests_total"))
	assert.True(t, strings.Contains(body, `route="/api/products"`))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.InFlight(1)
		m.ObserveRequest(http.MethodGet, "", http.StatusOK, time.Millisecond)
		m.CheckoutOutcome("success")
		m.Transition("pending", "processing")
		m.StockReleased(1)
		m.EventPublished("order.created", nil)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
