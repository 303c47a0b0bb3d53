package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
		code string
	}{
		{KindValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
		{KindUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{KindForbidden, http.StatusForbidden, "FORBIDDEN"},
		{KindNotFound, http.StatusNotFound, "NOT_FOUND"},
		{KindConflict, http.StatusConflict, "CONFLICT"},
		{KindInsufficientStock, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{KindInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{KindUnexpected, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
			assert.Equal(t, tt.code, tt.kind.Code())
		})
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	base := InsufficientStock("p1", "Lamp", 3, 1)
	wrapped := fmt.Errorf("checkout: %w", base)

	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindInsufficientStock))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "p1", e.Details["product_id"])
	assert.Equal(t, int64(1), e.Details["available"])
}

func TestKindOf_PlainErrorIsUnexpected(t *testing.T) {
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindUnexpected))
}

func TestUnexpected_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unexpected("failed to load order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
