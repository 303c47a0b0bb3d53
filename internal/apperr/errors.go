// Package apperr define la taxonomía de errores compartida por el motor de
// pedidos, los repositorios y la capa HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind clasifica el error y decide el status HTTP
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindInvalidTransition
)

// ErrPreconditionFailed lo devuelven los stores cuando una actualización
// condicional no encuentra documento porque el estado ya cambió.
var ErrPreconditionFailed = errors.New("precondition failed")

// Error viaja desde los stores hasta los handlers
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails agrega un par clave/valor que se devuelve al cliente
func (e *Error) WithDetails(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Code es el identificador que recibe el cliente
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_FAILED"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindInvalidTransition:
		return "INVALID_TRANSITION"
	default:
		return "INTERNAL_ERROR"
	}
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInsufficientStock, KindInvalidTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NotFound("order") -> "order not found"
func NotFound(resource string) *Error {
	return New(KindNotFound, resource+" not found")
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// InsufficientStock nombra el producto que no alcanzó a cubrir la cantidad
func InsufficientStock(productID, name string, requested, available int64) *Error {
	return New(KindInsufficientStock, fmt.Sprintf("insufficient stock for %q", name)).
		WithDetails("product_id", productID).
		WithDetails("requested", requested).
		WithDetails("available", available)
}

func InvalidTransition(from, to string) *Error {
	return New(KindInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails("from", from).
		WithDetails("to", to)
}

// Unexpected envuelve fallas de infraestructura; el mensaje nunca llega al cliente
func Unexpected(message string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: message, Err: err}
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf devuelve KindUnexpected para errores fuera de la taxonomía
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnexpected
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
