// Package logger configura logrus y lleva la entrada de log con el trace id
// dentro del context de cada request.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	TraceID   = "trace_id"
	AccountID = "account_id"
	OrderID   = "order_id"
	ProductID = "product_id"
)

type ctxKey struct{}

// New crea el logger de la aplicación; se inyecta en RequestLogger
func New(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Discard sirve para tests que no quieren ruido en la salida
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func WithEntry(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext nunca devuelve nil; fuera de un request usa el logger estándar
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && entry != nil {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func GetTraceID(ctx context.Context) string {
	if v, ok := FromContext(ctx).Data[TraceID].(string); ok {
		return v
	}
	return ""
}
