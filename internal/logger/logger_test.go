package logger_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"storefront/internal/logger"
)

func TestNew(t *testing.T) {
	l := logger.New("debug", "text")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l = logger.New("nonsense", "json")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestFromContextDoesNotFollowNew(t *testing.T) {
	l := logger.New("debug", "json")

	entry := logger.FromContext(context.Background())
	assert.Same(t, logrus.StandardLogger(), entry.Logger)
	assert.NotSame(t, l, entry.Logger)
	assert.Empty(t, logger.GetTraceID(context.Background()))
}

func TestWithEntry(t *testing.T) {
	l := logger.Discard()
	ctx := logger.WithEntry(context.Background(), l.WithField(logger.TraceID, "abc"))

	assert.Same(t, l, logger.FromContext(ctx).Logger)
	assert.Equal(t, "abc", logger.GetTraceID(ctx))
}
