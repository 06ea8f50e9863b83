package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true, "atlas")
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false, "")
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	scoped := zap.New(core).With(zap.String("request_id", "req-1"))
	ctx := WithContext(context.Background(), scoped)

	FromContext(ctx, nil).Info("hello")
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "req-1", logs.All()[0].ContextMap()["request_id"])

	require.NotNil(t, FromContext(context.Background(), nil))
	fallback := zap.NewExample()
	require.Same(t, fallback, FromContext(context.Background(), fallback))
}
