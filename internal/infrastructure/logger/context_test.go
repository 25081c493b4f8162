package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithContext(t *testing.T) {
	t.Run("stores and retrieves logger", func(t *testing.T) {
		logger := zap.NewNop()
		ctx := WithContext(context.Background(), logger)

		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("returns noop when no logger present", func(t *testing.T) {
		logger := FromContext(context.Background())
		assert.NotNil(t, logger)
	})
}

func TestWithRequestID(t *testing.T) {
	logger := zap.NewNop()
	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))
}

func TestWithTenantID(t *testing.T) {
	logger := zap.NewNop()
	ctx, _ := WithTenantID(context.Background(), logger, "tenant-abc")

	assert.Equal(t, "tenant-abc", GetTenantID(ctx))
}

func TestWithUserID(t *testing.T) {
	logger := zap.NewNop()
	ctx, _ := WithUserID(context.Background(), logger, "user-xyz")

	assert.Equal(t, "user-xyz", GetUserID(ctx))
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetTenantID(ctx))
	assert.Empty(t, GetUserID(ctx))
}
