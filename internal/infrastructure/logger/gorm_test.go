package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) {
		return "SELECT * FROM manufacturing_orders WHERE tenant_id = $1", 3
	}

	t.Run("logs queries at info level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), query, nil)

		entries := logs.FilterMessage("SQL query").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(3), fields["rows"])
		assert.Contains(t, fields["sql"], "manufacturing_orders")
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), query, errors.New("broken"))
		assert.Zero(t, logs.Len())
	})

	t.Run("errors log at error level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))

		entries := logs.FilterMessage("SQL error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
	})

	t.Run("record not found is suppressed by default", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("record not found logged when enabled", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error, WithRecordNotFoundLogging())
		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.FilterMessage("SQL error").Len())
	})

	t.Run("slow queries log at warn level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Millisecond), query, nil)
		assert.Equal(t, 1, logs.FilterMessage("Slow SQL").Len())
	})

	t.Run("includes request id from context", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-42")
		gl.Trace(ctx, time.Now(), query, nil)

		entries := logs.FilterMessage("SQL query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Silent)
	verbose := gl.LogMode(gormlogger.Info)

	verbose.Info(context.Background(), "migrating %s", "orders")
	assert.Equal(t, 1, logs.Len())

	// Original logger keeps its level
	gl.Info(context.Background(), "should not log")
	assert.Equal(t, 1, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapGormLogLevel(tt.input), "level %q", tt.input)
	}
}
