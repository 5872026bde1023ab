package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name     string
		level    gormlogger.LogLevel
		begin    time.Time
		err      error
		expected string
	}{
		{name: "error", level: gormlogger.Error, begin: time.Now(), err: errors.New("relation does not exist"), expected: "Database query failed"},
		{name: "record not found is ignored", level: gormlogger.Error, begin: time.Now(), err: gormlogger.ErrRecordNotFound},
		{name: "slow query", level: gormlogger.Warn, begin: time.Now().Add(-time.Second), expected: "Slow database query"},
		{name: "normal query", level: gormlogger.Info, begin: time.Now(), expected: "Database query"},
		{name: "silent", level: gormlogger.Silent, begin: time.Now().Add(-time.Second), err: errors.New("ignored")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level)

			gl.Trace(context.Background(), tt.begin, sqlFn(`SELECT * FROM "clients"`, 3), tt.err)

			if tt.expected == "" {
				assert.Empty(t, recorded.All())
				return
			}
			require.Len(t, recorded.All(), 1)
			assert.Equal(t, tt.expected, recorded.All()[0].Message)
		})
	}
}

func TestGormLogger_Trace_CarriesScope(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, WithSlowThreshold(time.Hour))

	ctx := WithIdentity(WithRequestID(context.Background(), "req-9"), "user-1", "ent-1")
	gl.Trace(ctx, time.Now(), sqlFn(`DELETE FROM "department_locations"`, 2), nil)

	require.Len(t, recorded.All(), 1)
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "ent-1", fields["enterprise_id"])
	assert.Equal(t, int64(2), fields["rows"])
	assert.Equal(t, "delete", fields["statement"])
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	sql := `SELECT * FROM "clients" WHERE email = $1`

	redacting := NewGormLogger(zap.NewNop(), gormlogger.Info)
	got, params := redacting.ParamsFilter(context.Background(), sql, "noura@acme.sa")
	assert.Equal(t, sql, got)
	assert.Nil(t, params)

	full := NewGormLogger(zap.NewNop(), gormlogger.Info, WithFullSQL(true))
	_, params = full.ParamsFilter(context.Background(), sql, "noura@acme.sa")
	assert.Equal(t, []any{"noura@acme.sa"}, params)
}

func TestWithSlowThreshold_IgnoresZero(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Warn, WithSlowThreshold(0))
	assert.Equal(t, DefaultSlowQueryThreshold, gl.slowThreshold)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Warn)
	changed := gl.LogMode(gormlogger.Info).(*GormLogger)

	assert.Equal(t, gormlogger.Info, changed.logLevel)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("INFO"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
