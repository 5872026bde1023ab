package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, config.TelemetryConfig{Enabled: false}, Process{Component: "api"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestResource(t *testing.T) {
	res, err := Resource("tanad", Process{Component: "worker", Version: "1.0.0", Environment: "staging"})
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "tanad", attrs["service.name"])
	assert.Equal(t, "1.0.0", attrs["service.version"])
	assert.Equal(t, "staging", attrs["deployment.environment.name"])
	assert.Equal(t, "worker", attrs["tanad.component"])
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func newRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return tp, recorder
}

func TestStartServiceSpan(t *testing.T) {
	_, recorder := newRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "resource", "create",
		"resource", "clients", "count", 2, "ok", true)
	assert.NotEmpty(t, TraceID(ctx))
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "resource.create", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "clients", attrs["resource"])
	assert.Equal(t, "2", attrs["count"])
	assert.Equal(t, "true", attrs["ok"])
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

type tracedRow struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestDBTracingPlugin(t *testing.T) {
	tp, recorder := newRecorder(t)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	plugin := NewDBTracingPlugin(config.TelemetryConfig{DBSlowQueryThresh: 1}, "sqlite",
		otelgorm.WithTracerProvider(tp))
	require.NoError(t, db.Use(plugin))

	ctx, parent := StartServiceSpan(context.Background(), "test", "db")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{ID: "1", Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	var dbSpans int
	for _, s := range recorder.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			dbSpans++
		}
	}
	assert.GreaterOrEqual(t, dbSpans, 2)

	t.Run("registering twice fails", func(t *testing.T) {
		assert.Error(t, db.Use(plugin))
	})
}
