package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]string {
	out := make(map[string]string, len(entry.Context))
	for _, f := range entry.Context {
		out[f.Key] = f.String
	}
	return out
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestIdentityHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithIdentity(ctx, "user-1", "ent-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "ent-1", GetEnterpriseID(ctx))

	noEnterprise := WithIdentity(context.Background(), "user-2", "")
	assert.Equal(t, "", GetEnterpriseID(noEnterprise))
}

func TestL_EnrichesWithContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithIdentity(ctx, "user-7", "ent-9")

	L(ctx).Info("client created")

	entries := recorded.All()
	assert.Len(t, entries, 1)
	fields := fieldMap(entries[0])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "user-7", fields["user_id"])
	assert.Equal(t, "ent-9", fields["enterprise_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestEnrich_WithSpan(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	core, recorded := observer.New(zapcore.InfoLevel)
	Enrich(ctx, zap.New(core)).Info("traced")

	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
	assert.Equal(t, traceID.String(), GetTraceID(ctx))
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestEnrich_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Enrich(context.Background(), nil).Info("dropped")
	})
}
