package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DBTracingPlugin is a gorm.Plugin that registers otelgorm and flags slow
// queries on the active span.
type DBTracingPlugin struct {
	dbSystem   string
	fullSQL    bool
	slowQuery  time.Duration
	otelgormOp []otelgorm.Option
}

// NewDBTracingPlugin creates the plugin. Extra otelgorm options (e.g. a test
// tracer provider) are appended to the configured ones.
func NewDBTracingPlugin(cfg config.TelemetryConfig, dbSystem string, opts ...otelgorm.Option) *DBTracingPlugin {
	slow := cfg.DBSlowQueryThresh
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &DBTracingPlugin{
		dbSystem:   dbSystem,
		fullSQL:    cfg.DBLogFullSQL,
		slowQuery:  slow,
		otelgormOp: opts,
	}
}

// Name implements gorm.Plugin
func (p *DBTracingPlugin) Name() string {
	return "tanad:db_tracing"
}

// Initialize implements gorm.Plugin
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(p.dbSystem)}
	if !p.fullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	opts = append(opts, p.otelgormOp...)

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string) error
		after  func(string) error
	}{
		{"create", func(n string) error { return cb.Create().Before("gorm:create").Register(n, p.start) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, p.finish) }},
		{"query", func(n string) error { return cb.Query().Before("gorm:query").Register(n, p.start) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, p.finish) }},
		{"update", func(n string) error { return cb.Update().Before("gorm:update").Register(n, p.start) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, p.finish) }},
		{"delete", func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, p.start) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, p.finish) }},
		{"row", func(n string) error { return cb.Row().Before("gorm:row").Register(n, p.start) },
			func(n string) error { return cb.Row().After("gorm:row").Register(n, p.finish) }},
		{"raw", func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, p.start) },
			func(n string) error { return cb.Raw().After("gorm:raw").Register(n, p.finish) }},
	}
	for _, s := range steps {
		if err := s.before("tanad_timing:before_" + s.op); err != nil {
			return err
		}
		if err := s.after("tanad_timing:after_" + s.op); err != nil {
			return err
		}
	}
	return nil
}

type contextKey string

const queryStartKey contextKey = "tanad_query_start"

func (p *DBTracingPlugin) start(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
	}
}

func (p *DBTracingPlugin) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}
	started, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(started); elapsed > p.slowQuery {
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.String("db.sql.table", db.Statement.Table),
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.slowQuery.Milliseconds()),
		))
	}
}
