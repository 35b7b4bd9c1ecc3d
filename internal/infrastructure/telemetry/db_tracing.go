package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures SQL spans
type DBTracingConfig struct {
	Enabled    bool
	DBName     string
	LogFullSQL bool
	SlowQuery  time.Duration
}

const startedAtKey = "telemetry:started_at"

// RegisterDBTracing installs otelgorm plus callbacks that mark slow and failed
// statements on the active span. The marking runs before otelgorm ends the span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if cfg.SlowQuery <= 0 {
		cfg.SlowQuery = 200 * time.Millisecond
	}

	start := func(tx *gorm.DB) { tx.InstanceSet(startedAtKey, time.Now()) }
	finish := func(tx *gorm.DB) { annotateSpan(tx, cfg.SlowQuery) }

	cb := db.Callback()
	errs := []error{
		cb.Create().Before("gorm:create").Register("telemetry:before_create", start),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("telemetry:after_create", finish),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", start),
		cb.Query().After("gorm:query").Before("otel:after:select").Register("telemetry:after_query", finish),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", start),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("telemetry:after_update", finish),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", start),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("telemetry:after_delete", finish),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", start),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("telemetry:after_row", finish),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", start),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("telemetry:after_raw", finish),
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	logger.Info("sql tracing enabled",
		zap.Bool("full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query", cfg.SlowQuery))
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
	if tx.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	v, ok := tx.InstanceGet(startedAtKey)
	if !ok {
		return
	}
	if started, ok := v.(time.Time); ok {
		if elapsed := time.Since(started); elapsed > slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
