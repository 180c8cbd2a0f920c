package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bind variables in span statements (dev only)
	SlowQueryThresh time.Duration // default 200ms
	DBName          string
}

// DefaultDBTracingConfig returns the production defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "pharmacy",
	}
}

const queryStartKey = "slow_query:start"

// DBTracingPlugin installs otelgorm and flags slow statements on their spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register adds the otelgorm plugin and the slow query callbacks to db.
// It does nothing when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// The timing callbacks sit inside otelgorm's before/after pair so the
	// statement span is still current when a slow query is flagged.
	cb := db.Callback()
	steps := []struct {
		name     string
		register func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").After("otel:before:create").Register("slow_query:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Before("otel:after:create").Register("slow_query:after_create", a)
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").After("otel:before:select").Register("slow_query:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Before("otel:after:select").Register("slow_query:after_query", a)
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").After("otel:before:update").Register("slow_query:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Before("otel:after:update").Register("slow_query:after_update", a)
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").After("otel:before:delete").Register("slow_query:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("slow_query:after_delete", a)
		}},
		{"row", func(b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").After("otel:before:row").Register("slow_query:before_row", b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Before("otel:after:row").Register("slow_query:after_row", a)
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").After("otel:before:raw").Register("slow_query:before_raw", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("slow_query:after_raw", a)
		}},
	}
	for _, step := range steps {
		if err := step.register(markQueryStart, p.afterQuery(step.name)); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) afterQuery(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		if elapsed < p.config.SlowQueryThresh {
			return
		}

		if ctx := db.Statement.Context; ctx != nil {
			trace.SpanFromContext(ctx).SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
			)
		}

		fields := []zap.Field{
			zap.String("operation", operation),
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", db.Statement.RowsAffected),
		}
		if p.config.LogFullSQL {
			fields = append(fields, zap.String("sql", db.Statement.SQL.String()))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			fields = append(fields, zap.Error(db.Error))
		}
		p.logger.Warn("Slow database query", fields...)
	}
}
