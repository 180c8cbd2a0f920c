package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func newTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := newTracedDB(t)
	plugin := telemetry.NewDBTracingPlugin(telemetry.DefaultDBTracingConfig(), zap.NewNop())
	require.NoError(t, plugin.Register(db))

	_, ok := db.Plugins["otelgorm"]
	assert.False(t, ok)
}

func TestDBTracingPlugin_SpansAndSlowQueries(t *testing.T) {
	recorder := useSpanRecorder(t)
	db := newTracedDB(t)

	core, logs := observer.New(zap.WarnLevel)
	cfg := telemetry.DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = time.Nanosecond
	require.NoError(t, telemetry.NewDBTracingPlugin(cfg, zap.New(core)).Register(db))

	ctx, span := telemetry.StartSpan(context.Background(), "test.parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "amoxicillin"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	span.End()

	assert.Len(t, rows, 1)
	assert.GreaterOrEqual(t, len(recorder.Ended()), 3, "parent plus one span per statement")

	slow := logs.FilterMessage("Slow database query").All()
	require.Len(t, slow, 2)
	assert.Equal(t, "create", slow[0].ContextMap()["operation"])
	assert.Equal(t, "query", slow[1].ContextMap()["operation"])

	flagged := map[string]bool{}
	for _, ended := range recorder.Ended() {
		if v, ok := attrValue(ended.Attributes(), "db.slow_query"); ok && v.AsBool() {
			flagged[ended.Name()] = true
		}
	}
	assert.Equal(t, map[string]bool{"gorm.Create": true, "gorm.Query": true}, flagged,
		"statement spans carry the slow flag, the parent does not")
}

func TestDBTracingPlugin_SlowQueryInsideTransaction(t *testing.T) {
	useSpanRecorder(t)
	db := newTracedDB(t)

	core, logs := observer.New(zap.WarnLevel)
	cfg := telemetry.DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = time.Nanosecond
	require.NoError(t, telemetry.NewDBTracingPlugin(cfg, zap.New(core)).Register(db))

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tracedRow{Name: "ibuprofen"}).Error; err != nil {
			return err
		}
		return tx.Model(&tracedRow{}).Where("name = ?", "ibuprofen").Update("name", "ibuprofen 400").Error
	})
	require.NoError(t, err)

	var ops []string
	for _, e := range logs.FilterMessage("Slow database query").All() {
		ops = append(ops, e.ContextMap()["operation"].(string))
	}
	assert.Equal(t, []string{"create", "update"}, ops)
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	db := newTracedDB(t)

	cfg := telemetry.DBTracingConfig{Enabled: true}
	require.NoError(t, telemetry.NewDBTracingPlugin(cfg, zap.New(core)).Register(db))
	require.NoError(t, db.Create(&tracedRow{Name: "x"}).Error)

	assert.Zero(t, logs.FilterMessage("Slow database query").Len())
}
