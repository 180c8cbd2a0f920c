package config

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pharmacy-inventory", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "pharmacy", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 30, cfg.Inventory.ExpiryWindowDays)
		assert.Equal(t, 30*24*time.Hour, cfg.Inventory.ExpiryWindow())
		assert.Equal(t, 10, cfg.Inventory.DefaultLogLimit)
		assert.Equal(t, 24*time.Hour, cfg.Inventory.IdempotencyTTL)
		assert.Equal(t, "pharmacy-inventory", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with PHARMACY prefix", func(t *testing.T) {
		t.Setenv("PHARMACY_APP_NAME", "test-app")
		t.Setenv("PHARMACY_APP_ENV", "testing")
		t.Setenv("PHARMACY_APP_PORT", "9000")
		t.Setenv("PHARMACY_DATABASE_HOST", "testdb.local")
		t.Setenv("PHARMACY_DATABASE_PORT", "5433")
		t.Setenv("PHARMACY_DATABASE_USER", "testuser")
		t.Setenv("PHARMACY_DATABASE_PASSWORD", "testpass")
		t.Setenv("PHARMACY_DATABASE_SSLMODE", "require")
		t.Setenv("PHARMACY_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("PHARMACY_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("PHARMACY_REDIS_ENABLED", "true")
		t.Setenv("PHARMACY_INVENTORY_EXPIRY_WINDOW_DAYS", "14")
		t.Setenv("PHARMACY_INVENTORY_IDEMPOTENCY_TTL", "2h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 14*24*time.Hour, cfg.Inventory.ExpiryWindow())
		assert.Equal(t, 2*time.Hour, cfg.Inventory.IdempotencyTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("PHARMACY_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("PHARMACY_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		t.Setenv("PHARMACY_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects negative expiry window", func(t *testing.T) {
		t.Setenv("PHARMACY_INVENTORY_EXPIRY_WINDOW_DAYS", "-3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expiry_window_days")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		t.Setenv("PHARMACY_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password in production", func(t *testing.T) {
		t.Setenv("PHARMACY_APP_ENV", "production")
		t.Setenv("PHARMACY_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		t.Setenv("PHARMACY_APP_ENV", "production")
		t.Setenv("PHARMACY_DATABASE_PASSWORD", "secure-password")
		t.Setenv("PHARMACY_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		t.Setenv("PHARMACY_APP_ENV", "production")
		t.Setenv("PHARMACY_DATABASE_PASSWORD", "secure-password")
		t.Setenv("PHARMACY_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestFromViper_TOML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[app]
name = "from-file"

[database]
max_open_conns = 8
max_idle_conns = 2

[inventory]
default_log_limit = 5
max_log_limit = 50
`)))

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.App.Name)
	assert.Equal(t, 8, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Inventory.DefaultLogLimit)
	assert.Equal(t, 50, cfg.Inventory.MaxLogLimit)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "pharm",
		Password: "p@ss/word",
		DBName:   "pharmacy",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	u, err := url.Parse(dsn)
	require.NoError(t, err)

	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pw)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/pharmacy", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
