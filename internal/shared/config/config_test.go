package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "dbname=busline_db")
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "BUS", cfg.Booking.BookingCodePrefix)
	assert.False(t, cfg.Reconciliation.AutoRelease)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/busline.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RECONCILE_SWEEP_INTERVAL", "30s")
	t.Setenv("RECONCILE_AUTO_RELEASE", "true")
	t.Setenv("JWT_EXPIRES_IN", "120")
	t.Setenv("NOTIFICATION_WORKERS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/busline.db", cfg.Database.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Reconciliation.SweepInterval)
	assert.True(t, cfg.Reconciliation.AutoRelease)
	assert.Equal(t, 2*time.Minute, cfg.JWT.JWTExpiresIn)
	assert.Equal(t, 2, cfg.Notifications.Workers)
}
