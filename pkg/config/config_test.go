package config_test

import (
	"testing"
	"time"

	"github.com/jhoicas/pos-stock-engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.Inventory.AllowNegativeStock, "por defecto no se permite stock negativo")
	assert.Equal(t, "TRF", cfg.Inventory.TransferPrefix)
	assert.Equal(t, 30, cfg.Inventory.ExpiryWarningDays)
	assert.Equal(t, "inline", cfg.Events.Mode)
	assert.Equal(t, 2*time.Second, cfg.Events.RelayInterval)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("INVENTORY_ALLOW_NEGATIVE_STOCK", "true")
	t.Setenv("INVENTORY_TRANSFER_PREFIX", "TR")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("ALERT_RULES", "quantity <= reorder_level; quantity < 0")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Inventory.AllowNegative())
	assert.Equal(t, "TR", cfg.Inventory.TransferPrefix)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"quantity <= reorder_level", "quantity < 0"}, cfg.Alerts.Rules)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoad_ModoDeEventosInvalido(t *testing.T) {
	t.Setenv("EVENTS_MODE", "kafka")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:word", DBName: "pos_stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aword@db:5432/pos_stock?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}

func TestLoad_OutboxRequierePostgres(t *testing.T) {
	t.Setenv("EVENTS_MODE", "outbox")
	t.Setenv("STORAGE_DRIVER", "memory")
	_, err := config.Load()
	assert.Error(t, err)
}
