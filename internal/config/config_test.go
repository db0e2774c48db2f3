package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TL_JWT_SECRET", "dev")
	t.Setenv("TL_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, AuthJWT, cfg.Auth.Mode)
	assert.Equal(t, "booking-events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TL_JWT_SECRET", "dev")
	t.Setenv("TL_HTTP_ADDR", ":9090")
	t.Setenv("TL_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TL_STORE", StorePostgres)
	t.Setenv("TL_DB_DSN", "postgres://tl@localhost/tl")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, StorePostgres, cfg.Store)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travellite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7000"
auth:
  mode: firebase
firebase:
  project_id: tl-prod
kafka:
  brokers: ["kafka:9092"]
`), 0o600))
	t.Setenv("TL_CONFIG_FILE", path)
	t.Setenv("TL_HTTP_ADDR", ":9090")
	t.Setenv("TL_STATIONS_FILE", "/etc/tl/stations.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr, "file wins over env")
	assert.Equal(t, "/etc/tl/stations.yaml", cfg.Stations.File, "env kept when file is silent")
	assert.Equal(t, AuthFirebase, cfg.Auth.Mode)
	assert.Equal(t, "tl-prod", cfg.Firebase.ProjectID)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	t.Setenv("TL_JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err, "jwt mode without secret")

	t.Setenv("TL_JWT_SECRET", "dev")
	t.Setenv("TL_STORE", "sqlite")
	_, err = Load()
	assert.Error(t, err, "unknown store")

	t.Setenv("TL_STORE", "")
	t.Setenv("TL_AUTH_MODE", AuthFirebase)
	_, err = Load()
	assert.Error(t, err, "firebase without project")
}
