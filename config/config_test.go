package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NOTIFY_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, "log", cfg.NotifyDriver)
	assert.Equal(t, 10*time.Minute, cfg.SignedURLTTL)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
SERVER_PORT: "9090"
LOG_LEVEL: debug
SIGNED_URL_TTL: 2m
NOTIFY_DRIVER: kafka
KAFKA_BROKERS: ["k1:9092"]
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("NOTIFY_DRIVER", "")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.SignedURLTTL)
	assert.Equal(t, "kafka", cfg.NotifyDriver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("NOTIFY_DRIVER", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("NOTIFY_DRIVER", "http")
	t.Setenv("NOTIFY_URL", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("NOTIFY_DRIVER", "log")
	t.Setenv("JWT_EXPIRATION", "soon")
	_, err = Load()
	assert.Error(t, err)
}
