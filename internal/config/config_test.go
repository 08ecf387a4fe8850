package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := LoadConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "registration_data", cfg.Storage.Key)
	assert.Equal(t, 500*time.Millisecond, cfg.OTP.SendDelay)
	assert.Equal(t, 60*time.Second, cfg.OTP.ResendInterval)
	assert.Equal(t, ":8080", cfg.GetServerAddress())
	assert.Empty(t, cfg.Kafka.Brokers)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "STORAGE_DRIVER=file\nSTORAGE_DIR=/tmp/wizard\nKAFKA_BROKERS=a:9092, b:9092\nOTP_RESEND_INTERVAL=30s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ENV_FILE", path)

	// godotenv.Load never overrides variables that are already set
	t.Setenv("STORAGE_DIR", "/var/lib/wizard")

	cfg := LoadConfig()
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("OTP_RESEND_INTERVAL")
	})

	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/wizard", cfg.Storage.Dir)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.OTP.ResendInterval)
}

func TestValidate(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	t.Run("unknown driver", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Storage.Driver = "s3"
		assert.ErrorContains(t, cfg.Validate(), "unknown storage driver")
	})

	t.Run("tls without certificates", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Server.EnableTLS = true
		assert.ErrorContains(t, cfg.Validate(), "TLS_CERT_FILE")
		assert.Equal(t, ":8443", cfg.GetServerAddress())
		assert.Equal(t, ":8080", cfg.PlainAddress())
	})

	t.Run("production requires a storage secret for durable drivers", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Environment = "production"
		cfg.Storage.Driver = StorageRedis
		assert.ErrorContains(t, cfg.Validate(), "STORAGE_SECRET")

		cfg.Storage.Secret = "s3cret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rediss urls need client certificates", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", StorageRedis)
		t.Setenv("REDIS_URL", "rediss://cache.internal:6380/0")
		t.Setenv("REDIS_TLS_CA_FILE", "/etc/redis/ca.crt")

		cfg := LoadConfig()
		assert.True(t, cfg.Redis.UsesTLS())
		assert.Equal(t, "/etc/redis/ca.crt", cfg.Redis.TLSCAFile)
		assert.ErrorContains(t, cfg.Validate(), "REDIS_TLS_CERT_FILE")

		cfg.Redis.TLSCertFile = "/etc/redis/client.crt"
		cfg.Redis.TLSKeyFile = "/etc/redis/client.key"
		assert.NoError(t, cfg.Validate())

		cfg.Redis.URL = "redis://cache.internal:6379/0"
		cfg.Redis.TLSCAFile = ""
		assert.NoError(t, cfg.Validate())
	})
}
