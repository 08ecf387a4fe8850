package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"registration-wizard/internal/config"
	"registration-wizard/internal/model"
	"registration-wizard/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	cfg := config.LoadConfig()
	cfg.OTP.SendDelay = 0
	cfg.OTP.Argon2Memory = 64
	cfg.OTP.Argon2Time = 1
	return cfg
}

func TestNewWithMemoryStorage(t *testing.T) {
	f, err := New(testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer f.Close()

	assert.IsType(t, &storage.Memory{}, f.Provider())
	assert.Nil(t, f.TLSManager())
	assert.NoError(t, f.HealthCheck(context.Background()))

	rec := httptest.NewRecorder()
	f.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionSweepExpiresCodeState(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f, err := New(testConfig(t), zap.New(core))
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()
	require.NoError(t, f.OTPService().Send(ctx, "session", "+7 (701) 123-45-67"))

	f.Sessions().Sweep(time.Now())
	assert.Zero(t, logs.FilterMessage("stale one-time code state swept").Len())

	f.Sessions().Sweep(time.Now().Add(time.Hour))
	swept := logs.FilterMessage("stale one-time code state swept").All()
	require.Len(t, swept, 1)
	assert.EqualValues(t, 2, swept[0].ContextMap()["count"])
}

func TestFileStorageIsSealedWithSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = config.StorageFile
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.Secret = "correct horse battery staple"

	f, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer f.Close()
	assert.IsType(t, &storage.Sealed{}, f.Provider())

	store := f.Store("terminal")
	store.UpdateData(model.Patch{Phone: model.Ptr("+7 (701) 123-45-67")})

	// the blob on disk must not contain the phone in clear text
	raw, ok, err := mustFile(t, cfg.Storage.Dir).Get(cfg.Storage.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "701")

	reopened := f.Store("terminal")
	assert.Equal(t, "+7 (701) 123-45-67", reopened.Data().Phone)
}

func TestCloseIsIdempotent(t *testing.T) {
	f, err := New(testConfig(t), nil)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	f.WaitForClose()
}

func mustFile(t *testing.T, dir string) *storage.File {
	t.Helper()
	p, err := storage.NewFile(dir)
	require.NoError(t, err)
	return p
}
