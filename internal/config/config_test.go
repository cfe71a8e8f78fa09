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
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 20, cfg.Provider.ListLimit)
	assert.Equal(t, 0, cfg.Coordinator.ConflictRetries)
	assert.Equal(t, time.Hour, cfg.Twilio.TokenTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte("port: 9090\nstore:\n  driver: redis\nprovider:\n  list_limit: 5\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644))
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("BREAKOUT_TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("BREAKOUT_COORDINATOR_CONFLICT_RETRIES", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Provider.ListLimit)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, 2, cfg.Coordinator.ConflictRetries)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{Store: Store{Driver: "fauna"}, Provider: Provider{ListLimit: 20}}
	assert.Error(t, cfg.validate())
}
