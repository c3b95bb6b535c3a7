package config

import (
	"testing"

	"github.com/savezy/savezy/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := LoadDefaults()
	assert.Equal(t, utils.GetDefaultDBPathOnly(), cfg.DBPath)
	assert.True(t, cfg.WAL)
	assert.Equal(t, "FULL", cfg.SyncMode)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SAVEZY_DB", "/tmp/other.db")
	t.Setenv("SAVEZY_WAL", "false")
	t.Setenv("SAVEZY_SYNC", "normal")
	t.Setenv("SAVEZY_REMOTE_URL", "https://pb.example.com")
	t.Setenv("SAVEZY_SESSION", "/tmp/session.json")
	t.Setenv("SAVEZY_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.False(t, cfg.WAL)
	assert.Equal(t, "NORMAL", cfg.SyncMode)
	assert.Equal(t, "https://pb.example.com", cfg.RemoteURL)
	assert.Equal(t, "/tmp/session.json", cfg.SessionPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("wal", func(t *testing.T) {
		t.Setenv("SAVEZY_WAL", "sometimes")
		_, err := Load()
		assert.ErrorContains(t, err, "SAVEZY_WAL")
	})
	t.Run("sync", func(t *testing.T) {
		t.Setenv("SAVEZY_SYNC", "fast")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid sync mode")
	})
	t.Run("log level", func(t *testing.T) {
		t.Setenv("SAVEZY_LOG_LEVEL", "loud")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid log level")
	})
}
