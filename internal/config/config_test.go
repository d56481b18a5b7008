package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DRACHMA_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8040, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 100, cfg.ImportBatchSize)
	assert.InDelta(t, 0.01, cfg.DuplicateEps, 1e-9)
	assert.Equal(t, 4, cfg.DuplicatePrefix)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Equal(t, filepath.Join(cfg.DataDir, "drachma.db"), cfg.SnapshotPath)
	require.NotNil(t, cfg.Backup)
	assert.False(t, cfg.Backup.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DRACHMA_DATA_DIR", t.TempDir())
	t.Setenv("DRACHMA_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("IMPORT_BATCH_SIZE", "25")
	t.Setenv("DUPLICATE_AMOUNT_EPSILON", "0.05")
	t.Setenv("BASE_CURRENCY", "EUR")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 25, cfg.ImportBatchSize)
	assert.InDelta(t, 0.05, cfg.DuplicateEps, 1e-9)
	assert.Equal(t, "EUR", cfg.BaseCurrency)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-positive batch size", "IMPORT_BATCH_SIZE", "0"},
		{"negative epsilon", "DUPLICATE_AMOUNT_EPSILON", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DRACHMA_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadRequiresBucketForEnabledBackups(t *testing.T) {
	t.Setenv("DRACHMA_DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_ENABLED", "true")
	t.Setenv("BACKUP_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKUP_BUCKET")
}

func TestMalformedNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("DRACHMA_DATA_DIR", t.TempDir())
	t.Setenv("DRACHMA_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8040, cfg.Port)
}
