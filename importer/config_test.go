package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
db: /data/health.db
xml: /data/export.xml
batch_size: 500
commit_every: 2000
debug: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/health.db", cfg.DB)
	assert.Equal(t, "/data/export.xml", cfg.XML)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, 2000, cfg.CommitEvery)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_PartialLeavesZeroValues(t *testing.T) {
	path := writeConfigFile(t, "db: /data/health.db\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/health.db", cfg.DB)
	assert.Empty(t, cfg.XML)
	assert.Zero(t, cfg.BatchSize)
	assert.Zero(t, cfg.CommitEvery)
	assert.False(t, cfg.Debug)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfigFile(t, "db: [unterminated\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
