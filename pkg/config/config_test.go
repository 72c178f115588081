package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultLockTableSize, cfg.LockTableSize)
	assert.Equal(t, DefaultTransactionTableSize, cfg.TransactionTableSize)
	assert.Equal(t, DefaultNumWorkerThreads, cfg.NumWorkerThreads)
	assert.Equal(t, ":50051", cfg.ListenAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadFillsInOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7000\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, DefaultLockTableSize, cfg.LockTableSize)
}

func TestLoadRejectsTooFewWorkerThreads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_worker_threads: 1\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
