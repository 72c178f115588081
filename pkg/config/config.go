// Package config loads the lock manager's YAML configuration file into
// a typed Config, the way cmd/warren's former apply.go loaded manifests
// with gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults per §3: 10 000 lock-table buckets, 200 transaction-table
// buckets.
const (
	DefaultLockTableSize        = 10000
	DefaultTransactionTableSize = 200
	DefaultNumWorkerThreads     = 5
)

// Config is the on-disk shape of a lock manager server's configuration.
type Config struct {
	// ListenAddr is the gRPC listen address, e.g. ":50051".
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr serves /metrics and /healthz.
	MetricsAddr string `yaml:"metrics_addr"`

	// NumWorkerThreads is W: the facade runs W-1 lock workers plus one
	// dedicated transaction worker.
	NumWorkerThreads int `yaml:"num_worker_threads"`

	// LockTableSize and TransactionTableSize are the bucket counts N
	// of the two sharded tables.
	LockTableSize        int `yaml:"lock_table_size"`
	TransactionTableSize int `yaml:"transaction_table_size"`

	// KeyStorePath is where the sealed ECDSA signing-key blob persists
	// across restarts (the one stateful artifact this system keeps).
	KeyStorePath string `yaml:"key_store_path"`

	// SealKeyHex is the hex-encoded 32-byte AES-256-GCM key the signing
	// key blob is sealed under.
	SealKeyHex string `yaml:"seal_key_hex"`

	Log LogConfig `yaml:"log"`
}

// LogConfig mirrors pkg/log.Config's fields for YAML loading.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a Config with every field set to its §3 default.
func Default() Config {
	return Config{
		ListenAddr:           ":50051",
		MetricsAddr:          ":9090",
		NumWorkerThreads:     DefaultNumWorkerThreads,
		LockTableSize:        DefaultLockTableSize,
		TransactionTableSize: DefaultTransactionTableSize,
		KeyStorePath:         "lockmanager.db",
		Log:                  LogConfig{Level: "info", JSON: false},
	}
}

// Load reads and parses a YAML config file at path, filling in §3
// defaults for anything the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.NumWorkerThreads < 2 {
		return cfg, fmt.Errorf("config: num_worker_threads must be at least 2 (one transaction worker, one lock worker)")
	}
	return cfg, nil
}
