package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "frostd.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
self_account_id = "operator-1"
default_ciphersuite = "`+ciphersuite.Ed25519ID+`"
store_backend = "memory"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "operator-1", cfg.SelfAccountID)
	require.Equal(t, config.StoreBackendMemory, cfg.StoreBackend)
}

func TestLoadRejectsUnknownStoreBackend(t *testing.T) {
	path := writeConfig(t, `
self_account_id = "operator-1"
default_ciphersuite = "`+ciphersuite.Ed25519ID+`"
store_backend = "redis"
`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownCiphersuite(t *testing.T) {
	path := writeConfig(t, `
self_account_id = "operator-1"
default_ciphersuite = "NOT-A-REAL-SUITE"
store_backend = "memory"
`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRequiresStoreDirForBolt(t *testing.T) {
	path := writeConfig(t, `
self_account_id = "operator-1"
default_ciphersuite = "`+ciphersuite.Ed25519ID+`"
store_backend = "bolt"
`)
	_, err := config.Load(path)
	require.Error(t, err)
}
