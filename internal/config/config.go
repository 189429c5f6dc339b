// Package config loads the node's TOML configuration file, grounded on
// drand's common/key.PairTOML/GroupTOML round-trip pattern of small
// struct-tagged TOML types with a validating loader.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
)

// StoreBackendMemory and StoreBackendBolt are the only recognized
// values for Config.StoreBackend.
const (
	StoreBackendMemory = "memory"
	StoreBackendBolt   = "bolt"
)

// Config is the node's static configuration, decoded from TOML.
type Config struct {
	// SelfAccountID identifies this node within the operator registry's
	// canonical ordering.
	SelfAccountID string `toml:"self_account_id"`
	// DefaultCiphersuite is used when a caller doesn't name one
	// explicitly; it must be a registered ciphersuite ID.
	DefaultCiphersuite string `toml:"default_ciphersuite"`
	// StoreBackend selects the K/V store implementation: "memory" or
	// "bolt".
	StoreBackend string `toml:"store_backend"`
	// StoreDir is the directory the bolt backend opens its database
	// file in. Unused for the memory backend.
	StoreDir string `toml:"store_dir"`
}

// Load decodes and validates a TOML configuration file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(err, "config: decoding file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that must be correct for the node to start:
// a non-empty self account id, a known store backend, a store directory
// when the bolt backend is selected, and a known default ciphersuite.
func (c *Config) Validate() error {
	if c.SelfAccountID == "" {
		return errors.New("config: self_account_id is required")
	}
	switch c.StoreBackend {
	case StoreBackendMemory, StoreBackendBolt:
	default:
		return errors.Errorf("config: unknown store_backend %q", c.StoreBackend)
	}
	if c.StoreBackend == StoreBackendBolt && c.StoreDir == "" {
		return errors.New("config: store_dir is required for the bolt backend")
	}
	if _, err := ciphersuite.Lookup(c.DefaultCiphersuite); err != nil {
		return errors.Wrapf(err, "config: default_ciphersuite %q", c.DefaultCiphersuite)
	}
	return nil
}
