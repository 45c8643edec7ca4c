// Package config handles application configuration.
//
// Settings are resolved in layers: built-in defaults, then ETHERVAULT_*
// environment variables, then an optional caller-supplied override hook
// (the daemon and CLI use it for command-line flags). The merged config
// is validated once before anything touches it.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the daemon and CLI.
type Config struct {
	// DataDir is the root directory for the local database.
	DataDir string `envconfig:"DATADIR"`

	Node    NodeConfig
	Chain   ChainConfig
	Vault   VaultConfig
	Monitor MonitorConfig
	Log     LogConfig
}

// NodeConfig holds the remote node connection settings.
type NodeConfig struct {
	// Endpoint is the JSON-RPC URL of the node the gateway talks to.
	Endpoint string        `envconfig:"NODE_ENDPOINT"`
	Timeout  time.Duration `envconfig:"NODE_TIMEOUT"`
}

// ChainConfig holds network identity settings.
type ChainConfig struct {
	// ID is the replay-protection chain identifier baked into every
	// signature. Signing with the wrong ID produces transactions the
	// target network rejects, so this must match the node's network.
	ID uint64 `envconfig:"CHAIN_ID"`
}

// VaultConfig holds key-encryption settings.
type VaultConfig struct {
	// KDFIterations is the PBKDF2 iteration count for password-derived
	// keys. Raising it slows both attackers and logins; it never goes
	// below the built-in floor.
	KDFIterations int `envconfig:"VAULT_KDF_ITERATIONS"`
}

// MonitorConfig holds confirmation-monitor settings.
type MonitorConfig struct {
	Interval time.Duration `envconfig:"MONITOR_INTERVAL"`
	// DropAfter is how long a transaction can stay unseen by the
	// network before it is marked failed locally.
	DropAfter time.Duration `envconfig:"MONITOR_DROP_AFTER"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL"`
	JSON  bool   `envconfig:"LOG_JSON"`
	File  string `envconfig:"LOG_FILE"`
}

// Load resolves the effective configuration: defaults, then environment
// overrides, then the optional override hook, then validation.
func Load(override func(*Config)) (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("ethervault", cfg); err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.ethervault
//	macOS:   ~/Library/Application Support/Ethervault
//	Windows: %APPDATA%\Ethervault
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ethervault"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Ethervault")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Ethervault")
		}
		return filepath.Join(home, "AppData", "Roaming", "Ethervault")
	default:
		return filepath.Join(home, ".ethervault")
	}
}
