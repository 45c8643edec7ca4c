package config

import (
	"time"

	"github.com/ethervault/ethervault/internal/keyvault"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Node: NodeConfig{
			Endpoint: "http://127.0.0.1:8545",
			Timeout:  30 * time.Second,
		},
		Chain: ChainConfig{
			ID: 1,
		},
		Vault: VaultConfig{
			KDFIterations: keyvault.DefaultKDFIterations,
		},
		Monitor: MonitorConfig{
			Interval:  30 * time.Second,
			DropAfter: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
