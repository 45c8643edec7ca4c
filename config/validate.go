package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethervault/ethervault/internal/keyvault"
)

// Validate checks the merged config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	if strings.TrimSpace(cfg.Node.Endpoint) == "" {
		return fmt.Errorf("node.endpoint must not be empty")
	}
	u, err := url.Parse(cfg.Node.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("node.endpoint must be an http(s) URL, got %q", cfg.Node.Endpoint)
	}
	if cfg.Node.Timeout <= 0 {
		return fmt.Errorf("node.timeout must be positive")
	}
	if cfg.Chain.ID == 0 {
		return fmt.Errorf("chain.id must be nonzero")
	}
	if cfg.Vault.KDFIterations < keyvault.MinKDFIterations {
		return fmt.Errorf("vault.kdf_iterations must be at least %d", keyvault.MinKDFIterations)
	}
	if cfg.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if cfg.Monitor.DropAfter <= 0 {
		return fmt.Errorf("monitor.drop_after must be positive")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be trace, debug, info, warn, or error")
	}
	return nil
}
