// EtherVault confirmation daemon.
//
// Runs the background monitor that reconciles locally recorded pending
// transfers and contract interactions against the remote node.
//
// Usage:
//
//	ethervaultd [--datadir <path>] [--rpc <url>] [--chain-id <n>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethervault/ethervault/config"
	"github.com/ethervault/ethervault/internal/gateway"
	"github.com/ethervault/ethervault/internal/ledger"
	"github.com/ethervault/ethervault/internal/log"
	"github.com/ethervault/ethervault/internal/monitor"
	"github.com/ethervault/ethervault/internal/storage"
)

func main() {
	dataDir := flag.String("datadir", "", "Data directory (default: platform data dir)")
	rpcURL := flag.String("rpc", "", "Node JSON-RPC endpoint")
	chainID := flag.Uint64("chain-id", 0, "Chain ID for replay protection")
	interval := flag.Duration("interval", 0, "Monitor reconciliation interval")
	logLevel := flag.String("log-level", "", "Log level (trace|debug|info|warn|error)")
	logJSON := flag.Bool("log-json", false, "Emit JSON logs")
	flag.Parse()

	cfg, err := config.Load(func(c *config.Config) {
		if *dataDir != "" {
			c.DataDir = *dataDir
		}
		if *rpcURL != "" {
			c.Node.Endpoint = *rpcURL
		}
		if *chainID != 0 {
			c.Chain.ID = *chainID
		}
		if *interval != 0 {
			c.Monitor.Interval = *interval
		}
		if *logLevel != "" {
			c.Log.Level = *logLevel
		}
		if *logJSON {
			c.Log.JSON = true
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dbPath := filepath.Join(cfg.DataDir, "db")
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	db, err := storage.NewBadger(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	store := ledger.NewStore(db)
	client := gateway.NewClientWithTimeout(cfg.Node.Endpoint, cfg.Node.Timeout)

	m := monitor.New(store, client, cfg.Monitor.Interval, cfg.Monitor.DropAfter)
	m.Start(context.Background())

	log.Logger.Info().
		Str("endpoint", cfg.Node.Endpoint).
		Uint64("chain_id", cfg.Chain.ID).
		Str("datadir", cfg.DataDir).
		Msg("ethervaultd started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	m.Stop()
}
