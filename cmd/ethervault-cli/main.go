// ethervault-cli is a command-line client for the EtherVault custody core.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ethervault/ethervault/config"
	"github.com/ethervault/ethervault/internal/contracts"
	"github.com/ethervault/ethervault/internal/gateway"
	"github.com/ethervault/ethervault/internal/keyvault"
	"github.com/ethervault/ethervault/internal/ledger"
	"github.com/ethervault/ethervault/internal/log"
	"github.com/ethervault/ethervault/internal/storage"
	"github.com/ethervault/ethervault/internal/wallet"
	"github.com/ethervault/ethervault/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := ""
	dataDir := ""
	chainID := uint64(0)

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--chain-id" && len(args) > 1:
			chainID = parseUint(args[1], "--chain-id")
			args = args[2:]
		case strings.HasPrefix(args[0], "--chain-id="):
			chainID = parseUint(args[0][len("--chain-id="):], "--chain-id")
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(func(c *config.Config) {
		if rpcURL != "" {
			c.Node.Endpoint = rpcURL
		}
		if dataDir != "" {
			c.DataDir = dataDir
		}
		if chainID != 0 {
			c.Chain.ID = chainID
		}
		// Keep the CLI quiet; errors go to stderr via fatal.
		c.Log.Level = "error"
	})
	if err != nil {
		fatal("%v", err)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("%v", err)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		usage()
		return
	}

	svc, cleanup := newService(cfg)
	defer cleanup()

	switch cmd {
	case "create":
		cmdCreate(svc, cmdArgs)
	case "import":
		cmdImport(svc, cmdArgs)
	case "list":
		cmdList(svc)
	case "balance":
		cmdBalance(svc, cmdArgs)
	case "send":
		cmdSend(svc, cmdArgs)
	case "call":
		cmdCall(svc, cmdArgs)
	case "read":
		cmdRead(svc, cmdArgs)
	case "history":
		cmdHistory(svc, cmdArgs)
	case "cancel":
		cmdCancel(svc, cmdArgs)
	case "export":
		cmdExport(svc, cmdArgs)
	case "validate":
		cmdValidate(svc, cmdArgs)
	case "rename":
		cmdRename(svc, cmdArgs)
	case "deactivate":
		cmdDeactivate(svc, cmdArgs)
	case "verify":
		cmdVerify(svc, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: ethervault-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         Node JSON-RPC endpoint (default: http://127.0.0.1:8545)
  --datadir <path>    Data directory (default: ~/.ethervault)
  --chain-id <n>      Chain ID for replay protection (default: 1)

Commands:
  create --name <n>               Create a new account
  import --name <n> --secret <hex|mnemonic> [--passphrase <p>]
                                  Import an account from a secret or mnemonic
  list                            List active accounts
  balance <address>               Show on-chain balance
  send --from <addr> --to <addr> --amount <wei> [--gas-price <wei>] [--gas-limit <n>]
                                  Sign and submit a value transfer
  call --from <addr> --contract <addr> --function <name> [--args a,b] [--value <wei>]
                                  Sign and submit a contract call
  read --from <addr> --contract <addr> --function <name> [--args a,b]
                                  Read-only contract call (no signature)
  history <address>               Show transfers and interactions
  cancel <tx-hash>                Cancel a pending transfer record
  export <address>                Export the decrypted secret (hex)
  validate <address>              Check a password against an account
  rename <address> <name>         Rename an account
  deactivate <address>            Hide an account from listings
  verify <interaction-id> [fingerprint]
                                  Show or verify an interaction fingerprint
`)
}

// newService wires the storage, vault, gateway and registry stack used
// by every subcommand.
func newService(cfg *config.Config) (*wallet.Service, func()) {
	dbPath := filepath.Join(cfg.DataDir, "db")
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		fatal("create datadir: %v", err)
	}
	db, err := storage.NewBadger(dbPath)
	if err != nil {
		fatal("open database: %v", err)
	}
	vault, err := keyvault.New(cfg.Vault.KDFIterations)
	if err != nil {
		db.Close()
		fatal("init vault: %v", err)
	}
	store := ledger.NewStore(db)
	client := gateway.NewClientWithTimeout(cfg.Node.Endpoint, cfg.Node.Timeout)
	svc := wallet.NewService(store, vault, client, contracts.NewRegistry(), cfg.Chain.ID)
	return svc, func() { db.Close() }
}

// ── account commands ────────────────────────────────────────────────────

func cmdCreate(svc *wallet.Service, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "Account name")
	fs.Parse(args)
	if *name == "" {
		fatal("Usage: ethervault-cli create --name <name>")
	}

	password := promptNewPassword()
	account, err := svc.CreateAccount(*name, password)
	zero(password)
	if err != nil {
		fatal("create account: %v", err)
	}

	fmt.Printf("Account created: %s\n", account.Name)
	fmt.Printf("Address: %s\n", account.Address)
}

func cmdImport(svc *wallet.Service, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	name := fs.String("name", "", "Account name")
	secret := fs.String("secret", "", "Hex secret or mnemonic phrase")
	passphrase := fs.String("passphrase", "", "Mnemonic passphrase (mnemonic imports only)")
	fs.Parse(args)
	if *name == "" || *secret == "" {
		fatal("Usage: ethervault-cli import --name <name> --secret <hex|mnemonic>")
	}

	password := promptNewPassword()
	account, err := svc.ImportAccount(*name, *secret, *passphrase, password)
	zero(password)
	if err != nil {
		fatal("import account: %v", err)
	}

	fmt.Printf("Account imported: %s\n", account.Name)
	fmt.Printf("Address: %s\n", account.Address)
}

func cmdList(svc *wallet.Service) {
	accounts, err := svc.Accounts()
	if err != nil {
		fatal("list accounts: %v", err)
	}
	if len(accounts) == 0 {
		fmt.Println("No accounts.")
		return
	}
	for _, a := range accounts {
		fmt.Printf("%s  %s\n", a.Address, a.Name)
	}
}

func cmdBalance(svc *wallet.Service, args []string) {
	if len(args) != 1 {
		fatal("Usage: ethervault-cli balance <address>")
	}
	addr := parseAddr(args[0])

	balance, err := svc.Balance(context.Background(), addr)
	if err != nil {
		fatal("balance: %v", err)
	}
	fmt.Printf("%s wei\n", balance)
}

func cmdExport(svc *wallet.Service, args []string) {
	if len(args) != 1 {
		fatal("Usage: ethervault-cli export <address>")
	}
	addr := parseAddr(args[0])

	password := promptPassword("Enter password: ")
	secret, err := svc.ExportSecret(addr, password)
	zero(password)
	if err != nil {
		fatal("export: %v", err)
	}
	fmt.Println(secret)
}

func cmdValidate(svc *wallet.Service, args []string) {
	if len(args) != 1 {
		fatal("Usage: ethervault-cli validate <address>")
	}
	addr := parseAddr(args[0])

	password := promptPassword("Enter password: ")
	ok, err := svc.ValidatePassword(addr, password)
	zero(password)
	if err != nil {
		fatal("validate: %v", err)
	}
	if ok {
		fmt.Println("Password valid.")
	} else {
		fmt.Println("Password invalid.")
		os.Exit(1)
	}
}

func cmdRename(svc *wallet.Service, args []string) {
	if len(args) != 2 {
		fatal("Usage: ethervault-cli rename <address> <name>")
	}
	addr := parseAddr(args[0])

	account, err := svc.Rename(addr, args[1])
	if err != nil {
		fatal("rename: %v", err)
	}
	fmt.Printf("Renamed %s to %s\n", account.Address, account.Name)
}

func cmdDeactivate(svc *wallet.Service, args []string) {
	if len(args) != 1 {
		fatal("Usage: ethervault-cli deactivate <address>")
	}
	addr := parseAddr(args[0])

	if err := svc.Deactivate(addr); err != nil {
		fatal("deactivate: %v", err)
	}
	fmt.Println("Account deactivated.")
}

// ── transfer commands ───────────────────────────────────────────────────

func cmdSend(svc *wallet.Service, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	from := fs.String("from", "", "Sender address")
	to := fs.String("to", "", "Recipient address")
	amount := fs.String("amount", "", "Amount in wei")
	gasPrice := fs.String("gas-price", "", "Gas price override in wei")
	gasLimit := fs.Uint64("gas-limit", 0, "Gas limit override")
	fs.Parse(args)
	if *from == "" || *to == "" || *amount == "" {
		fatal("Usage: ethervault-cli send --from <addr> --to <addr> --amount <wei>")
	}

	password := promptPassword("Enter password: ")
	defer zero(password)

	req := wallet.TransferRequest{
		Account:  parseAddr(*from),
		To:       parseAddr(*to),
		Amount:   parseBig(*amount, "--amount"),
		Password: password,
		GasLimit: *gasLimit,
	}
	if *gasPrice != "" {
		req.GasPrice = parseBig(*gasPrice, "--gas-price")
	}

	record, err := svc.Transfer(context.Background(), req)
	if err != nil {
		fatal("send: %v", err)
	}

	fmt.Printf("Transfer submitted.\n")
	fmt.Printf("  Tx:     %s\n", record.TxHash)
	fmt.Printf("  Status: %s\n", record.Status)
}

func cmdCancel(svc *wallet.Service, args []string) {
	if len(args) != 1 {
		fatal("Usage: ethervault-cli cancel <tx-hash>")
	}
	hash, err := types.ParseHash(args[0])
	if err != nil {
		fatal("invalid tx hash: %v", err)
	}

	record, err := svc.CancelTransfer(hash)
	if err != nil {
		fatal("cancel: %v", err)
	}
	fmt.Printf("Transfer %s is now %s\n", record.TxHash, record.Status)
}

func cmdHistory(svc *wallet.Service, args []string) {
	if len(args) != 1 {
		fatal("Usage: ethervault-cli history <address>")
	}
	addr := parseAddr(args[0])

	transfers, err := svc.Transfers(addr)
	if err != nil {
		fatal("history: %v", err)
	}
	interactions, err := svc.Interactions(addr)
	if err != nil {
		fatal("history: %v", err)
	}

	fmt.Printf("Transfers (%d):\n", len(transfers))
	for _, t := range transfers {
		fmt.Printf("  %s  %-9s  %s wei -> %s\n", t.TxHash, t.Status, t.Amount, t.To)
	}
	fmt.Printf("Interactions (%d):\n", len(interactions))
	for _, i := range interactions {
		fmt.Printf("  %s  %-8s  %s on %s\n", i.ID, i.Status, i.Function, i.Contract)
	}
}

// ── contract commands ───────────────────────────────────────────────────

func cmdCall(svc *wallet.Service, args []string) {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	from := fs.String("from", "", "Sender address")
	contract := fs.String("contract", "", "Contract address")
	function := fs.String("function", "", "Function name (e.g. transfer)")
	fnArgs := fs.String("args", "", "Comma-separated arguments")
	value := fs.String("value", "", "Wei to attach")
	gasPrice := fs.String("gas-price", "", "Gas price override in wei")
	gasLimit := fs.Uint64("gas-limit", 0, "Gas limit override")
	fs.Parse(args)
	if *from == "" || *contract == "" || *function == "" {
		fatal("Usage: ethervault-cli call --from <addr> --contract <addr> --function <name>")
	}

	password := promptPassword("Enter password: ")
	defer zero(password)

	req := wallet.CallRequest{
		Account:  parseAddr(*from),
		Contract: parseAddr(*contract),
		Function: *function,
		Args:     splitArgs(*fnArgs),
		Password: password,
		GasLimit: *gasLimit,
	}
	if *value != "" {
		req.Value = parseBig(*value, "--value")
	}
	if *gasPrice != "" {
		req.GasPrice = parseBig(*gasPrice, "--gas-price")
	}

	record, err := svc.ExecuteContract(context.Background(), req)
	if err != nil {
		fatal("call: %v", err)
	}

	fmt.Printf("Contract call submitted.\n")
	fmt.Printf("  Id:     %s\n", record.ID)
	fmt.Printf("  Tx:     %s\n", record.TxHash)
	fmt.Printf("  Status: %s\n", record.Status)
}

func cmdRead(svc *wallet.Service, args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	from := fs.String("from", "", "Caller address")
	contract := fs.String("contract", "", "Contract address")
	function := fs.String("function", "", "Function name (e.g. balanceOf)")
	fnArgs := fs.String("args", "", "Comma-separated arguments")
	fs.Parse(args)
	if *from == "" || *contract == "" || *function == "" {
		fatal("Usage: ethervault-cli read --from <addr> --contract <addr> --function <name>")
	}

	req := wallet.CallRequest{
		Account:  parseAddr(*from),
		Contract: parseAddr(*contract),
		Function: *function,
		Args:     splitArgs(*fnArgs),
	}

	result, record, err := svc.ReadContract(context.Background(), req)
	if err != nil {
		fatal("read: %v", err)
	}

	fmt.Printf("Result: %s\n", result)
	fmt.Printf("Id:     %s\n", record.ID)
}

func cmdVerify(svc *wallet.Service, args []string) {
	if len(args) != 1 && len(args) != 2 {
		fatal("Usage: ethervault-cli verify <interaction-id> [fingerprint]")
	}

	if len(args) == 1 {
		fp, err := svc.InteractionFingerprint(args[0])
		if err != nil {
			fatal("verify: %v", err)
		}
		fmt.Printf("Fingerprint: %s\n", fp)
		return
	}

	expected, err := types.ParseHash(args[1])
	if err != nil {
		fatal("invalid fingerprint: %v", err)
	}
	ok, err := svc.VerifyInteraction(args[0], expected)
	if err != nil {
		fatal("verify: %v", err)
	}
	if ok {
		fmt.Println("Fingerprint matches.")
	} else {
		fmt.Println("Fingerprint MISMATCH.")
		os.Exit(1)
	}
}

// ── parsing helpers ─────────────────────────────────────────────────────

func parseAddr(s string) types.Address {
	addr, err := types.ParseAddress(s)
	if err != nil {
		fatal("invalid address %q: %v", s, err)
	}
	return addr
}

func parseBig(s, flagName string) *big.Int {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		fatal("%s must be a non-negative decimal, got %q", flagName, s)
	}
	return v
}

func parseUint(s, flagName string) uint64 {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 || !v.IsUint64() {
		fatal("%s must be a non-negative integer, got %q", flagName, s)
	}
	return v.Uint64()
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ── password helpers ────────────────────────────────────────────────────

func promptPassword(prompt string) []byte {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		fatal("read password: %v", err)
	}
	return password
}

func promptNewPassword() []byte {
	password := promptPassword("Enter password: ")
	confirm := promptPassword("Confirm password: ")
	if string(password) != string(confirm) {
		zero(password)
		zero(confirm)
		fatal("passwords do not match")
	}
	zero(confirm)
	return password
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ── error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
