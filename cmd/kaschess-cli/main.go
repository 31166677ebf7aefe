// kaschess-cli publishes chess events as transactions and manages the
// wallets that sign them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Klingon-tech/kaschess/config"
	"github.com/Klingon-tech/kaschess/internal/broadcast"
	"github.com/Klingon-tech/kaschess/internal/history"
	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/Klingon-tech/kaschess/internal/publish"
	"github.com/Klingon-tech/kaschess/internal/restclient"
	"github.com/Klingon-tech/kaschess/internal/rpcclient"
	"github.com/Klingon-tech/kaschess/internal/signer"
	"github.com/Klingon-tech/kaschess/internal/utxosource"
	"github.com/Klingon-tech/kaschess/internal/wallet"
	"github.com/Klingon-tech/kaschess/pkg/types"
	"golang.org/x/term"
)

const version = "0.1.0"

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	prefix types.Prefix
	ctx    context.Context
}

func main() {
	cfg, flags, err := config.Load("kaschess-cli", os.Args[1:])
	if config.IsHelp(err) {
		usage()
		return
	}
	if err != nil {
		fatal("%v", err)
	}
	if flags.Version {
		fmt.Println("kaschess-cli version " + version)
		return
	}
	logFile, err := klog.Init(klog.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, File: cfg.Log.File})
	if err != nil {
		fatal("init logging: %v", err)
	}
	defer logFile.Close()

	args := flags.Args
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	prefix, err := cfg.Prefix()
	if err != nil {
		fatal("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := &app{cfg: cfg, prefix: prefix, ctx: ctx}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "wallet":
		a.cmdWallet(cmdArgs)
	case "balance":
		a.cmdBalance(cmdArgs)
	case "utxos":
		a.cmdUTXOs(cmdArgs)
	case "send":
		a.cmdSend(cmdArgs)
	case "game":
		a.cmdGame(cmdArgs)
	case "history":
		a.cmdHistory(cmdArgs)
	case "decode-address":
		a.cmdDecodeAddress(cmdArgs)
	case "decode-payload":
		cmdDecodePayload(cmdArgs)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: kaschess-cli [global flags] <command> [flags]

Global flags:
  --network <net>     mainnet (default), testnet, simnet or devnet
  --testnet           Shorthand for --network=testnet
  --datadir <path>    Data directory (default: ~/.kaschess)
  --config <file>     Config file (default: <datadir>/kaschess.conf)
  --rest <url>        Node REST base URL
  --rpc <url>         Node JSON-RPC websocket URL
  --transport <t>     rest (default) or rpc
  --fee <sompi>       Fixed fee (0 estimates from --fee-rate)
  --dust <sompi>      Change below this is added to the fee
  --no-history        Do not record publish attempts
  --log-level <lvl>   debug, info, warn, error

Environment variables KASCHESS_* override the config file; flags override both.

Commands:
  wallet create --name <n>          Create a wallet (prints the mnemonic once)
  wallet import --name <n> --mnemonic "..."
                                    Import a wallet from a mnemonic
  wallet import-key --name <n> --key <hex>
                                    Import a raw 32-byte private key
  wallet list                       List wallets
  wallet address --wallet <w>       Show a wallet's address
  wallet export --wallet <w>        Print the wallet backup

  balance <address>                 Show address balance
  utxos <address>                   List spendable outputs
  send --wallet <w> --to <addr> --amount <kas> [--payload-hex <hex>]
                                    Send a transaction

  game init --wallet <w> [--color w|b|r] [--minutes n] [--increment n]
  game join --wallet <w> --game <id> --color w|b
  game move --wallet <w> --game <id> --ply <n> --move <uci>
  game chat --wallet <w> --game <id> --message "..."
  game resign --wallet <w> --game <id>
  game draw --wallet <w> --game <id> --action offer|accept|decline

  history --wallet <w> [--limit n]  Show publish attempts
  decode-address <address>          Show the parts of an address
  decode-payload <hex>...           Decode game event payloads; joins chat chunks
`)
}

// ── Node connection ─────────────────────────────────────────────────────

// connect opens the configured transport. The returned func releases it.
func (a *app) connect() (utxosource.Source, broadcast.Broadcaster, func()) {
	if a.cfg.API.Transport == config.TransportRPC {
		conn, err := rpcclient.Dial(a.ctx, a.cfg.API.RPC, rpcclient.Options{Timeout: a.cfg.API.Timeout})
		if err != nil {
			fatal("connect %s: %v", a.cfg.API.RPC, err)
		}
		return utxosource.NewRPC(conn), broadcast.NewRPC(conn), func() { conn.Close() }
	}
	client := restclient.NewWithTimeout(a.cfg.API.REST, a.cfg.API.Timeout)
	return utxosource.NewREST(client), broadcast.NewREST(client), func() {}
}

// publisher builds a publisher from the config. The returned func closes
// the history store.
func (a *app) publisher(src utxosource.Source, b broadcast.Broadcaster) (*publish.Publisher, func()) {
	dest, err := a.cfg.DestinationAddress()
	if err != nil {
		fatal("%v", err)
	}
	p := a.cfg.Publish
	opts := publish.Options{
		Fee:         p.Fee,
		FeeRate:     p.FeeRate,
		MinFee:      p.MinFee,
		Dust:        p.Dust,
		Amount:      p.Amount,
		Destination: dest,
		MaxAttempts: p.MaxAttempts,

		CoinbaseMaturity: p.CoinbaseMaturity,
	}
	options := []publish.Option{publish.WithRetryDelay(p.RetryDelay)}
	closeFn := func() {}
	if a.cfg.History.Enabled {
		h, err := history.Open(a.cfg.HistoryDir())
		if err != nil {
			fatal("open history: %v", err)
		}
		options = append(options, publish.WithHistory(h))
		closeFn = func() { h.Close() }
	}
	pub, err := publish.New(src, b, opts, options...)
	if err != nil {
		closeFn()
		fatal("%v", err)
	}
	return pub, closeFn
}

// openSession unlocks a wallet and wraps its key in a session.
func (a *app) openSession(name string) *publish.Session {
	ks := a.keystore()
	password, err := readPassword("Password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	secret, err := ks.Load(name, password)
	zero(password)
	if err != nil {
		fatal("unlock wallet %s: %v", name, err)
	}
	kp, err := secret.KeyPair(a.prefix)
	secret.Zero()
	if err != nil {
		fatal("wallet %s: %v", name, err)
	}
	return publish.NewSession(signer.NewLocal(kp))
}

func (a *app) keystore() *wallet.Keystore {
	ks, err := wallet.NewKeystore(a.cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	return ks
}

// walletAddress reads a wallet's address without unlocking it.
func (a *app) walletAddress(name string) types.Address {
	info, err := a.keystore().Info(name)
	if err != nil {
		fatal("wallet %s: %v", name, err)
	}
	addr, err := types.DecodeAddress(info.Address)
	if err != nil {
		fatal("wallet %s address: %v", name, err)
	}
	if addr.Prefix != a.prefix {
		fatal("wallet %s belongs to %s, not %s", name, addr.Prefix, a.prefix)
	}
	return addr
}

// timeout bounds one command.
func (a *app) timeout() (context.Context, context.CancelFunc) {
	d := a.cfg.API.Timeout * time.Duration(a.cfg.Publish.MaxAttempts+1)
	return context.WithTimeout(a.ctx, d)
}

// ── Input helpers ───────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	if pw := os.Getenv("KASCHESS_PASSWORD"); pw != "" {
		return []byte(pw), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
