package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Klingon-tech/kaschess/internal/publish"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// parseAddress decodes s and checks it belongs to the configured network.
func (a *app) parseAddress(s string) types.Address {
	addr, err := types.DecodeAddress(s)
	if err != nil {
		fatal("invalid address %q: %v", s, err)
	}
	if addr.Prefix != a.prefix {
		fatal("address %s is for %s, not %s", s, addr.Prefix, a.prefix)
	}
	return addr
}

// addressArg resolves the target of a query: a positional address or a
// wallet name via --wallet.
func (a *app) addressArg(name string, args []string) types.Address {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)
	if *walletName != "" {
		return a.walletAddress(*walletName)
	}
	if fs.NArg() != 1 {
		fatal("usage: kaschess-cli %s <address> | --wallet <name>", name)
	}
	return a.parseAddress(fs.Arg(0))
}

func (a *app) cmdBalance(args []string) {
	addr := a.addressArg("balance", args)
	src, _, release := a.connect()
	defer release()

	ctx, cancel := a.timeout()
	defer cancel()
	balance, err := src.Balance(ctx, addr)
	if err != nil {
		fatal("balance: %v", err)
	}
	fmt.Printf("Address: %s\n", addr)
	fmt.Printf("Balance: %s KAS (%d sompi)\n", formatAmount(balance), balance)
}

func (a *app) cmdUTXOs(args []string) {
	addr := a.addressArg("utxos", args)
	src, _, release := a.connect()
	defer release()

	ctx, cancel := a.timeout()
	defer cancel()
	entries, err := src.UTXOs(ctx, addr)
	if err != nil {
		fatal("utxos: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No spendable outputs.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OUTPOINT\tAMOUNT\tDAA SCORE\tCOINBASE")
	var total uint64
	for _, e := range entries {
		total += e.Amount
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", e.Outpoint, formatAmount(e.Amount), e.BlockDAAScore, e.IsCoinbase)
	}
	w.Flush()
	fmt.Printf("\n%d outputs, %s KAS\n", len(entries), formatAmount(total))
}

func (a *app) cmdSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	to := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount in KAS")
	payloadHex := fs.String("payload-hex", "", "Hex-encoded transaction payload")
	retry := fs.Bool("retry", false, "Retry transport failures")
	fs.Parse(args)
	if *walletName == "" || *to == "" || *amountStr == "" {
		fatal("--wallet, --to and --amount are required")
	}

	dest := a.parseAddress(*to)
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}
	var data []byte
	if *payloadHex != "" {
		if data, err = hex.DecodeString(*payloadHex); err != nil {
			fatal("invalid payload hex: %v", err)
		}
	}

	sess := a.openSession(*walletName)
	defer sess.Close()
	src, b, release := a.connect()
	defer release()
	pub, closeHistory := a.publisher(src, b)
	defer closeHistory()

	ctx, cancel := a.timeout()
	defer cancel()
	var receipt *publish.Receipt
	if *retry {
		receipt, err = pub.SendWithRetry(ctx, sess, dest, amount, data)
	} else {
		receipt, err = pub.Send(ctx, sess, dest, amount, data)
	}
	if err != nil {
		fatal("send: %v", err)
	}
	printReceipt(receipt)
}

func printReceipt(r *publish.Receipt) {
	fmt.Printf("Transaction submitted!\n")
	fmt.Printf("  Tx ID:   %s\n", r.TxID)
	fmt.Printf("  Inputs:  %d\n", len(r.Inputs))
	fmt.Printf("  Fee:     %d sompi", r.Fee)
	if r.Absorbed > 0 {
		fmt.Printf(" (%d dust absorbed)", r.Absorbed)
	}
	fmt.Println()
	fmt.Printf("  Change:  %s KAS\n", formatAmount(r.Change))
	fmt.Printf("  Mass:    %d\n", r.Mass)
}
