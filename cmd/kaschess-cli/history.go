package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Klingon-tech/kaschess/internal/history"
	"github.com/Klingon-tech/kaschess/pkg/payload"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

func (a *app) cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	address := fs.String("address", "", "Address (instead of --wallet)")
	limit := fs.Int("limit", 20, "Maximum records (0 for all)")
	clearAll := fs.Bool("clear", false, "Delete the records instead of listing them")
	fs.Parse(args)

	var addr types.Address
	switch {
	case *walletName != "":
		addr = a.walletAddress(*walletName)
	case *address != "":
		addr = a.parseAddress(*address)
	default:
		fatal("--wallet or --address is required")
	}

	store, err := history.Open(a.cfg.HistoryDir())
	if err != nil {
		fatal("open history: %v", err)
	}
	defer store.Close()

	if *clearAll {
		if err := store.Clear(addr.String()); err != nil {
			fatal("clear history: %v", err)
		}
		fmt.Printf("History of %s cleared.\n", addr)
		return
	}

	records, err := store.List(addr.String(), *limit)
	if err != nil {
		fatal("history: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No publish attempts recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tGAME\tOUTCOME\tFEE\tTX / REASON")
	for _, r := range records {
		detail := r.Reason
		if !r.TxID.IsZero() {
			detail = r.TxID.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Time.Local().Format(time.DateTime), r.Kind, r.GameID, r.Outcome, r.Fee, detail)
	}
	w.Flush()
}

func (a *app) cmdDecodeAddress(args []string) {
	if len(args) != 1 {
		fatal("usage: kaschess-cli decode-address <address>")
	}
	addr, err := types.DecodeAddress(args[0])
	if err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Prefix:  %s\n", addr.Prefix)
	fmt.Printf("Version: %d\n", addr.Version)
	fmt.Printf("Payload: %x\n", addr.Payload)
	if spk, err := addr.ScriptPublicKey(); err == nil {
		fmt.Printf("Script:  %x (version %d)\n", spk.Script, spk.Version)
	}
	if addr.Prefix != a.prefix {
		fmt.Printf("Note: not a %s address\n", a.prefix)
	}
}

func cmdDecodePayload(args []string) {
	if len(args) == 0 {
		fatal("usage: kaschess-cli decode-payload <hex>...")
	}
	events, msg, err := decodePayloads(args)
	if err != nil {
		fatal("%v", err)
	}
	for i, ev := range events {
		if i > 0 {
			fmt.Println()
		}
		printEvent(ev)
	}
	if msg != "" {
		fmt.Printf("\nMessage:   %q\n", msg)
	}
}

// decodePayloads decodes hex payloads in order. If there are several and all
// are chat chunks, they are joined into the returned message.
func decodePayloads(args []string) ([]payload.Event, string, error) {
	events := make([]payload.Event, 0, len(args))
	chat := len(args) > 1
	for i, arg := range args {
		data, err := hex.DecodeString(arg)
		if err != nil {
			return nil, "", fmt.Errorf("payload %d: invalid hex: %w", i+1, err)
		}
		ev, err := payload.Decode(data)
		if err != nil {
			return nil, "", fmt.Errorf("payload %d: %w", i+1, err)
		}
		chat = chat && ev.Kind == payload.KindChat
		events = append(events, ev)
	}
	if !chat {
		return events, "", nil
	}
	msg, err := payload.ReassembleChat(events)
	if err != nil {
		return nil, "", err
	}
	return events, msg, nil
}

func printEvent(ev payload.Event) {
	fmt.Printf("Kind:      %s\n", ev.Kind)
	fmt.Printf("Game:      %s\n", ev.GameID)
	switch ev.Kind {
	case payload.KindInit:
		fmt.Printf("Color:     %c\n", ev.Color)
		fmt.Printf("Clock:     %d+%d\n", ev.Minutes, ev.Increment)
	case payload.KindJoin:
		fmt.Printf("Color:     %c\n", ev.Color)
	case payload.KindMove:
		fmt.Printf("Ply:       %d\n", ev.Ply)
		fmt.Printf("Move:      %s\n", ev.Move)
	case payload.KindChat:
		fmt.Printf("Chunk:     %d/%d\n", ev.Seq, ev.Total)
		fmt.Printf("Text:      %q\n", ev.Chunk)
	case payload.KindDraw:
		fmt.Printf("Action:    %c\n", ev.Draw)
	}
}
