package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Klingon-tech/kaschess/internal/utxosource"
	"github.com/Klingon-tech/kaschess/pkg/payload"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// settlePoll is how often chat waits for the node to drop spent outputs.
const settlePoll = 500 * time.Millisecond

func (a *app) cmdGame(args []string) {
	if len(args) == 0 {
		fatal("usage: kaschess-cli game <init|join|move|chat|resign|draw> [flags]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("game "+sub, flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	gameID := fs.String("game", "", "Game id")
	var (
		color     *string
		minutes   *uint
		increment *uint
		ply       *uint
		move      *string
		message   *string
		action    *string
	)
	switch sub {
	case "init":
		color = fs.String("color", "r", "Creator color: w, b or r (random)")
		minutes = fs.Uint("minutes", 10, "Minutes per side")
		increment = fs.Uint("increment", 0, "Increment in seconds")
	case "join":
		color = fs.String("color", "", "Joiner color: w or b")
	case "move":
		ply = fs.Uint("ply", 0, "Half-move number, starting at 1")
		move = fs.String("move", "", "Move in UCI notation (e2e4, e7e8q)")
	case "chat":
		message = fs.String("message", "", "Chat message")
	case "resign":
	case "draw":
		action = fs.String("action", "", "offer, accept or decline")
	default:
		fatal("unknown game command: %s", sub)
	}
	fs.Parse(rest)

	if *walletName == "" {
		fatal("--wallet is required")
	}
	if sub != "init" && *gameID == "" {
		fatal("--game is required")
	}

	var events []payload.Event
	switch sub {
	case "init":
		if *minutes > payload.MaxMinutes || *increment > payload.MaxIncrement {
			fatal("time control %d+%d out of range", *minutes, *increment)
		}
		events = []payload.Event{{
			Kind:      payload.KindInit,
			GameID:    newGameID(a.walletAddress(*walletName)),
			Color:     parseColor(*color),
			Minutes:   uint16(*minutes),
			Increment: uint16(*increment),
		}}
	case "join":
		events = []payload.Event{{Kind: payload.KindJoin, GameID: *gameID, Color: parseColor(*color)}}
	case "move":
		if *ply == 0 || *ply > payload.MaxPly {
			fatal("--ply must be between 1 and %d", payload.MaxPly)
		}
		events = []payload.Event{{Kind: payload.KindMove, GameID: *gameID, Ply: uint16(*ply), Move: strings.ToLower(*move)}}
	case "chat":
		chunks, err := payload.ChatChunks(*gameID, *message)
		if err != nil {
			fatal("%v", err)
		}
		events = chunks
	case "resign":
		events = []payload.Event{{Kind: payload.KindResign, GameID: *gameID}}
	case "draw":
		events = []payload.Event{{Kind: payload.KindDraw, GameID: *gameID, Draw: parseDrawAction(*action)}}
	}

	// Catch encoding errors before asking for the password.
	for _, ev := range events {
		if _, err := payload.Encode(ev); err != nil {
			fatal("%v", err)
		}
	}

	sess := a.openSession(*walletName)
	defer sess.Close()
	src, b, release := a.connect()
	defer release()
	pub, closeHistory := a.publisher(src, b)
	defer closeHistory()

	var spent []types.Outpoint
	for i, ev := range events {
		if i > 0 {
			ctx, cancel := a.timeout()
			err := waitSettled(ctx, src, sess.Address(), spent)
			cancel()
			if err != nil {
				fatal("chunk %d: %v", i+1, err)
			}
		}
		ctx, cancel := a.timeout()
		receipt, err := pub.PublishWithRetry(ctx, sess, ev)
		cancel()
		if err != nil {
			fatal("publish %s: %v", ev.Kind, err)
		}
		spent = receipt.Inputs
		if len(events) > 1 {
			fmt.Printf("Chunk %d/%d\n", i+1, len(events))
		}
		printReceipt(receipt)
	}
	if sub == "init" {
		fmt.Printf("\nGame ID: %s\n", events[0].GameID)
	}
}

// waitSettled polls until none of spent is listed for addr any more, so the
// next publish does not select an output already consumed in the mempool.
func waitSettled(ctx context.Context, src utxosource.Source, addr types.Address, spent []types.Outpoint) error {
	want := make(map[types.Outpoint]bool, len(spent))
	for _, op := range spent {
		want[op] = true
	}
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for {
		entries, err := src.UTXOs(ctx, addr)
		if err != nil {
			return err
		}
		listed := false
		for _, e := range entries {
			if want[e.Outpoint] {
				listed = true
				break
			}
		}
		if !listed {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for confirmation: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func newGameID(creator types.Address) string {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		fatal("game nonce: %v", err)
	}
	return payload.NewGameID(creator.Payload, nonce)
}

func parseColor(s string) payload.Color {
	switch strings.ToLower(s) {
	case "w", "white":
		return payload.ColorWhite
	case "b", "black":
		return payload.ColorBlack
	case "r", "random":
		return payload.ColorRandom
	}
	fatal("invalid color %q", s)
	return 0
}

func parseDrawAction(s string) payload.DrawAction {
	switch strings.ToLower(s) {
	case "offer":
		return payload.DrawOffer
	case "accept":
		return payload.DrawAccept
	case "decline":
		return payload.DrawDecline
	}
	fatal("invalid draw action %q", s)
	return 0
}
