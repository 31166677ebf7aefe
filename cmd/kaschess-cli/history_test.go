package main

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/kaschess/pkg/payload"
)

const testGameID = "0123456789abcdef"

func encodeHex(t *testing.T, events ...payload.Event) []string {
	t.Helper()
	out := make([]string, 0, len(events))
	for _, ev := range events {
		data, err := payload.Encode(ev)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		out = append(out, hex.EncodeToString(data))
	}
	return out
}

func TestDecodePayloads_JoinsChat(t *testing.T) {
	msg := strings.Repeat("good game, well played. ", 8)
	chunks, err := payload.ChatChunks(testGameID, msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 3 {
		t.Fatalf("chunks = %d, want at least 3", len(chunks))
	}
	args := encodeHex(t, chunks...)
	args[0], args[len(args)-1] = args[len(args)-1], args[0]

	events, got, err := decodePayloads(args)
	if err != nil {
		t.Fatalf("decodePayloads: %v", err)
	}
	if len(events) != len(chunks) {
		t.Errorf("events = %d, want %d", len(events), len(chunks))
	}
	if got != msg {
		t.Errorf("message = %q, want %q", got, msg)
	}
}

func TestDecodePayloads_NoJoin(t *testing.T) {
	chunks, _ := payload.ChatChunks(testGameID, "hi")
	move := payload.Event{Kind: payload.KindMove, GameID: testGameID, Ply: 1, Move: "e2e4"}
	tests := []struct {
		name string
		in   []payload.Event
	}{
		{"single chat", chunks},
		{"single move", []payload.Event{move}},
		{"mixed", []payload.Event{move, chunks[0]}},
	}
	for _, tt := range tests {
		events, msg, err := decodePayloads(encodeHex(t, tt.in...))
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if len(events) != len(tt.in) || msg != "" {
			t.Errorf("%s: events = %d message = %q", tt.name, len(events), msg)
		}
	}
}

func TestDecodePayloads_Errors(t *testing.T) {
	chunks, _ := payload.ChatChunks(testGameID, strings.Repeat("x", 200))
	args := encodeHex(t, chunks...)

	if _, _, err := decodePayloads(args[:2]); !errors.Is(err, payload.ErrMalformed) {
		t.Errorf("missing chunk: err = %v, want ErrMalformed", err)
	}
	if _, _, err := decodePayloads([]string{args[0], args[0], args[1]}); !errors.Is(err, payload.ErrMalformed) {
		t.Errorf("repeated chunk: err = %v, want ErrMalformed", err)
	}
	if _, _, err := decodePayloads([]string{"zz"}); err == nil {
		t.Error("invalid hex should fail")
	}
}
