package payload

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const gid = "00112233445566ff"

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"init", Event{Kind: KindInit, GameID: gid, Color: ColorRandom, Minutes: 5, Increment: 3}, "CHS1|i|" + gid + "|r|5|3"},
		{"join", Event{Kind: KindJoin, GameID: gid, Color: ColorBlack}, "CHS1|j|" + gid + "|b"},
		{"move", Event{Kind: KindMove, GameID: gid, Ply: 1, Move: "e2e4"}, "CHS1|m|" + gid + "|1|e2e4"},
		{"promotion", Event{Kind: KindMove, GameID: gid, Ply: 77, Move: "e7e8q"}, "CHS1|m|" + gid + "|77|e7e8q"},
		{"chat", Event{Kind: KindChat, GameID: gid, Seq: 1, Total: 1, Chunk: []byte("gg")}, "CHS1|c|" + gid + "|1|1|Z2c="},
		{"resign", Event{Kind: KindResign, GameID: gid}, "CHS1|r|" + gid},
		{"draw", Event{Kind: KindDraw, GameID: gid, Draw: DrawOffer}, "CHS1|d|" + gid + "|o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.ev)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Encode = %q, want %q", got, tt.want)
			}
			back, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			again, err := Encode(back)
			if err != nil {
				t.Fatalf("re-Encode: %v", err)
			}
			if !bytes.Equal(again, got) {
				t.Errorf("re-encoded %q, want %q", again, got)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"CHS2|r|" + gid, ErrMalformed},
		{"CHS1|r", ErrMalformed},
		{"CHS1|z|" + gid, ErrUnknownKind},
		{"CHS1|mm|" + gid, ErrUnknownKind},
		{"CHS1|r|00112233445566FF", ErrMalformed},
		{"CHS1|r|0011", ErrMalformed},
		{"CHS1|r|" + gid + "|extra", ErrMalformed},
		{"CHS1|i|" + gid + "|g|5|0", ErrMalformed},
		{"CHS1|i|" + gid + "|w|05|0", ErrMalformed},
		{"CHS1|i|" + gid + "|w|1000|0", ErrMalformed},
		{"CHS1|j|" + gid + "|r", ErrMalformed},
		{"CHS1|m|" + gid + "|0|e2e4", ErrMalformed},
		{"CHS1|m|" + gid + "|1|e2e9", ErrInvalidMove},
		{"CHS1|m|" + gid + "|1|e2e2", ErrInvalidMove},
		{"CHS1|m|" + gid + "|1|e7e8k", ErrInvalidMove},
		{"CHS1|m|" + gid + "|1|e6e7q", ErrInvalidMove},
		{"CHS1|m|" + gid + "|1|O-O", ErrInvalidMove},
		{"CHS1|c|" + gid + "|2|1|Z2c=", ErrMalformed},
		{"CHS1|c|" + gid + "|1|1|***", ErrMalformed},
		{"CHS1|d|" + gid + "|y", ErrMalformed},
		{"CHS1|r|" + gid + strings.Repeat("x", MaxSize), ErrTooLarge},
	}
	for _, tt := range tests {
		if _, err := Decode([]byte(tt.in)); !errors.Is(err, tt.want) {
			t.Errorf("Decode(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		ev   Event
		want error
	}{
		{Event{Kind: 'q', GameID: gid}, ErrUnknownKind},
		{Event{Kind: KindResign, GameID: "short"}, ErrMalformed},
		{Event{Kind: KindJoin, GameID: gid, Color: ColorRandom}, ErrMalformed},
		{Event{Kind: KindMove, GameID: gid, Ply: 1, Move: "a1"}, ErrInvalidMove},
		{Event{Kind: KindChat, GameID: gid, Seq: 1, Total: 1}, ErrMalformed},
		{Event{Kind: KindChat, GameID: gid, Seq: 1, Total: 1, Chunk: make([]byte, 100)}, ErrTooLarge},
	}
	for _, tt := range tests {
		if _, err := Encode(tt.ev); !errors.Is(err, tt.want) {
			t.Errorf("Encode(%+v) error = %v, want %v", tt.ev, err, tt.want)
		}
	}
}

func TestNewGameID(t *testing.T) {
	a := NewGameID([]byte("kaspa:qalice"), []byte{1})
	b := NewGameID([]byte("kaspa:qalice"), []byte{2})
	if len(a) != GameIDLength {
		t.Fatalf("len = %d, want %d", len(a), GameIDLength)
	}
	if a == b {
		t.Error("different nonces should give different ids")
	}
	if a != NewGameID([]byte("kaspa:qalice"), []byte{1}) {
		t.Error("game id should be deterministic")
	}
	if err := validateGameID(a); err != nil {
		t.Errorf("derived id invalid: %v", err)
	}
}

func TestChatChunks_Reassemble(t *testing.T) {
	msg := strings.Repeat("good game, well played! ", 12)
	events, err := ChatChunks(gid, msg)
	if err != nil {
		t.Fatalf("ChatChunks: %v", err)
	}
	if len(events) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(events))
	}

	var decoded []Event
	for i := len(events) - 1; i >= 0; i-- {
		rec, err := Encode(events[i])
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		if len(rec) > MaxSize {
			t.Fatalf("chunk %d is %d bytes", i, len(rec))
		}
		ev, err := Decode(rec)
		if err != nil {
			t.Fatalf("decode chunk %d: %v", i, err)
		}
		decoded = append(decoded, ev)
	}
	got, err := ReassembleChat(decoded)
	if err != nil {
		t.Fatalf("ReassembleChat: %v", err)
	}
	if got != msg {
		t.Errorf("reassembled %q, want %q", got, msg)
	}
}

func TestReassembleChat_Incomplete(t *testing.T) {
	events, _ := ChatChunks(gid, strings.Repeat("x", 200))
	if _, err := ReassembleChat(events[1:]); !errors.Is(err, ErrMalformed) {
		t.Errorf("missing chunk error = %v", err)
	}
	dup := append([]Event{}, events...)
	dup[1] = dup[0]
	if _, err := ReassembleChat(dup); !errors.Is(err, ErrMalformed) {
		t.Errorf("repeated chunk error = %v", err)
	}
}

func TestChatChunks_Limits(t *testing.T) {
	if _, err := ChatChunks(gid, ""); !errors.Is(err, ErrMalformed) {
		t.Errorf("empty message error = %v", err)
	}
	if _, err := ChatChunks(gid, strings.Repeat("x", chatChunkSize*MaxChatChunks+1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("long message error = %v", err)
	}
}
